package services

import (
	"testing"
	"time"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func on(tx models.Transaction, year int, month time.Month, day int, amount string) models.Transaction {
	tx.Date = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	tx.Amount = d(amount)
	return tx
}

func yearLedger() []models.Transaction {
	excluded := inflow("in-2", "UPLATA VLASNIKA")
	excluded.IsExcludedFromPOSD = true

	deposit := inflow("in-3", "POLOG")
	deposit.Category = models.CategoryPersonalDeposit

	storedTax := outflow("out-3", "HEP", "")
	storedTax.TaxType = models.TaxTypeTax

	overridden := outflow("out-4", "POREZ NA DOHODAK", "")
	overridden.TaxType = models.TaxTypeSurtax

	return []models.Transaction{
		on(inflow("in-1", "UPLATA PO RACUNU 1-1-1"), 2025, time.June, 10, "12000"),
		on(excluded, 2025, time.July, 1, "3000"),
		on(deposit, 2025, time.August, 1, "500"),
		on(inflow("in-4", "UPLATA PO RACUNU 9-1-1"), 2026, time.January, 5, "1000"),
		on(outflow("out-1", "UPLATA", "HR68 1449-12345678901"), 2026, time.January, 10, "150"),
		on(outflow("out-2", "PRIREZ", ""), 2025, time.April, 2, "20"),
		on(storedTax, 2025, time.May, 5, "40"),
		on(overridden, 2025, time.May, 6, "5"),
		on(outflow("out-5", "UPLATA", "HR68 1449-12345678901"), 2026, time.January, 20, "70"),
		on(outflow("out-6", "DOPRINOSI", "HR68 8141-12345678901"), 2025, time.March, 15, "300"),
	}
}

func TestPOSDCalculator_Compute(t *testing.T) {
	tables, err := DefaultBracketTables()
	require.NoError(t, err)
	calc := NewPOSDCalculator(NewDefaultCategorizer(), tables)
	profile := models.Profile{OIB: "12345678901", Name: "Obrt Test", Address: "Ilica 1, Zagreb"}

	stats, err := calc.Compute(yearLedger(), 2025, profile)
	require.NoError(t, err)

	assert.Equal(t, profile, stats.Profile)
	assert.Equal(t, 2025, stats.Year)
	assert.True(t, stats.TotalReceipts.Equal(d("12000")), stats.TotalReceipts.String())
	assert.True(t, stats.TaxPaid.Equal(d("190")), stats.TaxPaid.String())
	assert.True(t, stats.SurtaxPaid.Equal(d("25")), stats.SurtaxPaid.String())
	assert.Equal(t, "2. Razina (do 15.300,00 €)", stats.TaxBracket)
	assert.True(t, stats.BaseTaxLiability.Equal(d("275.40")))
	assert.Len(t, stats.AllBrackets, 7)

	assert.True(t, stats.Reconciliation.Difference.Equal(d("60.40")), stats.Reconciliation.Difference.String())
	assert.Equal(t, models.StatusOwed, stats.Reconciliation.Status)
}

func TestPOSDCalculator_ComputeEmptyYear(t *testing.T) {
	tables, err := DefaultBracketTables()
	require.NoError(t, err)
	calc := NewPOSDCalculator(NewDefaultCategorizer(), tables)

	stats, err := calc.Compute(nil, 2024, models.Profile{})
	require.NoError(t, err)
	assert.True(t, stats.TotalReceipts.IsZero())
	assert.True(t, stats.BaseTaxLiability.Equal(d("199.08")))
	assert.Len(t, calc.Brackets(2024), 5)
}

func TestPOSDCalculator_ComputeBadTable(t *testing.T) {
	tables, err := ParseBracketTables([]byte("tables:\n  2025:\n    - {description: a, max_receipts: \"100\", base_tax_liability: \"1\"}\n"))
	require.NoError(t, err)
	tables.tables[2025][0].MaxReceipts = d("-1")

	calc := NewPOSDCalculator(NewDefaultCategorizer(), tables)
	_, err = calc.Compute(nil, 2025, models.Profile{})
	var cerr *ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}

func TestPaymentOrderFor(t *testing.T) {
	profile := models.Profile{OIB: "12345678901"}
	payee := Payee{Name: "Grad Zagreb", IBAN: "HR12 1001 0051 8630 0016 0", PurposeCode: "TAXS"}

	owed := Reconcile(d("275.40"), d("200"), d("14.995"))
	order := PaymentOrderFor(owed, profile, payee, 2025)
	require.NotNil(t, order)
	assert.Equal(t, "HR1210010051863000160", order.IBAN)
	assert.Equal(t, "60.41", order.Amount.StringFixed(2))
	assert.Equal(t, "HR68 1449-12345678901", order.PaymentReference)
	assert.Equal(t, "Grad Zagreb", order.PayeeName)
	assert.Equal(t, "TAXS", order.PurposeCode)
	assert.Contains(t, order.Description, "2025")

	assert.Nil(t, PaymentOrderFor(Reconcile(d("100"), d("100"), d("0")), profile, payee, 2025))
	assert.Nil(t, PaymentOrderFor(Reconcile(d("100"), d("150"), d("0")), profile, payee, 2025))
}
