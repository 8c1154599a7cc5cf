package services

import (
	"fmt"
	"strings"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/shopspring/decimal"
)

// IncomeTaxCallPrefix is the model and call-number prefix of income-tax remittances
const IncomeTaxCallPrefix = "HR68 1449"

// POSDCalculator builds the annual PO-SD figures from stored transactions
type POSDCalculator struct {
	categorizer *Categorizer
	brackets    *BracketTables
}

// NewPOSDCalculator creates a calculator over the given bracket tables
func NewPOSDCalculator(categorizer *Categorizer, brackets *BracketTables) *POSDCalculator {
	return &POSDCalculator{categorizer: categorizer, brackets: brackets}
}

// Brackets returns the bracket table in force for year
func (p *POSDCalculator) Brackets(year int) []models.TaxBracket {
	return p.brackets.ForYear(year)
}

// Compute aggregates receipts and paid taxes for year using stored classifications
// and the heuristic, then resolves the bracket and reconciles.
func (p *POSDCalculator) Compute(txs []models.Transaction, year int, profile models.Profile) (models.POSDStats, error) {
	receipts := decimal.Zero
	taxPaid := decimal.Zero
	surtaxPaid := decimal.Zero

	for _, tx := range txs {
		switch tx.Type {
		case models.TxnInflow:
			if !InReviewWindow(ReviewInflow, year, tx.Date) || tx.Category != models.CategoryBusinessIncome {
				continue
			}
			if excluded, _ := p.categorizer.EffectiveExcluded(tx, nil); excluded {
				continue
			}
			receipts = receipts.Add(tx.Amount)

		case models.TxnOutflow:
			if !InReviewWindow(ReviewOutflow, year, tx.Date) {
				continue
			}
			switch taxType, _ := p.categorizer.EffectiveTaxType(tx, nil); taxType {
			case models.TaxTypeTax:
				taxPaid = taxPaid.Add(tx.Amount)
			case models.TaxTypeSurtax:
				surtaxPaid = surtaxPaid.Add(tx.Amount)
			}
		}
	}

	table := p.brackets.ForYear(year)
	result, err := ReconcileReceipts(receipts, table, taxPaid, surtaxPaid)
	if err != nil {
		return models.POSDStats{}, fmt.Errorf("failed to reconcile %d: %w", year, err)
	}

	return models.POSDStats{
		Profile:          profile,
		Year:             year,
		TotalReceipts:    receipts,
		TaxPaid:          taxPaid,
		SurtaxPaid:       surtaxPaid,
		TaxBracket:       result.Bracket.Description,
		BaseTaxLiability: result.Bracket.BaseTaxLiability,
		AllBrackets:      table,
		Reconciliation:   result,
	}, nil
}

// Payee is the municipal account that receives income tax and surtax
type Payee struct {
	Name        string
	IBAN        string
	PurposeCode string
}

// PaymentOrderFor builds the payment-code request for an outstanding difference.
// It returns nil unless the reconciliation status is owed.
func PaymentOrderFor(result models.ReconciliationResult, profile models.Profile, payee Payee, year int) *models.PaymentCodeRequest {
	if result.Status != models.StatusOwed {
		return nil
	}
	return &models.PaymentCodeRequest{
		IBAN:             strings.ReplaceAll(payee.IBAN, " ", ""),
		Amount:           result.Difference.Round(2),
		PayeeName:        payee.Name,
		PaymentReference: fmt.Sprintf("%s-%s", IncomeTaxCallPrefix, profile.OIB),
		Description:      fmt.Sprintf("Porez na dohodak %d", year),
		PurposeCode:      payee.PurposeCode,
	}
}
