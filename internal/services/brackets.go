package services

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Amounts within one cent of zero count as settled
var settleEpsilon = decimal.New(1, -2)

//go:embed brackets.yaml
var defaultBracketsYAML []byte

type bracketFile struct {
	Tables map[int][]bracketEntry `yaml:"tables"`
}

type bracketEntry struct {
	Description      string `yaml:"description"`
	MaxReceipts      string `yaml:"max_receipts"`
	BaseTaxLiability string `yaml:"base_tax_liability"`
}

// BracketTables holds one validated bracket table per starting year
type BracketTables struct {
	years  []int
	tables map[int][]models.TaxBracket
}

// DefaultBracketTables returns the embedded 2024 and 2025 tables
func DefaultBracketTables() (*BracketTables, error) {
	return ParseBracketTables(defaultBracketsYAML)
}

// LoadBracketTables reads bracket tables from a YAML file, falling back to the
// embedded tables when path is empty.
func LoadBracketTables(path string) (*BracketTables, error) {
	if path == "" {
		return DefaultBracketTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bracket file: %w", err)
	}
	return ParseBracketTables(data)
}

// ParseBracketTables decodes and validates bracket tables
func ParseBracketTables(data []byte) (*BracketTables, error) {
	var file bracketFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("malformed yaml: %v", err)}
	}
	if len(file.Tables) == 0 {
		return nil, &ConfigurationError{Reason: "no bracket tables defined"}
	}

	bt := &BracketTables{tables: make(map[int][]models.TaxBracket, len(file.Tables))}
	for year, entries := range file.Tables {
		table := make([]models.TaxBracket, 0, len(entries))
		for i, e := range entries {
			maxReceipts, err := decimal.NewFromString(e.MaxReceipts)
			if err != nil {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("%d bracket %d: bad max_receipts %q", year, i, e.MaxReceipts)}
			}
			liability, err := decimal.NewFromString(e.BaseTaxLiability)
			if err != nil {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("%d bracket %d: bad base_tax_liability %q", year, i, e.BaseTaxLiability)}
			}
			table = append(table, models.TaxBracket{
				Description:      e.Description,
				MaxReceipts:      maxReceipts,
				BaseTaxLiability: liability,
			})
		}
		if err := ValidateBracketTable(table); err != nil {
			return nil, fmt.Errorf("table %d: %w", year, err)
		}
		bt.tables[year] = table
		bt.years = append(bt.years, year)
	}
	sort.Ints(bt.years)
	return bt, nil
}

// ForYear returns the table in force for the given year. Years before the first
// table use the first table.
func (b *BracketTables) ForYear(year int) []models.TaxBracket {
	chosen := b.years[0]
	for _, y := range b.years {
		if y <= year {
			chosen = y
		}
	}
	return b.tables[chosen]
}

// ValidateBracketTable checks that a table is non-empty and strictly ascending by
// max_receipts with non-negative bounds.
func ValidateBracketTable(table []models.TaxBracket) error {
	if len(table) == 0 {
		return &ConfigurationError{Reason: "bracket table is empty"}
	}
	for i, b := range table {
		if b.MaxReceipts.IsNegative() || b.BaseTaxLiability.IsNegative() {
			return &ConfigurationError{Reason: fmt.Sprintf("bracket %d has a negative bound or liability", i)}
		}
		if i > 0 && !b.MaxReceipts.GreaterThan(table[i-1].MaxReceipts) {
			return &ConfigurationError{Reason: fmt.Sprintf("bracket %d is not above bracket %d", i, i-1)}
		}
	}
	return nil
}

// ResolveBracket returns the first bracket whose upper bound covers totalReceipts.
// Receipts above the highest bound fall into the last bracket.
func ResolveBracket(totalReceipts decimal.Decimal, table []models.TaxBracket) (models.TaxBracket, error) {
	if totalReceipts.IsNegative() {
		return models.TaxBracket{}, &ConfigurationError{Reason: "total receipts must not be negative"}
	}
	if err := ValidateBracketTable(table); err != nil {
		return models.TaxBracket{}, err
	}

	for _, b := range table {
		if b.MaxReceipts.GreaterThanOrEqual(totalReceipts) {
			return b, nil
		}
	}
	return table[len(table)-1], nil
}

// Reconcile compares the annual obligation with the tax and surtax already paid
func Reconcile(obligation, taxPaid, surtaxPaid decimal.Decimal) models.ReconciliationResult {
	paid := taxPaid.Add(surtaxPaid)
	diff := obligation.Sub(paid)

	status := models.StatusSettled
	switch {
	case diff.GreaterThan(settleEpsilon):
		status = models.StatusOwed
	case diff.LessThan(settleEpsilon.Neg()):
		status = models.StatusOverpaid
	}

	return models.ReconciliationResult{
		Obligation: obligation,
		Paid:       paid,
		Difference: diff,
		Status:     status,
	}
}

// ReconcileReceipts resolves the bracket for totalReceipts and reconciles its fixed
// liability against the paid amounts.
func ReconcileReceipts(totalReceipts decimal.Decimal, table []models.TaxBracket, taxPaid, surtaxPaid decimal.Decimal) (models.ReconciliationResult, error) {
	bracket, err := ResolveBracket(totalReceipts, table)
	if err != nil {
		return models.ReconciliationResult{}, err
	}
	result := Reconcile(bracket.BaseTaxLiability, taxPaid, surtaxPaid)
	result.Bracket = &bracket
	return result, nil
}
