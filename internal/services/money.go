package services

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineTotal returns quantity * unitPrice
func LineTotal(quantity, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative("quantity", quantity); err != nil {
		return decimal.Zero, err
	}
	if err := requireNonNegative("unit_price", unitPrice); err != nil {
		return decimal.Zero, err
	}
	return quantity.Mul(unitPrice), nil
}

// DiscountedAmount returns lineTotal reduced by discountPct percent
func DiscountedAmount(lineTotal, discountPct decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative("line_total", lineTotal); err != nil {
		return decimal.Zero, err
	}
	if err := requirePercentage("discount_pct", discountPct); err != nil {
		return decimal.Zero, err
	}
	// lineTotal - lineTotal*pct/100 keeps the result exact for any pct
	return lineTotal.Sub(lineTotal.Mul(discountPct).Div(hundred)), nil
}

// TaxAmount returns taxPct percent of discountedAmount
func TaxAmount(discountedAmount, taxPct decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative("discounted_amount", discountedAmount); err != nil {
		return decimal.Zero, err
	}
	if err := requirePercentage("tax_pct", taxPct); err != nil {
		return decimal.Zero, err
	}
	return discountedAmount.Mul(taxPct).Div(hundred), nil
}

func requireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return &ValidationError{Field: field, Value: v.String(), Reason: "must not be negative"}
	}
	return nil
}

func requirePercentage(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return &ValidationError{Field: field, Value: v.String(), Reason: "must be between 0 and 100"}
	}
	return nil
}
