package services

import (
	"fmt"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/shopspring/decimal"
)

// ComputeTotals aggregates invoice line items into subtotal, tax and grand total.
// It has no side effects and runs on every edit of the invoice form.
func ComputeTotals(items []models.InvoiceLineItem) (models.InvoiceTotals, error) {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero

	for i, item := range items {
		line, err := LineTotal(item.Quantity, item.UnitPrice)
		if err != nil {
			return models.InvoiceTotals{}, fmt.Errorf("item %d: %w", i, err)
		}
		discounted, err := DiscountedAmount(line, item.DiscountPct)
		if err != nil {
			return models.InvoiceTotals{}, fmt.Errorf("item %d: %w", i, err)
		}
		tax, err := TaxAmount(discounted, item.TaxPct)
		if err != nil {
			return models.InvoiceTotals{}, fmt.Errorf("item %d: %w", i, err)
		}

		subtotal = subtotal.Add(discounted)
		taxTotal = taxTotal.Add(tax)
	}

	return models.InvoiceTotals{
		Subtotal:   subtotal,
		TaxTotal:   taxTotal,
		GrandTotal: subtotal.Add(taxTotal),
	}, nil
}
