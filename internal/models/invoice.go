package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLineItem is one priced line of an invoice. Percentages are in 0..100.
type InvoiceLineItem struct {
	ID          int             `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"price"`
	DiscountPct decimal.Decimal `json:"discount"`
	TaxPct      decimal.Decimal `json:"tax"`
}

// InvoiceTotals are derived from the line items and never stored on their own
type InvoiceTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	GrandTotal decimal.Decimal `json:"total"`
}

// Round returns the totals rounded to the given number of decimal places
func (t InvoiceTotals) Round(places int32) InvoiceTotals {
	return InvoiceTotals{
		Subtotal:   t.Subtotal.Round(places),
		TaxTotal:   t.TaxTotal.Round(places),
		GrandTotal: t.GrandTotal.Round(places),
	}
}

// InvoiceClient is the buyer block printed on an invoice
type InvoiceClient struct {
	Name       string `json:"name"`
	OIB        string `json:"oib"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
	Email      string `json:"email,omitempty"`
}

// Invoice is an issued invoice together with its items and computed totals
type Invoice struct {
	ID            uuid.UUID         `json:"id"`
	Number        string            `json:"invoice_number"`
	IssueDate     time.Time         `json:"issue_date"`
	DueDate       time.Time         `json:"due_date"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Client        InvoiceClient     `json:"client"`
	Items         []InvoiceLineItem `json:"items"`
	Totals        InvoiceTotals     `json:"totals"`
	CreatedAt     time.Time         `json:"created_at"`
}

// CreateInvoiceRequest is the body of POST /invoices.
// Client-side totals are accepted for display only; the server recomputes them.
type CreateInvoiceRequest struct {
	Number        string            `json:"invoice_number"`
	IssueDate     time.Time         `json:"issue_date"`
	DueDate       time.Time         `json:"due_date"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Client        InvoiceClient     `json:"client"`
	Items         []InvoiceLineItem `json:"items"`
	Totals        *InvoiceTotals    `json:"totals,omitempty"`
}
