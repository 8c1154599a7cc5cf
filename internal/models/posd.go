package models

import "github.com/shopspring/decimal"

// TaxBracket is one fixed-liability tier of the flat-tax table
type TaxBracket struct {
	Description      string          `json:"description"`
	MaxReceipts      decimal.Decimal `json:"max_receipts"`
	BaseTaxLiability decimal.Decimal `json:"base_tax_liability"`
}

// ReconciliationStatus classifies the obligation-vs-paid difference
type ReconciliationStatus string

const (
	StatusOwed     ReconciliationStatus = "owed"
	StatusOverpaid ReconciliationStatus = "overpaid"
	StatusSettled  ReconciliationStatus = "settled"
)

// ReconciliationResult compares the annual obligation with what was paid.
// Difference is obligation minus paid: positive is still owed, negative is overpaid.
type ReconciliationResult struct {
	Bracket    *TaxBracket          `json:"bracket,omitempty"`
	Obligation decimal.Decimal      `json:"obligation"`
	Paid       decimal.Decimal      `json:"paid"`
	Difference decimal.Decimal      `json:"difference"`
	Status     ReconciliationStatus `json:"status"`
}

// Profile identifies the taxpayer on the PO-SD form
type Profile struct {
	OIB     string `json:"oib"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// POSDStats is the annual aggregate returned by GET /posd-stats
type POSDStats struct {
	Profile
	Year             int                  `json:"year"`
	TotalReceipts    decimal.Decimal      `json:"total_receipts"`
	TaxPaid          decimal.Decimal      `json:"tax_paid"`
	SurtaxPaid       decimal.Decimal      `json:"surtax_paid"`
	TaxBracket       string               `json:"tax_bracket"`
	BaseTaxLiability decimal.Decimal      `json:"base_tax_liability"`
	AllBrackets      []TaxBracket         `json:"all_brackets"`
	Reconciliation   ReconciliationResult `json:"reconciliation"`
}

// PaymentCodeRequest is the body of POST utils/generate-payment-code
type PaymentCodeRequest struct {
	IBAN             string          `json:"iban"`
	Amount           decimal.Decimal `json:"amount"`
	PayeeName        string          `json:"payee_name"`
	PaymentReference string          `json:"payment_reference"`
	Description      string          `json:"description"`
	PurposeCode      string          `json:"purpose_code"`
}

// PaymentCodeResponse carries the base64 encoded payment QR image
type PaymentCodeResponse struct {
	QRCode string `json:"qr_code"`
}
