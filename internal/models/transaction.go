package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType is the direction of money from the business account's perspective
type TxnType string

const (
	TxnInflow  TxnType = "inflow"
	TxnOutflow TxnType = "outflow"
)

// TaxType is the persisted tax classification of an outflow.
// The zero value means "not a tax payment".
type TaxType string

const (
	TaxTypeNone   TaxType = ""
	TaxTypeTax    TaxType = "tax"
	TaxTypeSurtax TaxType = "surtax"
)

// Valid reports whether t is one of the known tax types
func (t TaxType) Valid() bool {
	switch t {
	case TaxTypeNone, TaxTypeTax, TaxTypeSurtax:
		return true
	}
	return false
}

// Bookkeeping categories assigned at ingestion. Orthogonal to the tax classification.
const (
	CategoryBusinessIncome  = "business_income"
	CategoryPersonalDeposit = "personal_deposit"
	CategoryRefund          = "refund"
	CategoryBusinessExpense = "business_expense"
	CategoryTaxPayment      = "tax_payment"
	CategoryOther           = "other"
)

// Transaction represents a bank transaction as stored by the persistence service.
// The review engine never mutates it.
type Transaction struct {
	ID                 string          `json:"id"`
	Date               time.Time       `json:"date"`
	Description        string          `json:"description"`
	RawReference       string          `json:"raw_reference,omitempty"`
	Amount             decimal.Decimal `json:"amount"` // Always non-negative, direction is in Type
	Type               TxnType         `json:"type"`
	Category           string          `json:"category"`
	TaxType            TaxType         `json:"tax_type,omitempty"`
	IsExcludedFromPOSD bool            `json:"is_excluded_from_posd"`
	POSDNote           *string         `json:"posd_note,omitempty"`
	SourceFile         string          `json:"source_file,omitempty"`
}

// Note returns the persisted PO-SD note or an empty string
func (t Transaction) Note() string {
	if t.POSDNote == nil {
		return ""
	}
	return *t.POSDNote
}

// PendingEdit is an uncommitted, session-local correction to a transaction.
// A nil field was never touched; a non-nil field is an explicit value, even when it
// points at "" or false.
type PendingEdit struct {
	TaxType    *TaxType `json:"tax_type,omitempty"`
	IsExcluded *bool    `json:"is_excluded,omitempty"`
	Note       *string  `json:"note,omitempty"`
}

// IsEmpty reports whether no field of the edit was set
func (e PendingEdit) IsEmpty() bool {
	return e.TaxType == nil && e.IsExcluded == nil && e.Note == nil
}

// UpdateItem is one record of a review batch commit
type UpdateItem struct {
	ID         string   `json:"id"`
	TaxType    *TaxType `json:"tax_type,omitempty"`
	IsExcluded *bool    `json:"is_excluded,omitempty"`
	Note       *string  `json:"note,omitempty"`
}

// ReviewRequest is the body of POST /transactions/review
type ReviewRequest struct {
	Items []UpdateItem `json:"items"`
}

// ReviewResponse is returned by POST /transactions/review
type ReviewResponse struct {
	Status  string `json:"status"`
	Updated int    `json:"updated"`
}

// TransactionQuery filters a transaction listing. Limit -1 returns every match.
type TransactionQuery struct {
	Start  time.Time
	End    time.Time
	Type   TxnType
	Page   int
	Limit  int
	Search string
}

// TransactionPage is one page of a transaction listing
type TransactionPage struct {
	Data  []Transaction `json:"data"`
	Total int64         `json:"total"`
}
