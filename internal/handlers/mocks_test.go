package handlers

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/pausal-api/internal/database"
	"github.com/ashmitsharp/pausal-api/internal/models"
)

// MockTransactionStore is a mock implementation of TransactionStore for testing
type MockTransactionStore struct {
	ListFunc        func(ctx context.Context, q models.TransactionQuery) (models.TransactionPage, error)
	ApplyReviewFunc func(ctx context.Context, items []models.UpdateItem) (int, error)
}

func (m *MockTransactionStore) List(ctx context.Context, q models.TransactionQuery) (models.TransactionPage, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, q)
	}
	return models.TransactionPage{Data: []models.Transaction{}}, nil
}

func (m *MockTransactionStore) ApplyReview(ctx context.Context, items []models.UpdateItem) (int, error) {
	if m.ApplyReviewFunc != nil {
		return m.ApplyReviewFunc(ctx, items)
	}
	return len(items), nil
}

// MockInvoiceStore is a mock implementation of InvoiceStore for testing
type MockInvoiceStore struct {
	invoices  map[uuid.UUID]models.Invoice
	CreateErr error
}

func (m *MockInvoiceStore) Create(_ context.Context, inv *models.Invoice) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.invoices == nil {
		m.invoices = make(map[uuid.UUID]models.Invoice)
	}
	inv.CreatedAt = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	m.invoices[inv.ID] = *inv
	return nil
}

func (m *MockInvoiceStore) Get(_ context.Context, id uuid.UUID) (models.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return models.Invoice{}, database.ErrNotFound
	}
	return inv, nil
}

// MockExportStorage is a mock implementation of ExportStorage for testing
type MockExportStorage struct {
	UploadFileFunc func(ctx context.Context, key, contentType string, body io.Reader) error
	uploaded       map[string][]byte
}

func (m *MockExportStorage) GenerateExportKey(ownerID string, year int) (string, error) {
	return fmt.Sprintf("exports/%s/%d/mock-posd-ledger.xlsx", ownerID, year), nil
}

func (m *MockExportStorage) UploadFile(ctx context.Context, key, contentType string, body io.Reader) error {
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, key, contentType, body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if m.uploaded == nil {
		m.uploaded = make(map[string][]byte)
	}
	m.uploaded[key] = data
	return nil
}

func (m *MockExportStorage) GeneratePresignedURL(_ context.Context, key string, expiryMinutes int) (string, error) {
	return fmt.Sprintf("https://s3.amazonaws.com/bucket/%s?X-Amz-Expires=%d", key, expiryMinutes*60), nil
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ledger2025 is a small year of transactions with a known PO-SD outcome:
// receipts 12000 (bracket 2, liability 275.40), tax 150, surtax 20, 105.40 owed
func ledger2025() []models.Transaction {
	excluded := models.Transaction{
		ID: "i2", Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Description: "UPLATA VLASNIKA",
		Amount: amount("3000"), Type: models.TxnInflow, Category: models.CategoryBusinessIncome, IsExcludedFromPOSD: true,
	}
	return []models.Transaction{
		{ID: "i1", Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), Description: "UPLATA PO RACUNU 1-1-1", Amount: amount("12000"), Type: models.TxnInflow, Category: models.CategoryBusinessIncome},
		excluded,
		{ID: "o1", Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Description: "UPLATA", RawReference: "HR68 1449-12345678901", Amount: amount("150"), Type: models.TxnOutflow, Category: models.CategoryTaxPayment},
		{ID: "o2", Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), Description: "PRIREZ", Amount: amount("20"), Type: models.TxnOutflow, Category: models.CategoryTaxPayment},
		{ID: "o3", Date: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), Description: "HEP", Amount: amount("80"), Type: models.TxnOutflow, Category: models.CategoryBusinessExpense},
	}
}

// ledgerStore serves ledger2025 filtered by type like the repository does
func ledgerStore() *MockTransactionStore {
	return &MockTransactionStore{
		ListFunc: func(_ context.Context, q models.TransactionQuery) (models.TransactionPage, error) {
			var out []models.Transaction
			for _, tx := range ledger2025() {
				if q.Type != "" && tx.Type != q.Type {
					continue
				}
				if !q.Start.IsZero() && tx.Date.Before(q.Start) {
					continue
				}
				if !q.End.IsZero() && tx.Date.After(q.End) {
					continue
				}
				out = append(out, tx)
			}
			return models.TransactionPage{Data: out, Total: int64(len(out))}, nil
		},
	}
}
