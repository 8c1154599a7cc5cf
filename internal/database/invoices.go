package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// InvoiceRepository stores issued invoices
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a repository over the pool
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// Create inserts the invoice and fills in its creation time
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	query := `
		INSERT INTO invoices (id, invoice_number, issue_date, due_date, currency, payment_method, notes,
			client, items, subtotal, tax_total, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		inv.ID,
		inv.Number,
		inv.IssueDate,
		inv.DueDate,
		inv.Currency,
		inv.PaymentMethod,
		inv.Notes,
		inv.Client,
		inv.Items,
		inv.Totals.Subtotal,
		inv.Totals.TaxTotal,
		inv.Totals.GrandTotal,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

// Get returns the invoice with the given id or ErrNotFound
func (r *InvoiceRepository) Get(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	query := `
		SELECT id, invoice_number, issue_date, due_date, currency, payment_method, notes,
			client, items, subtotal, tax_total, total, created_at
		FROM invoices
		WHERE id = $1`

	var inv models.Invoice
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&inv.ID,
		&inv.Number,
		&inv.IssueDate,
		&inv.DueDate,
		&inv.Currency,
		&inv.PaymentMethod,
		&inv.Notes,
		&inv.Client,
		&inv.Items,
		&inv.Totals.Subtotal,
		&inv.Totals.TaxTotal,
		&inv.Totals.GrandTotal,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Invoice{}, ErrNotFound
		}
		return models.Invoice{}, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}
