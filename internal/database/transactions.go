package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `id, date, description, raw_reference, amount, type, category,
	tax_type, is_excluded_from_posd, posd_note, source_file`

// TransactionRepository reads and reviews bank transactions
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a repository over the pool
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// List returns the transactions matching q together with the total match count.
// A limit of -1 returns every match.
func (r *TransactionRepository) List(ctx context.Context, q models.TransactionQuery) (models.TransactionPage, error) {
	where, args := listFilter(q)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions"+where, args...).Scan(&total); err != nil {
		return models.TransactionPage{}, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := "SELECT " + transactionColumns + " FROM transactions" + where + " ORDER BY date DESC, id"
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		args = append(args, q.Limit, (page-1)*q.Limit)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return models.TransactionPage{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	data := make([]models.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return models.TransactionPage{}, err
		}
		data = append(data, tx)
	}
	if err := rows.Err(); err != nil {
		return models.TransactionPage{}, fmt.Errorf("failed to read transactions: %w", err)
	}

	return models.TransactionPage{Data: data, Total: total}, nil
}

func listFilter(q models.TransactionQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !q.Start.IsZero() {
		add("date >= $%d", q.Start)
	}
	if !q.End.IsZero() {
		add("date <= $%d", q.End)
	}
	if q.Type != "" {
		add("type = $%d", string(q.Type))
	}
	if q.Search != "" {
		add("(description ILIKE $%d OR raw_reference ILIKE $%[1]d)", "%"+q.Search+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var (
		tx                         models.Transaction
		txType                     string
		reference, taxType, source *string
	)
	err := row.Scan(
		&tx.ID,
		&tx.Date,
		&tx.Description,
		&reference,
		&tx.Amount,
		&txType,
		&tx.Category,
		&taxType,
		&tx.IsExcludedFromPOSD,
		&tx.POSDNote,
		&source,
	)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Type = models.TxnType(txType)
	if reference != nil {
		tx.RawReference = *reference
	}
	if taxType != nil {
		tx.TaxType = models.TaxType(*taxType)
	}
	if source != nil {
		tx.SourceFile = *source
	}
	return tx, nil
}

// Upsert stores transactions, replacing the bank-sourced columns of existing ids.
// Review columns are left untouched on conflict.
func (r *TransactionRepository) Upsert(ctx context.Context, txs []models.Transaction) error {
	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(`
			INSERT INTO transactions (id, date, description, raw_reference, amount, type, category, source_file)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''))
			ON CONFLICT (id) DO UPDATE SET
				date = EXCLUDED.date,
				description = EXCLUDED.description,
				raw_reference = EXCLUDED.raw_reference,
				amount = EXCLUDED.amount,
				type = EXCLUDED.type,
				category = EXCLUDED.category,
				source_file = EXCLUDED.source_file,
				updated_at = now()`,
			tx.ID, tx.Date, tx.Description, tx.RawReference, tx.Amount, string(tx.Type), tx.Category, tx.SourceFile,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store transactions: %w", err)
	}
	return nil
}

const applyReviewSQL = `
	UPDATE transactions SET
		tax_type = CASE WHEN $2::boolean THEN NULLIF($3::text, '') ELSE tax_type END,
		is_excluded_from_posd = CASE WHEN $4::boolean THEN $5::boolean ELSE is_excluded_from_posd END,
		posd_note = CASE WHEN $6::boolean THEN $7::text ELSE posd_note END,
		updated_at = now()
	WHERE id = $1 AND (
		($2::boolean AND tax_type IS DISTINCT FROM NULLIF($3::text, '')) OR
		($4::boolean AND is_excluded_from_posd IS DISTINCT FROM $5::boolean) OR
		($6::boolean AND posd_note IS DISTINCT FROM $7::text)
	)`

// ApplyReview writes a review batch in one database transaction. Rows are only
// touched when a value actually changes, so resending a batch is a no-op.
// It returns the number of rows changed.
func (r *TransactionRepository) ApplyReview(ctx context.Context, items []models.UpdateItem) (int, error) {
	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin review: %w", err)
	}
	defer dbTx.Rollback(ctx)

	updated := 0
	for _, item := range items {
		var (
			taxType  string
			excluded bool
			note     string
		)
		if item.TaxType != nil {
			taxType = string(*item.TaxType)
		}
		if item.IsExcluded != nil {
			excluded = *item.IsExcluded
		}
		if item.Note != nil {
			note = *item.Note
		}

		tag, err := dbTx.Exec(ctx, applyReviewSQL,
			item.ID,
			item.TaxType != nil, taxType,
			item.IsExcluded != nil, excluded,
			item.Note != nil, note,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to review transaction %s: %w", item.ID, err)
		}
		updated += int(tag.RowsAffected())
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit review: %w", err)
	}
	return updated, nil
}
