package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashmitsharp/pausal-api/internal/logger"
	"github.com/ashmitsharp/pausal-api/internal/metrics"
	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/shopspring/decimal"
)

// ReviewStore is the persistence service as seen by a review session
type ReviewStore interface {
	ListTransactions(ctx context.Context, q models.TransactionQuery) (models.TransactionPage, error)
	SubmitReview(ctx context.Context, items []models.UpdateItem) error
}

// ReviewRow is the effective view of one transaction
type ReviewRow struct {
	Transaction models.Transaction `json:"transaction"`
	Category    Category           `json:"category"`
	Source      Source             `json:"source"`
	Note        string             `json:"note,omitempty"`
	RefundHint  bool               `json:"refund_hint,omitempty"`
	Pending     bool               `json:"pending"`
}

// ReviewStats are sums of amounts by effective category
type ReviewStats struct {
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Tax      decimal.Decimal `json:"tax"`
	Surtax   decimal.Decimal `json:"surtax"`
	Excluded decimal.Decimal `json:"excluded"`
	Included decimal.Decimal `json:"included"`
}

// Reasons for a StaleReadWarning
const (
	// ReasonDataChanged: the record's description or reference changed upstream
	ReasonDataChanged = "data_changed"
	// ReasonClearReverted: an explicit "not a tax payment" was committed, but an empty
	// stored tax type is no override, so the heuristic classifies the record again
	ReasonClearReverted = "clear_reverted"
)

// StaleReadWarning reports a record whose effective classification after a read is not
// what the user last saw. It is informational only.
type StaleReadWarning struct {
	ID     string
	Before models.TaxType
	After  models.TaxType
	Reason string
}

// ReviewWindow returns the inclusive date range reviewed for a year. Outflows extend to
// January 15 of the following year so late tax remittances are counted.
func ReviewWindow(mode ReviewMode, year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if mode == ReviewOutflow {
		return start, time.Date(year+1, time.January, 15, 0, 0, 0, 0, time.UTC)
	}
	return start, time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// InReviewWindow reports whether date falls in the review window of year
func InReviewWindow(mode ReviewMode, year int, date time.Time) bool {
	start, end := ReviewWindow(mode, year)
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(start) && !d.After(end)
}

// Aggregate sums transaction amounts by their effective category. It is recomputed on
// every call so a single pending edit is reflected immediately.
func Aggregate(c *Categorizer, mode ReviewMode, txs []models.Transaction, edits map[string]models.PendingEdit) ReviewStats {
	stats := ReviewStats{
		Total:    decimal.Zero,
		Tax:      decimal.Zero,
		Surtax:   decimal.Zero,
		Excluded: decimal.Zero,
		Included: decimal.Zero,
	}
	for _, tx := range txs {
		cat, _ := c.EffectiveCategory(mode, tx, editFor(edits, tx.ID))
		stats.Count++
		stats.Total = stats.Total.Add(tx.Amount)
		switch cat {
		case CategoryTax:
			stats.Tax = stats.Tax.Add(tx.Amount)
		case CategorySurtax:
			stats.Surtax = stats.Surtax.Add(tx.Amount)
		case CategoryExcluded:
			stats.Excluded = stats.Excluded.Add(tx.Amount)
		case CategoryIncluded:
			stats.Included = stats.Included.Add(tx.Amount)
		}
	}
	return stats
}

// BuildCommitPayload returns one fully resolved update per transaction that has a
// non-empty pending edit, in transaction order. Edits for unknown ids are dropped.
func BuildCommitPayload(mode ReviewMode, txs []models.Transaction, edits map[string]models.PendingEdit) []models.UpdateItem {
	items := make([]models.UpdateItem, 0, len(edits))
	for _, tx := range txs {
		edit, ok := edits[tx.ID]
		if !ok || edit.IsEmpty() {
			continue
		}

		item := models.UpdateItem{ID: tx.ID}
		if mode == ReviewOutflow {
			taxType := tx.TaxType
			if edit.TaxType != nil {
				taxType = *edit.TaxType
			}
			item.TaxType = &taxType
		} else {
			excluded := tx.IsExcludedFromPOSD
			if edit.IsExcluded != nil {
				excluded = *edit.IsExcluded
			}
			note := tx.Note()
			if edit.Note != nil {
				note = *edit.Note
			}
			item.IsExcluded = &excluded
			item.Note = &note
		}
		items = append(items, item)
	}
	return items
}

func editFor(edits map[string]models.PendingEdit, id string) *models.PendingEdit {
	if e, ok := edits[id]; ok {
		return &e
	}
	return nil
}

// ReviewSession owns the transactions and pending edits of one review step. Edits
// live only in memory until Commit succeeds.
type ReviewSession struct {
	store       ReviewStore
	categorizer *Categorizer
	mode        ReviewMode
	year        int

	mu           sync.Mutex
	transactions []models.Transaction
	edits        map[string]models.PendingEdit
	committing   bool
	warnings     []StaleReadWarning
}

// NewReviewSession creates an empty session; call Load before editing
func NewReviewSession(store ReviewStore, categorizer *Categorizer, mode ReviewMode, year int) *ReviewSession {
	return &ReviewSession{
		store:       store,
		categorizer: categorizer,
		mode:        mode,
		year:        year,
		edits:       make(map[string]models.PendingEdit),
	}
}

// Mode returns the review mode of the session
func (s *ReviewSession) Mode() ReviewMode { return s.mode }

// Year returns the reviewed year
func (s *ReviewSession) Year() int { return s.year }

// Query returns the listing query that backs the session
func (s *ReviewSession) Query() models.TransactionQuery {
	start, end := ReviewWindow(s.mode, s.year)
	typ := models.TxnOutflow
	if s.mode == ReviewInflow {
		typ = models.TxnInflow
	}
	return models.TransactionQuery{Start: start, End: end, Type: typ, Page: 1, Limit: -1}
}

// Load fetches the session's transactions from the store
func (s *ReviewSession) Load(ctx context.Context) error {
	_, err := s.Refresh(ctx)
	return err
}

// Refresh re-reads the transactions and reports records whose heuristic result changed
func (s *ReviewSession) Refresh(ctx context.Context) ([]StaleReadWarning, error) {
	page, err := s.store.ListTransactions(ctx, s.Query())
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var warnings []StaleReadWarning
	if s.mode == ReviewOutflow && s.transactions != nil {
		before := make(map[string]models.TaxType, len(s.transactions))
		for _, tx := range s.transactions {
			before[tx.ID] = s.categorizer.HeuristicTaxType(tx)
		}
		for _, tx := range page.Data {
			old, seen := before[tx.ID]
			if now := s.categorizer.HeuristicTaxType(tx); seen && old != now {
				warnings = append(warnings, StaleReadWarning{ID: tx.ID, Before: old, After: now, Reason: ReasonDataChanged})
			}
		}
	}

	s.transactions = page.Data
	s.warnings = warnings

	log := logger.FromContext(ctx)
	for _, w := range warnings {
		log.Info().
			Str("transaction_id", w.ID).
			Str("before", string(w.Before)).
			Str("after", string(w.After)).
			Msg("heuristic classification changed after refresh")
	}
	return warnings, nil
}

// Warnings returns the stale-read warnings of the last refresh
func (s *ReviewSession) Warnings() []StaleReadWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StaleReadWarning(nil), s.warnings...)
}

// Transactions returns a copy of the cached transactions
func (s *ReviewSession) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.transactions...)
}

// PendingEdits returns a copy of the pending edits
func (s *ReviewSession) PendingEdits() map[string]models.PendingEdit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.PendingEdit, len(s.edits))
	for id, e := range s.edits {
		out[id] = e
	}
	return out
}

// Rows returns the effective view of every cached transaction
func (s *ReviewSession) Rows() []ReviewRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]ReviewRow, 0, len(s.transactions))
	for _, tx := range s.transactions {
		pending := editFor(s.edits, tx.ID)
		cat, src := s.categorizer.EffectiveCategory(s.mode, tx, pending)
		row := ReviewRow{
			Transaction: tx,
			Category:    cat,
			Source:      src,
			Pending:     pending != nil && !pending.IsEmpty(),
		}
		if s.mode == ReviewInflow {
			row.Note = s.categorizer.EffectiveNote(tx, pending)
			row.RefundHint = s.categorizer.RefundHint(tx)
		}
		rows = append(rows, row)
	}
	return rows
}

// Stats aggregates the cached transactions by effective category
func (s *ReviewSession) Stats() ReviewStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Aggregate(s.categorizer, s.mode, s.transactions, s.edits)
}

// Payload returns the batch that Commit would send
func (s *ReviewSession) Payload() []models.UpdateItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildCommitPayload(s.mode, s.transactions, s.edits)
}

// SetTaxType records an explicit tax type for an outflow. TaxTypeNone is an explicit
// "not a tax payment" and overrides both the stored value and the heuristic.
func (s *ReviewSession) SetTaxType(id string, taxType models.TaxType) error {
	if s.mode != ReviewOutflow {
		return fmt.Errorf("tax type can only be set in an outflow review")
	}
	if !taxType.Valid() {
		return fmt.Errorf("unknown tax type %q", taxType)
	}
	return s.edit(id, func(_ models.Transaction, e *models.PendingEdit) {
		e.TaxType = &taxType
	})
}

// SetExcluded records an explicit exclusion flag for an inflow
func (s *ReviewSession) SetExcluded(id string, excluded bool) error {
	if s.mode != ReviewInflow {
		return fmt.Errorf("exclusion can only be set in an inflow review")
	}
	return s.edit(id, func(_ models.Transaction, e *models.PendingEdit) {
		e.IsExcluded = &excluded
	})
}

// ToggleExcluded flips the effective exclusion flag of an inflow
func (s *ReviewSession) ToggleExcluded(id string) error {
	if s.mode != ReviewInflow {
		return fmt.Errorf("exclusion can only be set in an inflow review")
	}
	return s.edit(id, func(tx models.Transaction, e *models.PendingEdit) {
		current, _ := s.categorizer.EffectiveExcluded(tx, e)
		flipped := !current
		e.IsExcluded = &flipped
	})
}

// SetNote records the PO-SD justification note of an inflow
func (s *ReviewSession) SetNote(id, note string) error {
	if s.mode != ReviewInflow {
		return fmt.Errorf("notes can only be set in an inflow review")
	}
	return s.edit(id, func(_ models.Transaction, e *models.PendingEdit) {
		e.Note = &note
	})
}

func (s *ReviewSession) edit(id string, apply func(models.Transaction, *models.PendingEdit)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committing {
		return ErrCommitInProgress
	}
	var (
		tx    models.Transaction
		found bool
	)
	for _, t := range s.transactions {
		if t.ID == id {
			tx, found = t, true
			break
		}
	}
	if !found {
		return fmt.Errorf("transaction %s is not part of this review", id)
	}

	e := s.edits[id]
	apply(tx, &e)
	s.edits[id] = e
	return nil
}

// Discard drops every pending edit. No request is made.
func (s *ReviewSession) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = make(map[string]models.PendingEdit)
}

// Commit sends all pending edits as one batch. On success the edits are cleared and the
// transactions are re-read; on failure a *CommitFailure is returned and every edit is
// kept so the call can be retried.
func (s *ReviewSession) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return ErrCommitInProgress
	}
	items := BuildCommitPayload(s.mode, s.transactions, s.edits)
	if len(items) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.committing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.committing = false
		s.mu.Unlock()
	}()

	log := logger.FromContext(ctx)
	start := time.Now()

	if err := s.store.SubmitReview(ctx, items); err != nil {
		metrics.ObserveReviewCommit(string(s.mode), metrics.ResultError, len(items), time.Since(start))
		log.Error().Err(err).Str("mode", string(s.mode)).Int("items", len(items)).Msg("review commit failed")
		return &CommitFailure{Items: len(items), Err: err}
	}
	metrics.ObserveReviewCommit(string(s.mode), metrics.ResultSuccess, len(items), time.Since(start))
	log.Info().Str("mode", string(s.mode)).Int("items", len(items)).Msg("review committed")

	s.mu.Lock()
	s.edits = make(map[string]models.PendingEdit)
	s.mu.Unlock()

	if _, err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("review committed but refresh failed: %w", err)
	}
	s.checkClearedOverrides(ctx, items)
	return nil
}

// checkClearedOverrides warns about committed explicit clears that the heuristic
// overrides again after the refresh
func (s *ReviewSession) checkClearedOverrides(ctx context.Context, items []models.UpdateItem) {
	if s.mode != ReviewOutflow {
		return
	}
	cleared := make(map[string]bool)
	for _, item := range items {
		if item.TaxType != nil && *item.TaxType == models.TaxTypeNone {
			cleared[item.ID] = true
		}
	}
	if len(cleared) == 0 {
		return
	}

	log := logger.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if !cleared[tx.ID] || tx.TaxType != models.TaxTypeNone {
			continue
		}
		if now := s.categorizer.HeuristicTaxType(tx); now != models.TaxTypeNone {
			s.warnings = append(s.warnings, StaleReadWarning{
				ID:     tx.ID,
				Before: models.TaxTypeNone,
				After:  now,
				Reason: ReasonClearReverted,
			})
			log.Warn().
				Str("transaction_id", tx.ID).
				Str("heuristic", string(now)).
				Msg("cleared tax type is classified by the heuristic again")
		}
	}
}
