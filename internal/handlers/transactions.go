package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/pausal-api/internal/logger"
	"github.com/ashmitsharp/pausal-api/internal/metrics"
	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/utils"
)

const (
	dateLayout   = "2006-01-02"
	defaultLimit = 50
	maxLimit     = 500
)

// TransactionStore is the persistence the transaction handlers need
type TransactionStore interface {
	List(ctx context.Context, q models.TransactionQuery) (models.TransactionPage, error)
	ApplyReview(ctx context.Context, items []models.UpdateItem) (int, error)
}

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	store TransactionStore
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(store TransactionStore) *TransactionHandler {
	return &TransactionHandler{store: store}
}

// GetTransactions returns transactions with optional filtering
// GET /v1/transactions?start_date=2025-01-01&end_date=2025-12-31&type=inflow&page=1&limit=50&search=
func (h *TransactionHandler) GetTransactions(c fiber.Ctx) error {
	// 1. Parse query parameters
	q, err := parseTransactionQuery(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	// 2. Query transactions
	page, err := h.store.List(c.Context(), q)
	if err != nil {
		log := logger.FromContext(c.Context())
		log.Error().Err(err).Msg("failed to list transactions")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to fetch transactions")
	}

	// 3. Return response
	return utils.PageResponse(c, page.Data, page.Total)
}

func parseTransactionQuery(c fiber.Ctx) (models.TransactionQuery, error) {
	q := models.TransactionQuery{
		Type:   models.TxnType(c.Query("type")),
		Search: c.Query("search"),
		Page:   1,
		Limit:  defaultLimit,
	}

	switch q.Type {
	case "", models.TxnInflow, models.TxnOutflow:
	default:
		return q, fmt.Errorf("type must be inflow or outflow")
	}

	if s := c.Query("start_date"); s != "" {
		start, err := time.Parse(dateLayout, s)
		if err != nil {
			return q, fmt.Errorf("start_date must be YYYY-MM-DD")
		}
		q.Start = start
	}
	if s := c.Query("end_date"); s != "" {
		end, err := time.Parse(dateLayout, s)
		if err != nil {
			return q, fmt.Errorf("end_date must be YYYY-MM-DD")
		}
		q.End = end
	}

	if s := c.Query("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return q, fmt.Errorf("page must be a positive integer")
		}
		q.Page = page
	}
	if s := c.Query("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit == 0 || limit < -1 || limit > maxLimit {
			return q, fmt.Errorf("limit must be -1 or between 1 and %d", maxLimit)
		}
		q.Limit = limit
	}
	return q, nil
}

// ReviewTransactions applies a review batch in one database transaction.
// Unchanged values are not rewritten so the same batch can be sent again safely.
// POST /v1/transactions/review
func (h *TransactionHandler) ReviewTransactions(c fiber.Ctx) error {
	// 1. Parse request body
	var req models.ReviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body")
	}

	// 2. Validate items
	for i, item := range req.Items {
		if item.ID == "" {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, fmt.Sprintf("items[%d]: id is required", i))
		}
		if item.TaxType != nil && !item.TaxType.Valid() {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, fmt.Sprintf("items[%d]: unknown tax_type %q", i, *item.TaxType))
		}
	}

	// 3. Apply
	updated, err := h.store.ApplyReview(c.Context(), req.Items)
	if err != nil {
		log := logger.FromContext(c.Context())
		log.Error().Err(err).Int("items", len(req.Items)).Msg("failed to apply review")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to apply review")
	}
	metrics.AddReviewItemsApplied(updated)

	return c.JSON(models.ReviewResponse{
		Status:  "success",
		Updated: updated,
	})
}
