package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/services"
	"github.com/ashmitsharp/pausal-api/internal/utils"
)

// storeAdapter lets a review session read from and write to the database directly
type storeAdapter struct {
	store TransactionStore
}

func (a storeAdapter) ListTransactions(ctx context.Context, q models.TransactionQuery) (models.TransactionPage, error) {
	return a.store.List(ctx, q)
}

func (a storeAdapter) SubmitReview(ctx context.Context, items []models.UpdateItem) error {
	_, err := a.store.ApplyReview(ctx, items)
	return err
}

// SummaryHandler serves the read-only view of a review window
type SummaryHandler struct {
	store       TransactionStore
	categorizer *services.Categorizer
	now         func() time.Time
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(store TransactionStore, categorizer *services.Categorizer) *SummaryHandler {
	return &SummaryHandler{
		store:       store,
		categorizer: categorizer,
		now:         time.Now,
	}
}

// SummaryResponse is returned by GET /v1/summary
type SummaryResponse struct {
	Mode     services.ReviewMode  `json:"mode"`
	Year     int                  `json:"year"`
	FromDate string               `json:"from_date"`
	ToDate   string               `json:"to_date"`
	Stats    services.ReviewStats `json:"stats"`
	Rows     []services.ReviewRow `json:"rows"`
}

// GetSummary returns the effective classification of every transaction in a review
// window together with per-category sums, as the review screens show them before
// any edit.
// GET /v1/summary?year=2025&mode=outflow
func (h *SummaryHandler) GetSummary(c fiber.Ctx) error {
	// 1. Parse query parameters
	mode := services.ReviewMode(c.Query("mode", string(services.ReviewOutflow)))
	if mode != services.ReviewOutflow && mode != services.ReviewInflow {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "mode must be inflow or outflow")
	}

	year := h.now().Year()
	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 2100 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "year must be between 2000 and 2100")
		}
		year = y
	}

	// 2. Load the review window
	session := services.NewReviewSession(storeAdapter{store: h.store}, h.categorizer, mode, year)
	if err := session.Load(c.Context()); err != nil {
		return utils.ErrorHandler(c, err)
	}

	// 3. Return response
	start, end := services.ReviewWindow(mode, year)
	return c.JSON(SummaryResponse{
		Mode:     mode,
		Year:     year,
		FromDate: start.Format(dateLayout),
		ToDate:   end.Format(dateLayout),
		Stats:    session.Stats(),
		Rows:     session.Rows(),
	})
}
