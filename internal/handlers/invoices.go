package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/ashmitsharp/pausal-api/internal/database"
	"github.com/ashmitsharp/pausal-api/internal/logger"
	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/services"
	"github.com/ashmitsharp/pausal-api/internal/utils"
)

// Totals are stored and returned in whole cents
const centPlaces = 2

// InvoiceStore persists invoices
type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, id uuid.UUID) (models.Invoice, error)
}

// InvoiceHandler handles invoice requests
type InvoiceHandler struct {
	store InvoiceStore
	now   func() time.Time
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(store InvoiceStore) *InvoiceHandler {
	return &InvoiceHandler{store: store, now: time.Now}
}

// TotalsRequest is the body of POST /v1/invoices/totals
type TotalsRequest struct {
	Items []models.InvoiceLineItem `json:"items"`
}

// PreviewTotals computes the totals of a draft without storing anything
// POST /v1/invoices/totals
func (h *InvoiceHandler) PreviewTotals(c fiber.Ctx) error {
	var req TotalsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body")
	}

	totals, err := services.ComputeTotals(req.Items)
	if err != nil {
		return utils.ErrorHandler(c, err)
	}
	return c.JSON(totals.Round(centPlaces))
}

// CreateInvoice stores an invoice with server computed totals
// POST /v1/invoices
func (h *InvoiceHandler) CreateInvoice(c fiber.Ctx) error {
	log := logger.FromContext(c.Context())

	// 1. Parse request body
	var req models.CreateInvoiceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid request body")
	}

	// 2. Validate
	if req.Number == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invoice_number is required")
	}
	if len(req.Items) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "at least one item is required")
	}
	if req.Client.Name == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "client name is required")
	}

	// 3. Compute totals; client totals are only compared
	totals, err := services.ComputeTotals(req.Items)
	if err != nil {
		return utils.ErrorHandler(c, err)
	}
	totals = totals.Round(centPlaces)
	if req.Totals != nil && !req.Totals.GrandTotal.Round(centPlaces).Equal(totals.GrandTotal) {
		log.Warn().
			Str("client_total", req.Totals.GrandTotal.String()).
			Str("server_total", totals.GrandTotal.String()).
			Msg("client invoice total differs, using server total")
	}

	// 4. Fill defaults
	inv := models.Invoice{
		ID:            uuid.New(),
		Number:        req.Number,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Client:        req.Client,
		Items:         req.Items,
		Totals:        totals,
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = h.now().UTC().Truncate(24 * time.Hour)
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.IssueDate
	}
	if inv.DueDate.Before(inv.IssueDate) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "due_date must not be before issue_date")
	}
	if inv.Currency == "" {
		inv.Currency = "EUR"
	}
	for i := range inv.Items {
		if inv.Items[i].ID == 0 {
			inv.Items[i].ID = i + 1
		}
	}

	// 5. Store
	if err := h.store.Create(c.Context(), &inv); err != nil {
		log.Error().Err(err).Str("invoice_number", inv.Number).Msg("failed to create invoice")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to create invoice")
	}

	return c.Status(fiber.StatusCreated).JSON(inv)
}

// GetInvoice returns a stored invoice
// GET /v1/invoices/:id
func (h *InvoiceHandler) GetInvoice(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "invalid invoice ID")
	}

	inv, err := h.store.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "invoice not found")
		}
		log := logger.FromContext(c.Context())
		log.Error().Err(err).Str("invoice_id", id.String()).Msg("failed to get invoice")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to fetch invoice")
	}
	return c.JSON(inv)
}
