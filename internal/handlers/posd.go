package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/pausal-api/internal/logger"
	"github.com/ashmitsharp/pausal-api/internal/metrics"
	"github.com/ashmitsharp/pausal-api/internal/middleware"
	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/services"
	"github.com/ashmitsharp/pausal-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportStorage stores generated ledgers and hands out download links
type ExportStorage interface {
	GenerateExportKey(ownerID string, year int) (string, error)
	UploadFile(ctx context.Context, key, contentType string, body io.Reader) error
	GeneratePresignedURL(ctx context.Context, key string, expiryMinutes int) (string, error)
}

// POSDHandler serves the annual PO-SD figures
type POSDHandler struct {
	store     TransactionStore
	calc      *services.POSDCalculator
	exporter  *services.LedgerExporter
	storage   ExportStorage
	profile   models.Profile
	payee     services.Payee
	exportTTL int
	now       func() time.Time
}

// NewPOSDHandler creates a PO-SD handler. A nil storage streams exports directly
// instead of uploading them.
func NewPOSDHandler(
	store TransactionStore,
	calc *services.POSDCalculator,
	exporter *services.LedgerExporter,
	storage ExportStorage,
	profile models.Profile,
	payee services.Payee,
	exportTTL int,
) *POSDHandler {
	return &POSDHandler{
		store:     store,
		calc:      calc,
		exporter:  exporter,
		storage:   storage,
		profile:   profile,
		payee:     payee,
		exportTTL: exportTTL,
		now:       time.Now,
	}
}

func (h *POSDHandler) parseYear(c fiber.Ctx) (int, error) {
	s := c.Query("year")
	if s == "" {
		return h.now().Year(), nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 2000 || year > 2100 {
		return 0, fmt.Errorf("year must be between 2000 and 2100")
	}
	return year, nil
}

// loadYear reads every transaction that can affect the PO-SD of year, including
// outflows in the January grace period of the following year.
func (h *POSDHandler) loadYear(ctx context.Context, year int) ([]models.Transaction, error) {
	start, _ := services.ReviewWindow(services.ReviewInflow, year)
	_, end := services.ReviewWindow(services.ReviewOutflow, year)

	page, err := h.store.List(ctx, models.TransactionQuery{Start: start, End: end, Page: 1, Limit: -1})
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (h *POSDHandler) compute(c fiber.Ctx) (models.POSDStats, []models.Transaction, error) {
	year, err := h.parseYear(c)
	if err != nil {
		return models.POSDStats{}, nil, utils.NewBadRequestError(err.Error(), nil)
	}

	txs, err := h.loadYear(c.Context(), year)
	if err != nil {
		return models.POSDStats{}, nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	stats, err := h.calc.Compute(txs, year, h.profile)
	if err != nil {
		return models.POSDStats{}, nil, err
	}
	return stats, txs, nil
}

// GetStats returns receipts, paid taxes, the bracket and the reconciliation for a year
// GET /v1/posd-stats?year=2025
func (h *POSDHandler) GetStats(c fiber.Ctx) error {
	stats, _, err := h.compute(c)
	if err != nil {
		return utils.ErrorHandler(c, err)
	}

	metrics.IncPOSDStats(string(stats.Reconciliation.Status))
	return c.JSON(stats)
}

// GetPaymentOrder returns the payment order for an outstanding difference, or 204
// when nothing is owed
// GET /v1/posd/payment-order?year=2025
func (h *POSDHandler) GetPaymentOrder(c fiber.Ctx) error {
	stats, _, err := h.compute(c)
	if err != nil {
		return utils.ErrorHandler(c, err)
	}

	order := services.PaymentOrderFor(stats.Reconciliation, h.profile, h.payee, stats.Year)
	if order == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(order)
}

// Export builds the ledger workbook. With storage configured it is uploaded and a
// presigned link is returned, otherwise the file is sent directly.
// GET /v1/posd/export?year=2025
func (h *POSDHandler) Export(c fiber.Ctx) error {
	start := time.Now()
	log := logger.FromContext(c.Context())

	// 1. Compute the figures behind the ledger
	stats, txs, err := h.compute(c)
	if err != nil {
		return utils.ErrorHandler(c, err)
	}

	// 2. Render the workbook
	buf, err := h.exporter.Build(stats, txs)
	if err != nil {
		metrics.ObserveExport(metrics.ResultError, time.Since(start))
		log.Error().Err(err).Int("year", stats.Year).Msg("failed to build ledger")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to build ledger")
	}

	filename := fmt.Sprintf("PO-SD_%d_ledger.xlsx", stats.Year)
	if h.storage == nil {
		metrics.ObserveExport(metrics.ResultSuccess, time.Since(start))
		return utils.AttachmentResponse(c, filename, xlsxContentType, buf.Bytes())
	}

	// 3. Upload and sign
	key, err := h.storage.GenerateExportKey(middleware.UserID(c), stats.Year)
	if err != nil {
		metrics.ObserveExport(metrics.ResultError, time.Since(start))
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to generate export key")
	}
	if err := h.storage.UploadFile(c.Context(), key, xlsxContentType, bytes.NewReader(buf.Bytes())); err != nil {
		metrics.ObserveExport(metrics.ResultError, time.Since(start))
		log.Error().Err(err).Str("key", key).Msg("failed to upload ledger")
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "failed to upload ledger")
	}
	url, err := h.storage.GeneratePresignedURL(c.Context(), key, h.exportTTL)
	if err != nil {
		metrics.ObserveExport(metrics.ResultError, time.Since(start))
		log.Error().Err(err).Str("key", key).Msg("failed to sign ledger url")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to generate download url")
	}

	metrics.ObserveExport(metrics.ResultSuccess, time.Since(start))
	log.Info().Str("key", key).Int("year", stats.Year).Msg("ledger exported")

	return c.JSON(fiber.Map{
		"download_url": url,
		"file_key":     key,
		"filename":     filename,
		"expires_in":   h.exportTTL * 60,
	})
}
