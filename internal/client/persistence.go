package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/gofiber/fiber/v3"
	fiberclient "github.com/gofiber/fiber/v3/client"
)

const dateLayout = "2006-01-02"

// ServiceError is returned for any non-2xx response of the persistence service
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("persistence service returned %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Client talks to the persistence service. It satisfies services.ReviewStore.
type Client struct {
	http  *fiberclient.Client
	token string
}

// New creates a client for the service at baseURL, e.g. http://localhost:8080/v1
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: fiberclient.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout),
	}
}

// WithToken returns a copy of the client that sends a bearer token on every request
func (c *Client) WithToken(token string) *Client {
	return &Client{http: c.http, token: token}
}

func (c *Client) config(ctx context.Context, body any, params map[string]string) fiberclient.Config {
	cfg := fiberclient.Config{
		Ctx:    ctx,
		Header: map[string]string{"Accept": "application/json"},
		Param:  params,
		Body:   body,
	}
	if c.token != "" {
		cfg.Header["Authorization"] = "Bearer " + c.token
	}
	return cfg
}

// ListTransactions fetches one page of transactions. Limit -1 returns every match.
func (c *Client) ListTransactions(ctx context.Context, q models.TransactionQuery) (models.TransactionPage, error) {
	params := map[string]string{
		"type":  string(q.Type),
		"page":  strconv.Itoa(q.Page),
		"limit": strconv.Itoa(q.Limit),
	}
	if !q.Start.IsZero() {
		params["start_date"] = q.Start.Format(dateLayout)
	}
	if !q.End.IsZero() {
		params["end_date"] = q.End.Format(dateLayout)
	}
	if q.Search != "" {
		params["search"] = q.Search
	}

	var page models.TransactionPage
	resp, err := c.http.Get("/transactions", c.config(ctx, nil, params))
	if err := decode(resp, err, &page); err != nil {
		return models.TransactionPage{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	return page, nil
}

// SubmitReview sends a review batch in a single request
func (c *Client) SubmitReview(ctx context.Context, items []models.UpdateItem) error {
	resp, err := c.http.Post("/transactions/review", c.config(ctx, models.ReviewRequest{Items: items}, nil))
	if err := decode(resp, err, nil); err != nil {
		return fmt.Errorf("failed to submit review: %w", err)
	}
	return nil
}

// POSDStats fetches the annual PO-SD figures
func (c *Client) POSDStats(ctx context.Context, year int) (models.POSDStats, error) {
	var stats models.POSDStats
	resp, err := c.http.Get("/posd-stats", c.config(ctx, nil, map[string]string{"year": strconv.Itoa(year)}))
	if err := decode(resp, err, &stats); err != nil {
		return models.POSDStats{}, fmt.Errorf("failed to fetch posd stats: %w", err)
	}
	return stats, nil
}

// PaymentOrder fetches the payment order for the year's outstanding difference.
// It returns nil when nothing is owed.
func (c *Client) PaymentOrder(ctx context.Context, year int) (*models.PaymentCodeRequest, error) {
	resp, err := c.http.Get("/posd/payment-order", c.config(ctx, nil, map[string]string{"year": strconv.Itoa(year)}))
	if err == nil && resp.StatusCode() == fiber.StatusNoContent {
		resp.Close()
		return nil, nil
	}

	var order models.PaymentCodeRequest
	if err := decode(resp, err, &order); err != nil {
		return nil, fmt.Errorf("failed to fetch payment order: %w", err)
	}
	return &order, nil
}

// GeneratePOSDXML asks the service to render the PO-SD form. The file is returned as is.
func (c *Client) GeneratePOSDXML(ctx context.Context, stats models.POSDStats) ([]byte, error) {
	resp, err := c.http.Post("/posd/xml", c.config(ctx, stats, nil))
	data, err := raw(resp, err)
	if err != nil {
		return nil, fmt.Errorf("failed to generate posd xml: %w", err)
	}
	return data, nil
}

// CreateInvoice stores an invoice; the returned totals are the server's
func (c *Client) CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest) (models.Invoice, error) {
	var inv models.Invoice
	resp, err := c.http.Post("/invoices", c.config(ctx, req, nil))
	if err := decode(resp, err, &inv); err != nil {
		return models.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
	}
	return inv, nil
}

// InvoicePDF downloads the rendered invoice
func (c *Client) InvoicePDF(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.http.Get("/invoices/"+url.PathEscape(id)+"/pdf", c.config(ctx, nil, nil))
	data, err := raw(resp, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoice pdf: %w", err)
	}
	return data, nil
}

// GeneratePaymentCode requests a payment QR code for a payment order
func (c *Client) GeneratePaymentCode(ctx context.Context, req models.PaymentCodeRequest) (models.PaymentCodeResponse, error) {
	var out models.PaymentCodeResponse
	resp, err := c.http.Post("/utils/generate-payment-code", c.config(ctx, req, nil))
	if err := decode(resp, err, &out); err != nil {
		return models.PaymentCodeResponse{}, fmt.Errorf("failed to generate payment code: %w", err)
	}
	return out, nil
}

func decode(resp *fiberclient.Response, err error, out any) error {
	if err != nil {
		return err
	}
	defer resp.Close()

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return &ServiceError{StatusCode: code, Body: string(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func raw(resp *fiberclient.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &ServiceError{StatusCode: code, Body: string(resp.Body())}
	}
	return append([]byte(nil), resp.Body()...), nil
}
