package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ services.ReviewStore = (*Client)(nil)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/v1", 5*time.Second)
}

func TestClient_ListTransactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/transactions", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "outflow", q.Get("type"))
		assert.Equal(t, "-1", q.Get("limit"))
		assert.Equal(t, "2025-01-01", q.Get("start_date"))
		assert.Equal(t, "2026-01-15", q.Get("end_date"))
		assert.Empty(t, q.Get("search"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"t1","date":"2025-03-03T00:00:00Z","description":"PRIREZ","amount":"20.50","type":"outflow","category":"tax_payment","is_excluded_from_posd":false}],"total":1}`))
	})

	page, err := c.ListTransactions(context.Background(), models.TransactionQuery{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Type:  models.TxnOutflow,
		Page:  1,
		Limit: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "t1", page.Data[0].ID)
	assert.True(t, page.Data[0].Amount.Equal(decimal.RequireFromString("20.50")))
	assert.Equal(t, models.TaxTypeNone, page.Data[0].TaxType)
}

func TestClient_SubmitReview(t *testing.T) {
	var got models.ReviewRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transactions/review", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","updated":1}`))
	}).WithToken("secret")

	none := models.TaxTypeNone
	err := c.SubmitReview(context.Background(), []models.UpdateItem{{ID: "t1", TaxType: &none}})
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].TaxType, "explicit clear must be sent")
	assert.Equal(t, models.TaxTypeNone, *got.Items[0].TaxType)
	assert.Nil(t, got.Items[0].IsExcluded)
}

func TestClient_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
	})

	err := c.SubmitReview(context.Background(), []models.UpdateItem{{ID: "t1"}})
	var serr *ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
	assert.Contains(t, serr.Body, "database unavailable")

	_, err = c.POSDStats(context.Background(), 2025)
	assert.ErrorAs(t, err, &serr)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	_, err := c.ListTransactions(context.Background(), models.TransactionQuery{Type: models.TxnInflow, Limit: -1})
	require.Error(t, err)
	var serr *ServiceError
	assert.False(t, errors.As(err, &serr))
}

func TestClient_POSDStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/posd-stats", r.URL.Path)
		assert.Equal(t, "2025", r.URL.Query().Get("year"))
		_, _ = w.Write([]byte(`{"oib":"12345678901","name":"Obrt","address":"Ilica 1","year":2025,"total_receipts":"12000","tax_paid":"150","surtax_paid":"20","tax_bracket":"2","base_tax_liability":"275.40","all_brackets":[]}`))
	})

	stats, err := c.POSDStats(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", stats.OIB)
	assert.True(t, stats.BaseTaxLiability.Equal(decimal.RequireFromString("275.40")))
}

func TestClient_PaymentOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/posd/payment-order", r.URL.Path)
		if r.URL.Query().Get("year") == "2024" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"iban":"HR1210010051863000160","amount":"105.40","payment_reference":"HR68 1449-12345678901"}`))
	})

	order, err := c.PaymentOrder(context.Background(), 2025)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "HR68 1449-12345678901", order.PaymentReference)
	assert.True(t, order.Amount.Equal(decimal.RequireFromString("105.4")))

	order, err = c.PaymentOrder(context.Background(), 2024)
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestClient_Files(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/posd/xml":
			assert.Equal(t, http.MethodPost, r.Method)
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte("<ObrazacPOSD/>"))
		case "/v1/invoices/abc/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	xml, err := c.GeneratePOSDXML(context.Background(), models.POSDStats{Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "<ObrazacPOSD/>", string(xml))

	pdf, err := c.InvoicePDF(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(pdf))

	_, err = c.InvoicePDF(context.Background(), "missing")
	var serr *ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
}

func TestClient_CreateInvoiceAndPaymentCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/invoices":
			var req models.CreateInvoiceRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Len(t, req.Items, 1)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"6f1c9b1e-3c1a-4c55-9a43-2f1f1f6f0c11","invoice_number":"1-1-1","items":[],"totals":{"subtotal":"700","tax_total":"175","total":"875"}}`))
		case "/v1/utils/generate-payment-code":
			var req models.PaymentCodeRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "HR68 1449-12345678901", req.PaymentReference)
			_, _ = w.Write([]byte(`{"qr_code":"aGVsbG8="}`))
		}
	})

	inv, err := c.CreateInvoice(context.Background(), models.CreateInvoiceRequest{
		Number: "1-1-1",
		Items: []models.InvoiceLineItem{{
			Quantity:  decimal.NewFromInt(10),
			UnitPrice: decimal.NewFromInt(70),
			TaxPct:    decimal.NewFromInt(25),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1-1-1", inv.Number)
	assert.Equal(t, "875.00", inv.Totals.GrandTotal.StringFixed(2))

	code, err := c.GeneratePaymentCode(context.Background(), models.PaymentCodeRequest{
		IBAN:             "HR1210010051863000160",
		Amount:           decimal.RequireFromString("60.41"),
		PaymentReference: "HR68 1449-12345678901",
	})
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", code.QRCode)
}
