package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/pausal-api/internal/client"
	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/services"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr bool
	}{
		{name: "outflow", opts: options{mode: services.ReviewOutflow, acceptHeuristics: true}},
		{name: "inflow", opts: options{mode: services.ReviewInflow, exclude: []string{"i1"}, note: "pozajmica"}},
		{name: "outputs with services", opts: options{mode: services.ReviewOutflow, xmlOut: "f.xml", qrOut: "f.png", servicesURL: "http://gen"}},
		{name: "unknown mode", opts: options{mode: "sideways"}, wantErr: true},
		{name: "exclude in outflow", opts: options{mode: services.ReviewOutflow, exclude: []string{"i1"}}, wantErr: true},
		{name: "note in outflow", opts: options{mode: services.ReviewOutflow, note: "x"}, wantErr: true},
		{name: "heuristics in inflow", opts: options{mode: services.ReviewInflow, acceptHeuristics: true}, wantErr: true},
		{name: "note without exclude", opts: options{mode: services.ReviewInflow, note: "x"}, wantErr: true},
		{name: "xml without services", opts: options{mode: services.ReviewOutflow, xmlOut: "f.xml"}, wantErr: true},
		{name: "qr without services", opts: options{mode: services.ReviewOutflow, qrOut: "f.png"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"i1", "i2"}, splitIDs(" i1, ,i2,"))
	assert.Nil(t, splitIDs(""))
}

// newServers starts the pausal API, which serves payment orders, and a separate
// generator service. Neither serves the other's routes.
func newServers(t *testing.T, owed bool) (api, generator *client.Client) {
	t.Helper()
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/posd/payment-order" {
			http.NotFound(w, r)
			return
		}
		if !owed {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"iban":"HR1210010051863000160","amount":"105.40","payment_reference":"HR68 1449-12345678901"}`))
	}))
	t.Cleanup(apiSrv.Close)

	png := base64.StdEncoding.EncodeToString([]byte("PNG"))
	genSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/posd/xml":
			_, _ = w.Write([]byte("<PO-SD/>"))
		case "/utils/generate-payment-code":
			_, _ = w.Write([]byte(`{"qr_code":"data:image/png;base64,` + png + `"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(genSrv.Close)

	return client.New(apiSrv.URL+"/v1", 5*time.Second), client.New(genSrv.URL, 5*time.Second)
}

func TestWritePOSDForm_UsesGenerator(t *testing.T) {
	api, generator := newServers(t, true)
	path := filepath.Join(t.TempDir(), "posd.xml")

	require.NoError(t, writePOSDForm(context.Background(), generator, models.POSDStats{Year: 2025}, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<PO-SD/>", string(data))

	// the API does not render forms
	assert.Error(t, writePOSDForm(context.Background(), api, models.POSDStats{Year: 2025}, path))
}

func TestWritePaymentCode(t *testing.T) {
	api, generator := newServers(t, true)
	path := filepath.Join(t.TempDir(), "qr.png")

	order, err := writePaymentCode(context.Background(), api, generator, 2025, path)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "105.40", order.Amount.StringFixed(2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(data))
}

func TestWritePaymentCode_NothingOwed(t *testing.T) {
	api, generator := newServers(t, false)
	path := filepath.Join(t.TempDir(), "qr.png")

	order, err := writePaymentCode(context.Background(), api, generator, 2025, path)
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.NoFileExists(t, path)
}
