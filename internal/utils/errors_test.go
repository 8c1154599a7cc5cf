package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/pausal-api/internal/services"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("item 0: %w", &services.ValidationError{Field: "tax_pct", Value: "125", Reason: "must be between 0 and 100"}),
			wantStatus: fiber.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "configuration",
			err:        fmt.Errorf("failed to reconcile: %w", &services.ConfigurationError{Reason: "bracket table is empty"}),
			wantStatus: fiber.StatusInternalServerError,
			wantCode:   "CONFIGURATION_ERROR",
		},
		{
			name:       "commit failure",
			err:        &services.CommitFailure{Items: 3, Err: errors.New("timeout")},
			wantStatus: fiber.StatusBadGateway,
			wantCode:   "COMMIT_FAILED",
		},
		{
			name:       "commit in progress",
			err:        services.ErrCommitInProgress,
			wantStatus: fiber.StatusConflict,
			wantCode:   "COMMIT_IN_PROGRESS",
		},
		{
			name:       "api error passes through",
			err:        NewNotFoundError("invoice"),
			wantStatus: fiber.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "fiber error",
			err:        fiber.ErrMethodNotAllowed,
			wantStatus: fiber.StatusMethodNotAllowed,
			wantCode:   "HTTP_ERROR",
		},
		{
			name:       "anything else",
			err:        errors.New("boom"),
			wantStatus: fiber.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/fail", func(c fiber.Ctx) error {
		return &services.ValidationError{Field: "quantity", Value: "-1", Reason: "must not be negative"}
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "BAD_REQUEST", body.Code)
	assert.Contains(t, body.Message, "quantity")
}
