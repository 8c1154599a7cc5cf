package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/pausal-api/internal/logger"
	"github.com/ashmitsharp/pausal-api/internal/services"
)

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewBadRequestError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		Details:    details,
	}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "An internal error occurred",
		Details:    err.Error(), // Only in development
	}
}

// FromError maps domain errors to their HTTP representation
func FromError(err error) *APIError {
	var (
		apiErr    *APIError
		validErr  *services.ValidationError
		configErr *services.ConfigurationError
		commitErr *services.CommitFailure
		fiberErr  *fiber.Error
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &validErr):
		return NewBadRequestError(validErr.Error(), fiber.Map{"field": validErr.Field})
	case errors.As(err, &configErr):
		return &APIError{
			StatusCode: fiber.StatusInternalServerError,
			Code:       "CONFIGURATION_ERROR",
			Message:    configErr.Error(),
		}
	case errors.As(err, &commitErr):
		return &APIError{
			StatusCode: fiber.StatusBadGateway,
			Code:       "COMMIT_FAILED",
			Message:    commitErr.Error(),
			Details:    fiber.Map{"items": commitErr.Items},
		}
	case errors.Is(err, services.ErrCommitInProgress):
		return &APIError{
			StatusCode: fiber.StatusConflict,
			Code:       "COMMIT_IN_PROGRESS",
			Message:    err.Error(),
		}
	case errors.As(err, &fiberErr):
		return &APIError{
			StatusCode: fiberErr.Code,
			Code:       "HTTP_ERROR",
			Message:    fiberErr.Message,
		}
	}
	return NewInternalError(err)
}

// ErrorHandler is a middleware to handle APIError
func ErrorHandler(c fiber.Ctx, err error) error {
	apiErr := FromError(err)
	if apiErr.StatusCode >= fiber.StatusInternalServerError {
		log := logger.FromContext(c.Context())
		log.Error().Err(err).Str("code", apiErr.Code).Msg("request failed")
	}

	return c.Status(apiErr.StatusCode).JSON(apiErr)
}
