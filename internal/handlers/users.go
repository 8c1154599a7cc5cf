package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/pausal-api/internal/middleware"
	"github.com/ashmitsharp/pausal-api/internal/models"
)

// UsersHandler reports who a request runs as
type UsersHandler struct {
	profile     models.Profile
	authEnabled bool
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(profile models.Profile, authEnabled bool) *UsersHandler {
	return &UsersHandler{profile: profile, authEnabled: authEnabled}
}

// MeResponse is returned by GET /v1/me
type MeResponse struct {
	UserID      string         `json:"user_id"`
	AuthEnabled bool           `json:"auth_enabled"`
	Profile     models.Profile `json:"profile"`
	Complete    bool           `json:"profile_complete"`
}

// GetMe returns the authenticated user and the taxpayer profile printed on the PO-SD.
// An incomplete profile still computes stats but cannot produce a payment reference.
// GET /v1/me
func (h *UsersHandler) GetMe(c fiber.Ctx) error {
	return c.JSON(MeResponse{
		UserID:      middleware.UserID(c),
		AuthEnabled: h.authEnabled,
		Profile:     h.profile,
		Complete:    h.profile.OIB != "" && h.profile.Name != "",
	})
}
