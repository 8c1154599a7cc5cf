package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/pausal-api/internal/models"
	"github.com/ashmitsharp/pausal-api/internal/services"
	"github.com/ashmitsharp/pausal-api/internal/utils"
)

// RulesHandler exposes the heuristic tax classification rules
type RulesHandler struct {
	categorizer *services.Categorizer
}

// NewRulesHandler creates a new rules handler instance
func NewRulesHandler(categorizer *services.Categorizer) *RulesHandler {
	return &RulesHandler{categorizer: categorizer}
}

// MatchResponse is returned by GET /v1/rules/match
type MatchResponse struct {
	TaxType models.TaxType `json:"tax_type"`
	Rule    *services.Rule `json:"rule,omitempty"`
}

// GetRules returns the heuristic rules in the order they are tried
// GET /v1/rules
func (h *RulesHandler) GetRules(c fiber.Ctx) error {
	rules := h.categorizer.Rules()
	return c.JSON(fiber.Map{
		"rules": rules,
		"count": len(rules),
	})
}

// MatchRule shows how an outflow with the given description and reference would be
// classified when nothing is stored for it
// GET /v1/rules/match?description=PRIREZ&reference=HR68 1449-12345678901
func (h *RulesHandler) MatchRule(c fiber.Ctx) error {
	description := c.Query("description")
	reference := c.Query("reference")
	if description == "" && reference == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "description or reference is required")
	}

	rule := h.categorizer.MatchRule(models.Transaction{
		Description:  description,
		RawReference: reference,
		Type:         models.TxnOutflow,
	})
	if rule == nil {
		return c.JSON(MatchResponse{TaxType: models.TaxTypeNone})
	}
	return c.JSON(MatchResponse{TaxType: rule.TaxType, Rule: rule})
}
