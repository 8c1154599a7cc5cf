package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ashmitsharp/pausal-api/internal/models"
)

// ReviewMode selects which classification question a review answers
type ReviewMode string

const (
	// ReviewOutflow decides whether a payment was income tax, surtax or neither
	ReviewOutflow ReviewMode = "outflow"
	// ReviewInflow decides whether a receipt counts towards PO-SD receipts
	ReviewInflow ReviewMode = "inflow"
)

// Category is the effective classification of a transaction
type Category string

const (
	CategoryTax      Category = "tax"
	CategorySurtax   Category = "surtax"
	CategoryNone     Category = "none"
	CategoryExcluded Category = "excluded"
	CategoryIncluded Category = "included"
)

// Source names the precedence tier that decided a classification
type Source string

const (
	SourcePending   Source = "pending"
	SourceStored    Source = "stored"
	SourceHeuristic Source = "heuristic"
)

// Rule fields
const (
	FieldDescription = "description"
	FieldReference   = "reference"
)

// Rule represents a heuristic classification rule
type Rule struct {
	Keyword   string         `json:"keyword"`
	Field     string         `json:"field"`      // description or reference
	MatchType string         `json:"match_type"` // substring, exact, regex
	TaxType   models.TaxType `json:"tax_type"`
	Priority  int32          `json:"priority"`
}

// DefaultOutflowRules recognise income-tax and surtax remittances. Model HR68 with
// call number prefix 1449 is the income-tax payment reference.
var DefaultOutflowRules = []Rule{
	{Keyword: "HR68 1449", Field: FieldReference, MatchType: "substring", TaxType: models.TaxTypeTax, Priority: 30},
	{Keyword: "PRIREZ", Field: FieldDescription, MatchType: "substring", TaxType: models.TaxTypeSurtax, Priority: 20},
	{Keyword: "POREZ NA DOHODAK", Field: FieldDescription, MatchType: "substring", TaxType: models.TaxTypeTax, Priority: 10},
}

// DefaultRefundHints mark inflows that may be refunds rather than business receipts
var DefaultRefundHints = []string{"povrat", "refund"}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Categorizer resolves the effective classification of transactions. It is safe for
// concurrent use; it holds no mutable state after construction.
type Categorizer struct {
	rules       []compiledRule
	refundHints []string
}

// NewCategorizer compiles the given outflow rules and refund hints.
// Rules are tried in descending priority; the first match wins.
func NewCategorizer(rules []Rule, refundHints []string) (*Categorizer, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if !r.TaxType.Valid() || r.TaxType == models.TaxTypeNone {
			return nil, fmt.Errorf("rule %q: unknown tax type %q", r.Keyword, r.TaxType)
		}
		cr := compiledRule{Rule: r}
		switch r.MatchType {
		case "regex":
			re, err := regexp.Compile(r.Keyword)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Keyword, err)
			}
			cr.re = re
		case "exact", "substring", "":
			cr.Keyword = strings.ToUpper(r.Keyword)
		default:
			return nil, fmt.Errorf("rule %q: unknown match type %q", r.Keyword, r.MatchType)
		}
		compiled = append(compiled, cr)
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	hints := make([]string, 0, len(refundHints))
	for _, h := range refundHints {
		hints = append(hints, strings.ToLower(h))
	}

	return &Categorizer{rules: compiled, refundHints: hints}, nil
}

// NewDefaultCategorizer returns a categorizer with the built-in rules
func NewDefaultCategorizer() *Categorizer {
	c, err := NewCategorizer(DefaultOutflowRules, DefaultRefundHints)
	if err != nil {
		panic(err)
	}
	return c
}

// Rules returns the heuristic rules in the order they are tried
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r.Rule)
	}
	return out
}

// MatchRule returns the first rule matching an outflow, or nil
func (c *Categorizer) MatchRule(tx models.Transaction) *Rule {
	if tx.Type != models.TxnOutflow {
		return nil
	}
	desc := strings.ToUpper(strings.TrimSpace(tx.Description))
	ref := strings.ToUpper(strings.TrimSpace(tx.RawReference))

	for _, rule := range c.rules {
		text := desc
		if rule.Field == FieldReference {
			text = ref
		}
		if matchRule(text, rule) {
			r := rule.Rule
			return &r
		}
	}
	return nil
}

// HeuristicTaxType infers the tax type of an outflow from its reference and description
func (c *Categorizer) HeuristicTaxType(tx models.Transaction) models.TaxType {
	if rule := c.MatchRule(tx); rule != nil {
		return rule.TaxType
	}
	return models.TaxTypeNone
}

// RefundHint reports whether an inflow description looks like a refund.
// The hint is advisory and never changes the effective classification.
func (c *Categorizer) RefundHint(tx models.Transaction) bool {
	if tx.Type != models.TxnInflow {
		return false
	}
	desc := strings.ToLower(tx.Description)
	for _, h := range c.refundHints {
		if strings.Contains(desc, h) {
			return true
		}
	}
	return false
}

// EffectiveTaxType resolves the tax type of an outflow: a pending edit that sets the
// field wins, then a non-empty stored value, then the heuristic.
func (c *Categorizer) EffectiveTaxType(tx models.Transaction, pending *models.PendingEdit) (models.TaxType, Source) {
	if pending != nil && pending.TaxType != nil {
		return *pending.TaxType, SourcePending
	}
	if tx.TaxType != models.TaxTypeNone {
		return tx.TaxType, SourceStored
	}
	return c.HeuristicTaxType(tx), SourceHeuristic
}

// EffectiveExcluded resolves whether an inflow is excluded from PO-SD receipts.
// Nothing is excluded automatically, so the stored flag always decides when no
// pending edit sets it.
func (c *Categorizer) EffectiveExcluded(tx models.Transaction, pending *models.PendingEdit) (bool, Source) {
	if pending != nil && pending.IsExcluded != nil {
		return *pending.IsExcluded, SourcePending
	}
	return tx.IsExcludedFromPOSD, SourceStored
}

// EffectiveNote resolves the PO-SD note shown for an inflow
func (c *Categorizer) EffectiveNote(tx models.Transaction, pending *models.PendingEdit) string {
	if pending != nil && pending.Note != nil {
		return *pending.Note
	}
	return tx.Note()
}

// EffectiveCategory resolves the category of tx in the given review mode
func (c *Categorizer) EffectiveCategory(mode ReviewMode, tx models.Transaction, pending *models.PendingEdit) (Category, Source) {
	if mode == ReviewInflow {
		excluded, src := c.EffectiveExcluded(tx, pending)
		if excluded {
			return CategoryExcluded, src
		}
		return CategoryIncluded, src
	}

	taxType, src := c.EffectiveTaxType(tx, pending)
	switch taxType {
	case models.TaxTypeTax:
		return CategoryTax, src
	case models.TaxTypeSurtax:
		return CategorySurtax, src
	default:
		return CategoryNone, src
	}
}

// matchRule checks if text matches a rule based on its match type
func matchRule(text string, rule compiledRule) bool {
	switch rule.MatchType {
	case "exact":
		return text == rule.Keyword
	case "regex":
		return rule.re.MatchString(text)
	default:
		return strings.Contains(text, rule.Keyword)
	}
}
