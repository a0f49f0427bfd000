// Package quote composes the rules engine and pricing resolver into the
// quote computation pipeline and binds each result to a deterministic
// compute hash.
package quote

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crossquote-dev/crossquote/internal/config"
	"github.com/crossquote-dev/crossquote/internal/pricing"
	"github.com/crossquote-dev/crossquote/internal/rules"
)

// Result is the terminal artifact of one quote computation. It is
// constructed fresh on every Compute call and never mutated after return.
type Result struct {
	Valid          bool                 `json:"valid" yaml:"valid"`
	Errors         []string             `json:"errors" yaml:"errors"`
	Warnings       []string             `json:"warnings" yaml:"warnings"`
	BOM            []pricing.PricedLine `json:"bom" yaml:"bom"`
	Subtotal       float64              `json:"subtotal" yaml:"subtotal"`
	Tax            float64              `json:"tax" yaml:"tax"`
	Total          float64              `json:"total" yaml:"total"`
	ComputeHash    string               `json:"compute_hash" yaml:"compute_hash"`
	RuleSetVersion string               `json:"rule_set_version" yaml:"rule_set_version"`
	PriceListID    string               `json:"price_list_id" yaml:"price_list_id"`
	Metadata       Metadata             `json:"metadata" yaml:"metadata"`
}

// Metadata records when and from what a result was computed.
type Metadata struct {
	QuoteID       string           `json:"quote_id" yaml:"quote_id"`
	ComputedAt    time.Time        `json:"computed_at" yaml:"computed_at"`
	InputSnapshot rules.QuoteInput `json:"input_snapshot" yaml:"input_snapshot"`
}

// Engine is the quote orchestrator. All configuration is compiled or frozen
// at construction; Compute calls are independent and safe to run
// concurrently.
type Engine struct {
	rules      *rules.Engine
	pricing    *pricing.Resolver
	customerID string
	orgID      string
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCustomer sets the customer a computed quote is priced for, enabling
// customer-specific price lists.
func WithCustomer(customerID string) Option {
	return func(e *Engine) { e.customerID = customerID }
}

// WithOrg sets the organisation a computed quote is priced for.
func WithOrg(orgID string) Option {
	return func(e *Engine) { e.orgID = orgID }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine compiles the rule set and wires the pricing resolver into a
// quote engine.
func NewEngine(rs *config.RuleSet, assemblies []config.Assembly, resolver *pricing.Resolver, opts ...Option) (*Engine, error) {
	compiled, err := rules.NewEngine(rs, assemblies)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule set: %w", err)
	}

	e := &Engine{
		rules:   compiled,
		pricing: resolver,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Compute produces a complete quote for one input. The only error return is
// a configuration-level failure (broken rule set); validation failures and
// pricing misses are data on the result, not errors.
func (e *Engine) Compute(input rules.QuoteInput, taxRate float64) (*Result, error) {
	rulesResult, err := e.rules.Evaluate(input)
	if err != nil {
		return nil, err
	}

	errors := rulesResult.Errors()
	warnings := rulesResult.Warnings()

	// Enrich before pricing so renamed products still price by code.
	enriched := e.pricing.EnrichBOM(rulesResult.BOM)

	pricingResult := e.pricing.ResolvePricing(enriched, pricing.Context{
		CustomerID: e.customerID,
		OrgID:      e.orgID,
		Currency:   input.Currency,
		QuoteDate:  e.now(),
	}, taxRate)

	if len(pricingResult.MissingPrices) > 0 {
		errors = append(errors, fmt.Sprintf(
			"Missing prices for products: %s",
			strings.Join(pricingResult.MissingPrices, ", ")))
	}

	hash, err := ComputeHash(input, e.rules.Version(), pricingResult.PriceListID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}

	if errors == nil {
		errors = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}

	return &Result{
		Valid:          len(errors) == 0 && rulesResult.Valid,
		Errors:         errors,
		Warnings:       warnings,
		BOM:            pricingResult.BOM,
		Subtotal:       pricingResult.Totals.Subtotal,
		Tax:            pricingResult.Totals.Tax,
		Total:          pricingResult.Totals.Total,
		ComputeHash:    hash,
		RuleSetVersion: e.rules.Version(),
		PriceListID:    pricingResult.PriceListID,
		Metadata: Metadata{
			QuoteID:       uuid.NewString(),
			ComputedAt:    e.now().UTC(),
			InputSnapshot: input,
		},
	}, nil
}

// Rules exposes the compiled rules engine, for callers that need option
// filtering or validation without pricing.
func (e *Engine) Rules() *rules.Engine {
	return e.rules
}
