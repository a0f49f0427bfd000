// Package rules implements the declarative rule evaluator at the core of
// crossquote: helper computation, validation, connection/material filtering
// and assembly-to-BOM matching over an open evaluation context.
package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/crossquote-dev/crossquote/internal/config"
)

// Engine evaluates a compiled rule set against quote inputs. All expressions
// and predicates are compiled once at construction; Evaluate shares no
// mutable state between calls and is safe for concurrent use.
type Engine struct {
	version     string
	helpers     []compiledHelper
	connections []compiledOptionRule
	materials   []compiledOptionRule
	validations []compiledValidation
	assemblies  []compiledAssembly
}

type compiledHelper struct {
	id     string
	fields []compiledField
}

type compiledField struct {
	name    string
	program *Program
}

type compiledOptionRule struct {
	id      string
	when    *Condition
	allow   []string
	exclude []string
	reason  string
}

type compiledValidation struct {
	id      string
	level   string
	message string
	program *Program
}

type compiledAssembly struct {
	id          string
	description string
	selector    Selector
	lines       []compiledLine
}

type compiledLine struct {
	product     string
	unit        string
	description string
	qty         *Program
}

// NewEngine compiles a rule set and assembly templates into an evaluation
// engine. Malformed expressions or predicates fail here, at load time.
func NewEngine(rs *config.RuleSet, assemblies []config.Assembly) (*Engine, error) {
	e := &Engine{version: rs.Version}

	for _, h := range rs.Helpers {
		ch := compiledHelper{id: h.ID}

		// Field order within a helper is not semantically significant,
		// but sorting keeps evaluation and error reporting stable.
		names := make([]string, 0, len(h.Compute))
		for name := range h.Compute {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			program, err := CompileExpression(h.Compute[name])
			if err != nil {
				return nil, fmt.Errorf("helper %s, field %s: %w", h.ID, name, err)
			}
			ch.fields = append(ch.fields, compiledField{name: name, program: program})
		}
		e.helpers = append(e.helpers, ch)
	}

	var err error
	if e.connections, err = compileOptionRules("connection rule", rs.Connections); err != nil {
		return nil, err
	}
	if e.materials, err = compileOptionRules("material rule", rs.Materials); err != nil {
		return nil, err
	}

	for _, v := range rs.Validations {
		program, err := CompileExpression(v.Assert)
		if err != nil {
			return nil, fmt.Errorf("validation %s: %w", v.ID, err)
		}
		e.validations = append(e.validations, compiledValidation{
			id:      v.ID,
			level:   v.EffectiveLevel(),
			message: v.Message,
			program: program,
		})
	}

	for _, a := range assemblies {
		ca := compiledAssembly{
			id:          a.ID,
			description: a.Description,
			selector:    CompileSelector(a.Selector),
		}
		for i, line := range a.Lines {
			qty, err := CompileExpression(line.Qty)
			if err != nil {
				return nil, fmt.Errorf("assembly %s, line %d: %w", a.ID, i, err)
			}
			ca.lines = append(ca.lines, compiledLine{
				product:     line.Product,
				unit:        line.Unit,
				description: line.Description,
				qty:         qty,
			})
		}
		e.assemblies = append(e.assemblies, ca)
	}

	return e, nil
}

// Version returns the rule-set version the engine was compiled from.
func (e *Engine) Version() string {
	return e.version
}

// Evaluate runs the five-stage pipeline over one input: helpers,
// validations, connection filtering, material filtering, BOM generation.
//
// A helper failure aborts the whole evaluation with a HelperError; it means
// the rule set itself is broken. Validation and assembly-line failures
// degrade into reported results and explanations instead.
func (e *Engine) Evaluate(input QuoteInput) (*Result, error) {
	ctx := input.Context()

	if err := e.evaluateHelpers(ctx); err != nil {
		return nil, err
	}

	validations := e.runValidations(ctx)
	valid := true
	for _, v := range validations {
		if v.Level == config.LevelError && !v.Passed {
			valid = false
		}
	}

	bom, explanations := e.generateBOM(ctx)

	return &Result{
		Valid:          valid,
		Context:        ctx,
		Validations:    validations,
		Connections:    e.filterConnections(ctx),
		Materials:      e.filterMaterials(ctx),
		BOM:            bom,
		Explanations:   explanations,
		RuleSetVersion: e.version,
		ComputedAt:     time.Now().UTC(),
	}, nil
}

// evaluateHelpers computes derived fields into the context, helper by
// helper in declared order so later helpers can read earlier outputs.
func (e *Engine) evaluateHelpers(ctx Context) error {
	for _, h := range e.helpers {
		for _, f := range h.fields {
			value, err := f.program.Eval(ctx)
			if err != nil {
				return NewHelperError(h.id, f.name, err)
			}
			ctx[f.name] = value
		}
	}
	return nil
}

// runValidations evaluates every validation against the final context.
// An evaluation failure is not fatal: it becomes a failed error-level
// result flagging the internal failure.
func (e *Engine) runValidations(ctx Context) []ValidationResult {
	results := make([]ValidationResult, 0, len(e.validations))

	for _, v := range e.validations {
		passed, err := v.program.EvalBool(ctx)
		if err != nil {
			results = append(results, ValidationResult{
				ID:      v.id,
				Level:   config.LevelError,
				Message: fmt.Sprintf("Validation error: %s", v.message),
				Passed:  false,
			})
			continue
		}
		results = append(results, ValidationResult{
			ID:      v.id,
			Level:   v.level,
			Message: v.message,
			Passed:  passed,
		})
	}

	return results
}

// filterConnections applies the connection rules over the known connection
// codes. Connections have no default-allow: with no matching allow rules,
// every code is unavailable.
func (e *Engine) filterConnections(ctx Context) []ConnectionAvailability {
	allowed, reasons := applyOptionRules(e.connections, ctx, false, nil)

	out := make([]ConnectionAvailability, 0, len(ConnectionCodes))
	for _, code := range ConnectionCodes {
		ca := ConnectionAvailability{Code: code, Available: allowed[code]}
		if !ca.Available {
			ca.Reason = reasons[code]
			if ca.Reason == "" {
				ca.Reason = "Not available for this configuration"
			}
		}
		out = append(out, ca)
	}
	return out
}

// filterMaterials applies the material rules over the known material codes.
// Unlike connections, zero matching rules means no restriction: all
// materials are compatible.
func (e *Engine) filterMaterials(ctx Context) []MaterialCompatibility {
	allowed, reasons := applyOptionRules(e.materials, ctx, true, MaterialCodes)

	out := make([]MaterialCompatibility, 0, len(MaterialCodes))
	for _, code := range MaterialCodes {
		mc := MaterialCompatibility{Code: code, Compatible: allowed[code]}
		if !mc.Compatible {
			mc.Reason = reasons[code]
			if mc.Reason == "" {
				mc.Reason = "Not compatible with selected connection"
			}
		}
		out = append(out, mc)
	}
	return out
}

// applyOptionRules unions allow and exclude sets across matching rules,
// then removes every excluded code: exclusion wins regardless of rule
// order. When defaultAllow is set and no rule touched either set, all
// codes are allowed.
func applyOptionRules(rules []compiledOptionRule, ctx Context, defaultAllow bool, allCodes []string) (map[string]bool, map[string]string) {
	allowed := make(map[string]bool)
	excluded := make(map[string]bool)
	reasons := make(map[string]string)

	for _, r := range rules {
		if !r.when.Matches(ctx) {
			continue
		}
		for _, code := range r.allow {
			allowed[code] = true
		}
		for _, code := range r.exclude {
			excluded[code] = true
			if r.reason != "" {
				reasons[code] = r.reason
			}
		}
	}

	if defaultAllow && len(allowed) == 0 && len(excluded) == 0 {
		for _, code := range allCodes {
			allowed[code] = true
		}
		return allowed, reasons
	}

	for code := range excluded {
		delete(allowed, code)
	}
	return allowed, reasons
}

// generateBOM matches assemblies against the context and expands matching
// lines. Assembly order, then line order, determines output order. A line
// whose quantity evaluates non-positive is silently dropped; a line whose
// quantity fails to evaluate is reported in the explanations and skipped.
func (e *Engine) generateBOM(ctx Context) ([]BOMLine, []string) {
	var bom []BOMLine
	var explanations []string

	for _, a := range e.assemblies {
		if a.id == config.MetadataAssemblyID || len(a.lines) == 0 {
			continue
		}
		if !a.selector.Matches(ctx) {
			continue
		}

		explanations = append(explanations, fmt.Sprintf("Assembly %s matched: %s", a.id, a.description))

		for _, line := range a.lines {
			qty, err := line.qty.EvalFloat(ctx)
			if err != nil {
				explanations = append(explanations, fmt.Sprintf("Error in %s: %v", a.id, err))
				continue
			}
			if qty <= 0 {
				continue
			}

			product := SubstituteTokens(line.product, ctx)
			bom = append(bom, BOMLine{
				Product:     product,
				Name:        product, // resolved later from the product catalog
				Qty:         qty,
				Unit:        line.unit,
				Description: line.description,
			})
		}
	}

	return bom, explanations
}

func compileOptionRules(kind string, specs []config.OptionRule) ([]compiledOptionRule, error) {
	out := make([]compiledOptionRule, 0, len(specs))
	for _, spec := range specs {
		when, err := CompileWhen(spec.When)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", kind, spec.ID, err)
		}
		out = append(out, compiledOptionRule{
			id:      spec.ID,
			when:    when,
			allow:   spec.Allow,
			exclude: spec.Exclude,
			reason:  spec.Reason,
		})
	}
	return out, nil
}
