package rules

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Program is a compiled expression ready for repeated, concurrent
// evaluation. Compilation happens once at rule-set load; evaluation shares
// no mutable state between calls.
type Program struct {
	source  string
	program *vm.Program
}

// CompileExpression compiles an expression once for later evaluation.
// The expression references context keys as free variables and may use the
// engine's builtin functions (ceil, floor, round, min, max, abs, ...).
func CompileExpression(source string) (*Program, error) {
	program, err := expr.Compile(source)
	if err != nil {
		return nil, NewExpressionError(source, err)
	}
	return &Program{source: source, program: program}, nil
}

// Source returns the original expression string.
func (p *Program) Source() string {
	return p.source
}

// Eval evaluates the program against a context. A nil result is an error:
// every rule expression must produce a value, and a bare unresolved
// variable would otherwise evaluate to nil without complaint.
func (p *Program) Eval(ctx Context) (any, error) {
	out, err := expr.Run(p.program, map[string]any(ctx))
	if err != nil {
		return nil, NewExpressionError(p.source, err)
	}
	if out == nil {
		return nil, NewExpressionError(p.source, fmt.Errorf("unresolved variable or nil result"))
	}
	return out, nil
}

// EvalBool evaluates the program and requires a boolean result.
func (p *Program) EvalBool(ctx Context) (bool, error) {
	out, err := p.Eval(ctx)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, NewExpressionError(p.source, fmt.Errorf("expected boolean result, got %T", out))
	}
	return b, nil
}

// EvalFloat evaluates the program and requires a numeric result.
func (p *Program) EvalFloat(ctx Context) (float64, error) {
	out, err := p.Eval(ctx)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(out)
	if !ok {
		return 0, NewExpressionError(p.source, fmt.Errorf("expected numeric result, got %T", out))
	}
	return f, nil
}

// Evaluate compiles and evaluates an expression in one step.
// Prefer CompileExpression for expressions evaluated repeatedly.
func Evaluate(source string, ctx Context) (any, error) {
	program, err := CompileExpression(source)
	if err != nil {
		return nil, err
	}
	return program.Eval(ctx)
}
