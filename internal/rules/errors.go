package rules

import "fmt"

// ExpressionError indicates an expression failed to compile or evaluate.
// It carries the original expression source for diagnostics.
type ExpressionError struct {
	Expression string
	Cause      error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression evaluation failed: %q: %v", e.Expression, e.Cause)
}

func (e *ExpressionError) Unwrap() error {
	return e.Cause
}

// NewExpressionError creates a new expression error.
func NewExpressionError(expression string, cause error) *ExpressionError {
	return &ExpressionError{
		Expression: expression,
		Cause:      cause,
	}
}

// HelperError indicates a helper computation failed. Helper failures are
// fatal to the whole evaluation because they leave the context incomplete;
// they indicate a broken rule set, not bad user input.
type HelperError struct {
	HelperID string
	Field    string
	Cause    error
}

func (e *HelperError) Error() string {
	return fmt.Sprintf("failed to evaluate helper %s (field %s): %v", e.HelperID, e.Field, e.Cause)
}

func (e *HelperError) Unwrap() error {
	return e.Cause
}

// NewHelperError creates a new helper computation error.
func NewHelperError(helperID, field string, cause error) *HelperError {
	return &HelperError{
		HelperID: helperID,
		Field:    field,
		Cause:    cause,
	}
}

// ConditionError indicates a malformed when predicate in the rule
// configuration, detected at compile time.
type ConditionError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("invalid condition on field %s: %q: %s", e.Field, e.Value, e.Message)
}
