package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// compareOp identifies a comparison encoded as a string prefix in a when
// clause value, e.g. ">80" or "<=50".
type compareOp int

const (
	opEquals compareOp = iota
	opGreater
	opLess
	opGreaterOrEqual
	opLessOrEqual
)

// clause is one field requirement inside a when predicate.
type clause struct {
	field     string
	op        compareOp
	threshold float64 // comparison operators only
	equals    any     // opEquals only
}

// Condition is a compiled when predicate. All clauses are AND-ed; when Or
// alternatives are present the condition matches if any alternative matches
// and the clauses are ignored, mirroring the rule vocabulary where "or"
// replaces the other keys.
//
// A nil *Condition always matches.
type Condition struct {
	or      []*Condition
	clauses []clause
}

// CompileWhen parses a when predicate into a Condition. String values with
// a comparison-operator prefix are parsed once here so malformed rule
// configuration fails at load, not per evaluation. A nil spec compiles to a
// nil Condition (always matches).
func CompileWhen(spec map[string]any) (*Condition, error) {
	if spec == nil {
		return nil, nil
	}

	cond := &Condition{}

	if orRaw, ok := spec["or"]; ok {
		alternatives, ok := orRaw.([]any)
		if !ok {
			return nil, &ConditionError{Field: "or", Value: fmt.Sprintf("%v", orRaw), Message: "expected a list of nested conditions"}
		}
		if len(alternatives) == 0 {
			return nil, &ConditionError{Field: "or", Value: "[]", Message: "or list must not be empty"}
		}
		for _, alt := range alternatives {
			nested, ok := toStringKeyMap(alt)
			if !ok {
				return nil, &ConditionError{Field: "or", Value: fmt.Sprintf("%v", alt), Message: "expected a nested condition mapping"}
			}
			sub, err := CompileWhen(nested)
			if err != nil {
				return nil, err
			}
			cond.or = append(cond.or, sub)
		}
		return cond, nil
	}

	for field, value := range spec {
		s, isString := value.(string)
		if !isString {
			cond.clauses = append(cond.clauses, clause{field: field, op: opEquals, equals: value})
			continue
		}

		op, rest, found := splitComparison(s)
		if !found {
			cond.clauses = append(cond.clauses, clause{field: field, op: opEquals, equals: s})
			continue
		}

		threshold, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return nil, &ConditionError{Field: field, Value: s, Message: "comparison threshold is not numeric"}
		}
		cond.clauses = append(cond.clauses, clause{field: field, op: op, threshold: threshold})
	}

	return cond, nil
}

// splitComparison recognizes a comparison-operator prefix. Two-character
// operators are tested first so ">=" is never read as ">" followed by "=".
func splitComparison(s string) (compareOp, string, bool) {
	switch {
	case strings.HasPrefix(s, ">="):
		return opGreaterOrEqual, s[2:], true
	case strings.HasPrefix(s, "<="):
		return opLessOrEqual, s[2:], true
	case strings.HasPrefix(s, ">"):
		return opGreater, s[1:], true
	case strings.HasPrefix(s, "<"):
		return opLess, s[1:], true
	default:
		return opEquals, s, false
	}
}

// Matches evaluates the condition against a context.
func (c *Condition) Matches(ctx Context) bool {
	if c == nil {
		return true
	}

	if len(c.or) > 0 {
		for _, alt := range c.or {
			if alt.Matches(ctx) {
				return true
			}
		}
		return false
	}

	for _, cl := range c.clauses {
		if !cl.matches(ctx) {
			return false
		}
	}
	return true
}

func (cl clause) matches(ctx Context) bool {
	value, present := ctx[cl.field]

	if cl.op == opEquals {
		return present && equalValues(value, cl.equals)
	}

	// Comparison against a non-numeric context value is no match, not an
	// error.
	n, ok := toFloat(value)
	if !ok {
		return false
	}
	switch cl.op {
	case opGreater:
		return n > cl.threshold
	case opLess:
		return n < cl.threshold
	case opGreaterOrEqual:
		return n >= cl.threshold
	case opLessOrEqual:
		return n <= cl.threshold
	default:
		return false
	}
}

// Selector is a compiled assembly selector. Selectors are deliberately
// simpler than when predicates: equality and array membership only, no
// comparison operators and no or-groups. An empty selector matches every
// context (wildcard assembly).
type Selector struct {
	fields map[string]any
}

// CompileSelector wraps a raw selector mapping.
func CompileSelector(spec map[string]any) Selector {
	return Selector{fields: spec}
}

// Matches evaluates the selector against a context. Array-valued fields
// require the context value to be a member of the array; everything else is
// exact equality.
func (s Selector) Matches(ctx Context) bool {
	for field, want := range s.fields {
		value, present := ctx[field]
		if !present {
			return false
		}

		if members, ok := want.([]any); ok {
			found := false
			for _, m := range members {
				if equalValues(value, m) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}

		if !equalValues(value, want) {
			return false
		}
	}
	return true
}

// equalValues compares a context value with a configured value. Numbers are
// compared numerically so a YAML integer matches a computed float.
func equalValues(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

// toStringKeyMap normalizes the mapping types YAML decoders produce.
func toStringKeyMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}
