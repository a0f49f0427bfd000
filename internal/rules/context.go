package rules

// Context is the open key/value mapping expressions and predicates evaluate
// against. It starts as the quote input's fields and grows as helpers write
// derived fields; once a helper writes a key, later helpers and validations
// may read it.
type Context map[string]any

// Clone returns a shallow copy of the context.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// String returns the context value for key as a string, or "" if the key is
// absent or holds a non-string value.
func (c Context) String(key string) string {
	if s, ok := c[key].(string); ok {
		return s
	}
	return ""
}

// Float returns the context value for key as a float64. The second return
// is false when the key is absent or holds a non-numeric value.
func (c Context) Float(key string) (float64, bool) {
	return toFloat(c[key])
}

// toFloat converts the numeric types the expression engine and YAML decoder
// produce into a float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
