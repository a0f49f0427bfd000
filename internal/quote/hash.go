package quote

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/crossquote-dev/crossquote/internal/rules"
)

// CanonicalJSON marshals v with object keys sorted at every depth, so that
// equal values always produce byte-identical output. The round trip through
// an untyped value drops struct field order in favour of map ordering, which
// encoding/json emits sorted.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}

	var untyped any
	if err := json.Unmarshal(raw, &untyped); err != nil {
		return nil, fmt.Errorf("failed to canonicalize value: %w", err)
	}

	return json.Marshal(untyped)
}

// ComputeHash derives the deterministic identity of a quote computation.
// Two computations hash equal exactly when they share the same input, rule
// set version, and price list. The tax rate is deliberately not part of the
// hash; it scales totals without changing what was quoted.
func ComputeHash(input rules.QuoteInput, ruleSetVersion, priceListID string) (string, error) {
	payload := map[string]any{
		"inputs":           input,
		"rule_set_version": ruleSetVersion,
		"price_list_id":    priceListID,
	}

	canonical, err := CanonicalJSON(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
