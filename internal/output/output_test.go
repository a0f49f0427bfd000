package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossquote-dev/crossquote/internal/pricing"
	"github.com/crossquote-dev/crossquote/internal/quote"
	"github.com/crossquote-dev/crossquote/internal/rules"
)

func sampleResult() *quote.Result {
	return &quote.Result{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{"Crossing angle below 30 degrees needs engineering review"},
		BOM: []pricing.PricedLine{
			{
				BOMLine: rules.BOMLine{
					Product: "FP TC LO",
					Name:    "Field panel TC lock fastening",
					Qty:     4,
					Unit:    "each",
				},
				UnitPrice: 620.55,
				LineTotal: 2482.20,
			},
		},
		Subtotal:       2482.20,
		Tax:            0,
		Total:          2482.20,
		ComputeHash:    "abc123",
		RuleSetVersion: "2.3.0",
		PriceListID:    "default",
		Metadata: quote.Metadata{
			QuoteID:    "11111111-2222-3333-4444-555555555555",
			ComputedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
			InputSnapshot: rules.QuoteInput{
				ProjectName: "Mill Road crossing",
				Currency:    "EUR",
			},
		},
	}
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := NewJSONFormatter(&buf, false)
	require.NoError(t, formatter.Format(sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["valid"])
	assert.Equal(t, "2.3.0", decoded["rule_set_version"])
	assert.Equal(t, "abc123", decoded["compute_hash"])
}

func TestJSONFormatter_Indented(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := NewJSONFormatter(&buf, true)
	require.NoError(t, formatter.Format(sampleResult()))

	assert.Contains(t, buf.String(), "\n  \"valid\": true")
}

func TestYAMLFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := NewYAMLFormatter(&buf)
	require.NoError(t, formatter.Format(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "valid: true")
	assert.Contains(t, out, "product: FP TC LO")
	assert.Contains(t, out, "price_list_id: default")
}

func TestTableFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatter := NewTableFormatter(&buf)
	require.NoError(t, formatter.Format(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "✓ VALID")
	assert.Contains(t, out, "Mill Road crossing")
	assert.Contains(t, out, "FP TC LO")
	assert.Contains(t, out, "engineering review")
	assert.Contains(t, out, "Hash: abc123")
	assert.True(t, strings.Contains(out, "2482.20"))
}

func TestTableFormatter_EmptyBOM(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	result.BOM = nil
	result.Valid = false
	result.Errors = []string{"Design length must be at least 1.8 m"}

	var buf bytes.Buffer
	formatter := NewTableFormatter(&buf)
	require.NoError(t, formatter.Format(result))

	out := buf.String()
	assert.Contains(t, out, "✗ INVALID")
	assert.Contains(t, out, "Design length must be at least 1.8 m")
	assert.Contains(t, out, "No bill of materials generated.")
}
