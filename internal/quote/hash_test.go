package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossquote-dev/crossquote/internal/rules"
)

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	t.Parallel()

	a, err := CanonicalJSON(map[string]any{"b": 1, "a": map[string]any{"z": 1, "y": 2}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"y":2,"z":1},"b":1}`, string(a))
}

func TestCanonicalJSON_StructAndMapAgree(t *testing.T) {
	t.Parallel()

	type pair struct {
		B int `json:"b"`
		A int `json:"a"`
	}

	fromStruct, err := CanonicalJSON(pair{B: 1, A: 2})
	require.NoError(t, err)
	fromMap, err := CanonicalJSON(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)

	assert.Equal(t, string(fromMap), string(fromStruct))
}

func TestComputeHash_Deterministic(t *testing.T) {
	t.Parallel()

	input := rules.QuoteInput{ProjectName: "Mill Road crossing", DesignLen: 3.6, Tracks: 1}

	h1, err := ComputeHash(input, "1.0.0", "default")
	require.NoError(t, err)
	h2, err := ComputeHash(input, "1.0.0", "default")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex-encoded SHA-256
}

func TestComputeHash_SensitiveToInput(t *testing.T) {
	t.Parallel()

	base := rules.QuoteInput{ProjectName: "Mill Road crossing", DesignLen: 3.6}
	changed := base
	changed.DesignLen = 5.4

	h1, err := ComputeHash(base, "1.0.0", "default")
	require.NoError(t, err)
	h2, err := ComputeHash(changed, "1.0.0", "default")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestComputeHash_SensitiveToVersionAndPriceList(t *testing.T) {
	t.Parallel()

	input := rules.QuoteInput{ProjectName: "Mill Road crossing", DesignLen: 3.6}

	h1, err := ComputeHash(input, "1.0.0", "default")
	require.NoError(t, err)
	h2, err := ComputeHash(input, "1.0.1", "default")
	require.NoError(t, err)
	h3, err := ComputeHash(input, "1.0.0", "cust-1-2026")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}
