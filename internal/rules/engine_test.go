package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossquote-dev/crossquote/internal/config"
)

func testRuleSet() *config.RuleSet {
	return &config.RuleSet{
		Version: "1.0.0",
		Helpers: []config.Helper{
			{ID: "geometry", Compute: map[string]string{
				"rhr_len":          "ceil(design_len / 1.8) * 1.8",
				"panels_per_track": "ceil(design_len / 1.8) * 2",
				"joints":           "ceil(design_len / 1.8) - 1",
			}},
			{ID: "gauge", Compute: map[string]string{
				"gauge_panel_type": `gauge < 1435 ? "NGP" : (gauge > 1445 ? "WGP" : "GP")`,
			}},
		},
		Connections: []config.OptionRule{
			{ID: "base", Allow: []string{"BP", "LO", "HK", "LOL", "SF2K", "PCK"}},
			{ID: "ultra-heavy", When: map[string]any{"usage": "Ultra Heavy"},
				Exclude: []string{"LO", "PCK"}, Reason: "Not rated for ultra heavy usage"},
			{ID: "high-speed", When: map[string]any{"speed_kph": ">80"},
				Exclude: []string{"LOL", "SF2K"}, Reason: "Not rated above 80 km/h"},
		},
		Materials: []config.OptionRule{
			{ID: "bp-compounds", When: map[string]any{"connection": "BP"},
				Exclude: []string{"TC"}, Reason: "Not produced for bolted connections"},
		},
		Validations: []config.Validation{
			{ID: "min-design-length", Assert: "design_len >= 1.8",
				Message: "Design length must be at least 1.8 m"},
			{ID: "max-speed", Assert: "speed_kph <= 120",
				Message: "Speed must not exceed 120 km/h"},
			{ID: "crossing-angle-review", Assert: "crossing_angle == 0 or crossing_angle >= 30",
				Message: "Crossing angle below 30 degrees needs engineering review",
				Level:   config.LevelWarning},
		},
	}
}

func testAssemblies() []config.Assembly {
	return []config.Assembly{
		{ID: config.MetadataAssemblyID, Description: "templates", Selector: map[string]any{}},
		{ID: "field-panels", Description: "Field panels", Selector: map[string]any{},
			Lines: []config.AssemblyLine{
				{Product: "FP {material} {connection}", Qty: "panels_per_track * tracks", Unit: "each"},
			}},
		{ID: "gauge-panels-narrow", Selector: map[string]any{"gauge_panel_type": "NGP"},
			Lines: []config.AssemblyLine{
				{Product: "NGP {material} {connection}", Qty: "panels_per_track * tracks", Unit: "each"},
			}},
		{ID: "gauge-panels-standard", Selector: map[string]any{"gauge_panel_type": "GP"},
			Lines: []config.AssemblyLine{
				{Product: "GP {material} {connection}", Qty: "panels_per_track * tracks", Unit: "each"},
			}},
		{ID: "gauge-panels-wide", Selector: map[string]any{"gauge_panel_type": "WGP"},
			Lines: []config.AssemblyLine{
				{Product: "WGP {material} {connection}", Qty: "panels_per_track * tracks", Unit: "each"},
			}},
		{ID: "edge-beams-tc", Selector: map[string]any{"edge_beam": "REB TC"},
			Lines: []config.AssemblyLine{
				{Product: "REB TC", Qty: "panels_per_track * tracks", Unit: "each"},
			}},
		{ID: "connection-kits", Selector: map[string]any{},
			Lines: []config.AssemblyLine{
				{Product: "CK {connection}", Qty: "joints * tracks", Unit: "kit"},
			}},
		{ID: "strand-restrictors", Selector: map[string]any{"requires_strand_restrictor": []any{true}},
			Lines: []config.AssemblyLine{
				{Product: "SR KIT", Qty: "tracks", Unit: "kit"},
			}},
	}
}

func standardInput() QuoteInput {
	return QuoteInput{
		ProjectName:    "Mill Road crossing",
		Country:        "DE",
		Currency:       "EUR",
		DesignLen:      3.6,
		Tracks:         1,
		Gauge:          1435,
		TrackSpacing:   4.0,
		CrossingAngle:  90,
		Usage:          "Medium to Heavy",
		TrafficClass:   "SLW 60",
		SpeedKPH:       60,
		FieldPanelType: "FP",
		EdgeBeam:       "REB TC",
		Connection:     "LO",
		Material:       "TC",
	}
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)
	require.NotNil(t, engine)
	assert.Equal(t, "1.0.0", engine.Version())
}

func TestNewEngine_HelperCompileError(t *testing.T) {
	t.Parallel()

	rs := testRuleSet()
	rs.Helpers = append(rs.Helpers, config.Helper{
		ID:      "broken",
		Compute: map[string]string{"x": "design_len >="},
	})

	_, err := NewEngine(rs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "helper broken")
}

func TestNewEngine_MalformedWhenThreshold(t *testing.T) {
	t.Parallel()

	rs := testRuleSet()
	rs.Connections = append(rs.Connections, config.OptionRule{
		ID:      "broken",
		When:    map[string]any{"speed_kph": ">fast"},
		Exclude: []string{"LO"},
	})

	_, err := NewEngine(rs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection rule broken")
}

func TestNewEngine_AssemblyQtyCompileError(t *testing.T) {
	t.Parallel()

	assemblies := []config.Assembly{
		{ID: "broken", Selector: map[string]any{},
			Lines: []config.AssemblyLine{{Product: "X", Qty: "tracks *"}}},
	}

	_, err := NewEngine(testRuleSet(), assemblies)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assembly broken")
}

func TestEngine_Evaluate_Helpers(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	input := standardInput()
	input.DesignLen = 7.5

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	// 7.5 m rounds up to five panel units of 1.8 m.
	rhr, ok := result.Context.Float("rhr_len")
	require.True(t, ok)
	assert.InDelta(t, 9.0, rhr, 1e-9)

	panels, ok := result.Context.Float("panels_per_track")
	require.True(t, ok)
	assert.InDelta(t, 10.0, panels, 1e-9)

	joints, ok := result.Context.Float("joints")
	require.True(t, ok)
	assert.InDelta(t, 4.0, joints, 1e-9)

	assert.Equal(t, "GP", result.Context.String("gauge_panel_type"))
}

func TestEngine_Evaluate_StandardBOM(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	result, err := engine.Evaluate(standardInput())
	require.NoError(t, err)
	assert.True(t, result.Valid)

	require.Len(t, result.BOM, 4)
	assert.Equal(t, "FP TC LO", result.BOM[0].Product)
	assert.InDelta(t, 4.0, result.BOM[0].Qty, 1e-9)
	assert.Equal(t, "GP TC LO", result.BOM[1].Product)
	assert.InDelta(t, 4.0, result.BOM[1].Qty, 1e-9)
	assert.Equal(t, "REB TC", result.BOM[2].Product)
	assert.Equal(t, "CK LO", result.BOM[3].Product)
	assert.InDelta(t, 1.0, result.BOM[3].Qty, 1e-9)
}

func TestEngine_Evaluate_NonPositiveQtyDropped(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	// A single panel unit has no joints, so no connection kit line.
	input := standardInput()
	input.DesignLen = 1.8

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	for _, line := range result.BOM {
		assert.NotEqual(t, "CK LO", line.Product)
	}
}

func TestEngine_Evaluate_GaugePanelSelection(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	tests := []struct {
		gauge float64
		want  string
	}{
		{1000, "NGP TC LO"},
		{1435, "GP TC LO"},
		{1465, "WGP TC LO"},
	}

	for _, tt := range tests {
		input := standardInput()
		input.Gauge = tt.gauge

		result, err := engine.Evaluate(input)
		require.NoError(t, err)

		found := false
		for _, line := range result.BOM {
			if line.Product == tt.want {
				found = true
			}
		}
		assert.True(t, found, "gauge %v should produce %s", tt.gauge, tt.want)
	}
}

func TestEngine_Evaluate_StrandRestrictor(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	input := standardInput()
	input.RequiresStrandRestrictor = true

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	found := false
	for _, line := range result.BOM {
		if line.Product == "SR KIT" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngine_Evaluate_MinLengthInvalid(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	input := standardInput()
	input.DesignLen = 0.5

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors())
	assert.Contains(t, result.Errors()[0], "length")
}

func TestEngine_Evaluate_SpeedInvalid(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	input := standardInput()
	input.SpeedKPH = 150

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors())
	assert.Contains(t, result.Errors()[0], "Speed")
}

func TestEngine_Evaluate_WarningDoesNotInvalidate(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	input := standardInput()
	input.CrossingAngle = 20

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors())
	require.Len(t, result.Warnings(), 1)
	assert.Contains(t, result.Warnings()[0], "angle")
}

func TestEngine_Evaluate_ValidationEvalErrorDegrades(t *testing.T) {
	t.Parallel()

	rs := testRuleSet()
	// Compiles fine but yields a number, not a boolean.
	rs.Validations = append(rs.Validations, config.Validation{
		ID:      "numeric-assert",
		Assert:  "design_len + 1",
		Message: "Internal assertion",
	})

	engine, err := NewEngine(rs, nil)
	require.NoError(t, err)

	result, err := engine.Evaluate(standardInput())
	require.NoError(t, err)

	assert.False(t, result.Valid)
	found := false
	for _, v := range result.Validations {
		if v.ID == "numeric-assert" {
			found = true
			assert.False(t, v.Passed)
			assert.Contains(t, v.Message, "Validation error:")
		}
	}
	assert.True(t, found)
}

func TestEngine_Evaluate_HelperFailureIsFatal(t *testing.T) {
	t.Parallel()

	rs := testRuleSet()
	rs.Helpers = append(rs.Helpers, config.Helper{
		ID:      "broken",
		Compute: map[string]string{"x": "undefined_field * 2"},
	})

	engine, err := NewEngine(rs, nil)
	require.NoError(t, err)

	_, err = engine.Evaluate(standardInput())
	require.Error(t, err)

	var helperErr *HelperError
	require.ErrorAs(t, err, &helperErr)
	assert.Equal(t, "broken", helperErr.HelperID)
}

func TestEngine_Evaluate_HelperUnresolvedFieldIsFatal(t *testing.T) {
	t.Parallel()

	// A helper whose expression is just an unknown identifier must not
	// write nil into the context and carry on.
	rs := testRuleSet()
	rs.Helpers = append(rs.Helpers, config.Helper{
		ID:      "broken",
		Compute: map[string]string{"x": "undefined_field"},
	})

	engine, err := NewEngine(rs, nil)
	require.NoError(t, err)

	_, err = engine.Evaluate(standardInput())
	require.Error(t, err)

	var helperErr *HelperError
	require.ErrorAs(t, err, &helperErr)
	assert.Equal(t, "broken", helperErr.HelperID)
	assert.Equal(t, "x", helperErr.Field)
}

func TestEngine_FilterConnections_UltraHeavy(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), nil)
	require.NoError(t, err)

	input := standardInput()
	input.Usage = "Ultra Heavy"

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	byCode := make(map[string]ConnectionAvailability)
	for _, c := range result.Connections {
		byCode[c.Code] = c
	}

	assert.False(t, byCode["LO"].Available)
	assert.Equal(t, "Not rated for ultra heavy usage", byCode["LO"].Reason)
	assert.False(t, byCode["PCK"].Available)
	assert.True(t, byCode["BP"].Available)
	assert.True(t, byCode["HK"].Available)
}

func TestEngine_FilterConnections_HighSpeed(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), nil)
	require.NoError(t, err)

	input := standardInput()
	input.SpeedKPH = 100

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	byCode := make(map[string]ConnectionAvailability)
	for _, c := range result.Connections {
		byCode[c.Code] = c
	}

	assert.False(t, byCode["LOL"].Available)
	assert.Equal(t, "Not rated above 80 km/h", byCode["LOL"].Reason)
	assert.False(t, byCode["SF2K"].Available)
	assert.True(t, byCode["LO"].Available)
}

func TestEngine_FilterConnections_NoAllowRules(t *testing.T) {
	t.Parallel()

	rs := testRuleSet()
	rs.Connections = nil

	engine, err := NewEngine(rs, nil)
	require.NoError(t, err)

	result, err := engine.Evaluate(standardInput())
	require.NoError(t, err)

	// Connections have no default allow: nothing is offered.
	for _, c := range result.Connections {
		assert.False(t, c.Available)
		assert.Equal(t, "Not available for this configuration", c.Reason)
	}
}

func TestEngine_FilterConnections_ExclusionWinsOverAllow(t *testing.T) {
	t.Parallel()

	rs := testRuleSet()
	// The exclude rule comes first; the later allow must not resurrect LO.
	rs.Connections = []config.OptionRule{
		{ID: "exclude-lo", Exclude: []string{"LO"}, Reason: "withdrawn"},
		{ID: "allow-all", Allow: []string{"BP", "LO", "HK", "LOL", "SF2K", "PCK"}},
	}

	engine, err := NewEngine(rs, nil)
	require.NoError(t, err)

	result, err := engine.Evaluate(standardInput())
	require.NoError(t, err)

	byCode := make(map[string]ConnectionAvailability)
	for _, c := range result.Connections {
		byCode[c.Code] = c
	}

	assert.False(t, byCode["LO"].Available)
	assert.Equal(t, "withdrawn", byCode["LO"].Reason)
	assert.True(t, byCode["BP"].Available)
}

func TestEngine_FilterMaterials_DefaultAllow(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), nil)
	require.NoError(t, err)

	// The only material rule targets BP; with LO selected no rule matches
	// and every compound stays compatible.
	result, err := engine.Evaluate(standardInput())
	require.NoError(t, err)

	for _, m := range result.Materials {
		assert.True(t, m.Compatible, "material %s", m.Code)
	}
}

func TestEngine_FilterMaterials_BPExcludesTC(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), nil)
	require.NoError(t, err)

	input := standardInput()
	input.Connection = "BP"

	result, err := engine.Evaluate(input)
	require.NoError(t, err)

	byCode := make(map[string]MaterialCompatibility)
	for _, m := range result.Materials {
		byCode[m.Code] = m
	}

	assert.False(t, byCode["TC"].Compatible)
	assert.Equal(t, "Not produced for bolted connections", byCode["TC"].Reason)
}

func TestEngine_Evaluate_QtyEvalErrorDegrades(t *testing.T) {
	t.Parallel()

	assemblies := []config.Assembly{
		{ID: "good", Selector: map[string]any{},
			Lines: []config.AssemblyLine{{Product: "REB TC", Qty: "tracks", Unit: "each"}}},
		{ID: "bad-qty", Selector: map[string]any{},
			Lines: []config.AssemblyLine{{Product: "X", Qty: "undefined_field * 2", Unit: "each"}}},
	}

	engine, err := NewEngine(testRuleSet(), assemblies)
	require.NoError(t, err)

	result, err := engine.Evaluate(standardInput())
	require.NoError(t, err)

	require.Len(t, result.BOM, 1)
	assert.Equal(t, "REB TC", result.BOM[0].Product)

	errExplained := false
	for _, e := range result.Explanations {
		if strings.HasPrefix(e, "Error in bad-qty") {
			errExplained = true
		}
	}
	assert.True(t, errExplained)
}

func TestEngine_Evaluate_MetadataAssemblySkipped(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testRuleSet(), testAssemblies())
	require.NoError(t, err)

	result, err := engine.Evaluate(standardInput())
	require.NoError(t, err)

	for _, e := range result.Explanations {
		assert.NotContains(t, e, "metadata")
	}
}
