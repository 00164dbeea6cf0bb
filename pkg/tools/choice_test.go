package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoiceConstructors(t *testing.T) {
	assert.Equal(t, ChoiceAuto, Auto().Mode)
	assert.Equal(t, ChoiceRequired, Required().Mode)
	assert.Equal(t, ChoiceNone, None().Mode)

	forced := ForceTool("weather")
	assert.Equal(t, ChoiceTool, forced.Mode)
	assert.Equal(t, "weather", forced.ToolName)
}

func TestChoiceNormalize(t *testing.T) {
	var zero Choice
	assert.True(t, zero.IsZero())
	assert.Equal(t, Auto(), zero.Normalize())

	assert.Equal(t, Required(), Required().Normalize())
}

func TestChoiceAllows(t *testing.T) {
	assert.True(t, Auto().Allows("any"))
	assert.True(t, Required().Allows("any"))
	assert.False(t, None().Allows("any"))

	forced := ForceTool("weather")
	assert.True(t, forced.Allows("weather"))
	assert.False(t, forced.Allows("other"))

	var zero Choice
	assert.True(t, zero.Allows("any"), "zero choice behaves like auto")
}

func TestChoiceDemands(t *testing.T) {
	assert.False(t, Auto().Demands())
	assert.False(t, None().Demands())
	assert.True(t, Required().Demands())
	assert.True(t, ForceTool("x").Demands())
}

func TestChoiceValidate(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(makeTool("known")))

	assert.NoError(t, Auto().Validate(registry))
	assert.NoError(t, Required().Validate(nil))
	assert.NoError(t, ForceTool("known").Validate(registry))

	err := ForceTool("unknown").Validate(registry)
	assert.ErrorIs(t, err, ErrToolNotFound)

	err = Choice{Mode: ChoiceTool}.Validate(nil)
	assert.ErrorIs(t, err, ErrUnknownChoice)

	err = Choice{Mode: ChoiceAuto, ToolName: "stray"}.Validate(nil)
	assert.ErrorIs(t, err, ErrUnknownChoice)

	err = Choice{Mode: "bogus"}.Validate(nil)
	assert.ErrorIs(t, err, ErrUnknownChoice)
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		want  Choice
	}{
		{"", Auto()},
		{"auto", Auto()},
		{"required", Required()},
		{"none", None()},
		{"tool:weather", ForceTool("weather")},
	}

	for _, tt := range tests {
		got, err := ParseChoice(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}

	_, err := ParseChoice("sometimes")
	assert.ErrorIs(t, err, ErrUnknownChoice)

	_, err = ParseChoice("tool:")
	assert.ErrorIs(t, err, ErrUnknownChoice)
}

func TestChoiceString(t *testing.T) {
	assert.Equal(t, "auto", Auto().String())
	assert.Equal(t, "required", Required().String())
	assert.Equal(t, "none", None().String())
	assert.Equal(t, "tool:weather", ForceTool("weather").String())

	var zero Choice
	assert.Equal(t, "auto", zero.String())
}

func TestChoiceJSONRoundTrip(t *testing.T) {
	// String form for simple modes
	data, err := json.Marshal(Required())
	require.NoError(t, err)
	assert.Equal(t, `"required"`, string(data))

	var parsed Choice
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, Required(), parsed)

	// Object form for forced tool
	data, err = json.Marshal(ForceTool("weather"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tool","toolName":"weather"}`, string(data))

	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, ForceTool("weather"), parsed)

	// Unknown string mode is rejected
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &parsed))
}
