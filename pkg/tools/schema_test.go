package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaHelpers(t *testing.T) {
	schema := Object(map[string]*Schema{
		"name":    String("the name"),
		"count":   Integer("how many"),
		"ratio":   Number("a fraction"),
		"enabled": Boolean("on or off"),
		"tags":    ArrayOf(String("a tag"), "list of tags"),
		"mode":    StringEnum("operating mode", "fast", "slow"),
	}, "name")

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"name"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["name"].Type)
	assert.Equal(t, "integer", schema.Properties["count"].Type)
	assert.Equal(t, "number", schema.Properties["ratio"].Type)
	assert.Equal(t, "boolean", schema.Properties["enabled"].Type)
	assert.Equal(t, "array", schema.Properties["tags"].Type)
	assert.Len(t, schema.Properties["mode"].Enum, 2)
}

func TestCompileAndValidate(t *testing.T) {
	def := ToolDefinition{
		Name: "test",
		Parameters: Object(map[string]*Schema{
			"location": String("city name"),
			"days":     Integer("forecast days"),
		}, "location"),
	}

	resolved, err := compileSchema(def)
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    string
		wantErr bool
	}{
		{"valid full", `{"location":"Paris","days":3}`, false},
		{"valid required only", `{"location":"Paris"}`, false},
		{"empty args become empty object", ``, true}, // location is required
		{"missing required", `{"days":3}`, true},
		{"wrong type", `{"location":123}`, true},
		{"not json", `location=Paris`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateArgs(resolved, tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArguments)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmptyArgsNoParams(t *testing.T) {
	def := ToolDefinition{Name: "no_params", Parameters: Object(nil)}

	resolved, err := compileSchema(def)
	require.NoError(t, err)

	// LLM often sends "" for tools without parameters
	assert.NoError(t, validateArgs(resolved, ""))
	assert.NoError(t, validateArgs(resolved, "{}"))
}

func TestReflectStruct(t *testing.T) {
	type WeatherArgs struct {
		Location string `json:"location" jsonschema:"description=City name"`
		Days     int    `json:"days,omitempty" jsonschema:"description=Forecast days"`
	}

	schema, err := ReflectStruct(WeatherArgs{})
	require.NoError(t, err)

	assert.Equal(t, "object", schema.Type)
	require.Contains(t, schema.Properties, "location")
	assert.Equal(t, "string", schema.Properties["location"].Type)
	assert.Equal(t, "City name", schema.Properties["location"].Description)
	assert.Contains(t, schema.Required, "location")
	assert.NotContains(t, schema.Required, "days")

	// The reflected schema must compile for registration
	_, err = compileSchema(ToolDefinition{Name: "reflected", Parameters: schema})
	assert.NoError(t, err)
}
