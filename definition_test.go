package codebridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherDefinitionJSON = `{
  "type": "function",
  "function": {
    "name": "get_current_weather",
    "description": "Get the current weather in a given location",
    "parameters": {
      "type": "object",
      "properties": {
        "location": {"type": "string", "description": "The city and state, e.g. San Francisco, CA"},
        "unit": {"type": "string", "description": "unit", "enum": ["celsius", "fahrenheit"], "default": "celsius"}
      },
      "required": ["location"]
    }
  }
}`

func TestDefinitionOf(t *testing.T) {
	def := DefinitionOf(newWeatherTool(t))
	assert.Equal(t, "function", def.Type)
	assert.Equal(t, "get_current_weather", def.Function.Name)
	assert.False(t, def.Function.Strict)

	data, err := json.Marshal(def)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	fn := m["function"].(map[string]any)
	assert.NotContains(t, fn, "strict")
	params := fn["parameters"].(map[string]any)
	unit := params["properties"].(map[string]any)["unit"].(map[string]any)
	assert.Equal(t, "unit", unit["description"])
	assert.Equal(t, "celsius", unit["default"])
	assert.Equal(t, []any{"celsius", "fahrenheit"}, unit["enum"])

	require.NoError(t, ValidateDefinition(def))
}

func TestDefinitions_KeepsOrder(t *testing.T) {
	a := &minTool{name: "b_tool", params: map[string]any{"type": "object"}}
	b := &minTool{name: "a_tool", params: map[string]any{"type": "object"}}
	defs := Definitions(a, b)
	require.Len(t, defs, 2)
	assert.Equal(t, "b_tool", defs[0].Function.Name)
	assert.Equal(t, "a_tool", defs[1].Function.Name)
}

func TestValidateDefinition_GeneratedTools(t *testing.T) {
	type Address struct {
		Street string `json:"street" description:"Street line"`
		Zip    string `json:"zip_code"`
	}
	type Order struct {
		ID      int       `json:"id" description:"Order number"`
		Items   []string  `json:"items" description:"SKUs"`
		Ship    Address   `json:"ship" description:"Shipping address"`
		Notes   *string   `json:"notes,omitempty"`
		Extras  []Address `json:"extras,omitempty"`
		Express bool      `json:"express,omitempty" default:"false"`
	}
	tool, err := NewTool("place_order", "Place an order", func(context.Context, Order) (bool, error) { return true, nil })
	require.NoError(t, err)
	require.NoError(t, ValidateDefinition(DefinitionOf(tool)))

	noArgs, err := NewTool("get_time", "Current time", func(context.Context, struct{}) (string, error) { return "", nil })
	require.NoError(t, err)
	def := DefinitionOf(noArgs)
	require.NoError(t, ValidateDefinition(def))
	assert.Equal(t, []any{}, def.Function.Parameters["required"])
}

func TestValidateDefinitionJSON(t *testing.T) {
	require.NoError(t, ValidateDefinitionJSON([]byte(weatherDefinitionJSON)))

	bad := map[string]string{
		"not json":          `{`,
		"wrong type":        `{"type":"tool","function":{"name":"x","description":"d","parameters":{"type":"object","properties":{},"required":[]}}}`,
		"missing function":  `{"type":"function"}`,
		"bad name":          `{"type":"function","function":{"name":"has space","description":"d","parameters":{"type":"object","properties":{},"required":[]}}}`,
		"missing desc":      `{"type":"function","function":{"name":"x","parameters":{"type":"object","properties":{},"required":[]}}}`,
		"missing required":  `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object","properties":{}}}}`,
		"non-object params": `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"string","properties":{},"required":[]}}}`,
		"property no type": `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object",` +
			`"properties":{"a":{"description":"a"}},"required":[]}}}`,
		"property no description": `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object",` +
			`"properties":{"a":{"type":"string"}},"required":[]}}}`,
		"object without properties": `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object",` +
			`"properties":{"a":{"type":"object","description":"a"}},"required":[]}}}`,
		"array without items": `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object",` +
			`"properties":{"a":{"type":"array","description":"a"}},"required":[]}}}`,
		"required not declared": `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object",` +
			`"properties":{"a":{"type":"string","description":"a"}},"required":["b"]}}}`,
		"nested required not declared": `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object",` +
			`"properties":{"a":{"type":"object","description":"a","properties":{},"required":["z"]}},"required":[]}}}`,
	}
	for name, doc := range bad {
		t.Run(name, func(t *testing.T) {
			err := ValidateDefinitionJSON([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestValidateDefinitionJSON_OneOf(t *testing.T) {
	doc := `{"type":"function","function":{"name":"x","description":"d","parameters":{"type":"object",` +
		`"properties":{"id":{"description":"id","oneOf":[{"type":"string"},{"type":"integer"}]}},"required":["id"]}}}`
	require.NoError(t, ValidateDefinitionJSON([]byte(doc)))
}

func TestParseDefinitions(t *testing.T) {
	defs, err := ParseDefinitions([]byte(weatherDefinitionJSON))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "get_current_weather", defs[0].Function.Name)

	arr := `[` + weatherDefinitionJSON + `, {"type":"function"}]`
	defs, err = ParseDefinitions([]byte(arr))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
	assert.Contains(t, err.Error(), "definition 1")
	require.Len(t, defs, 1)

	_, err = ParseDefinitions([]byte("  "))
	assert.ErrorIs(t, err, ErrInvalidDefinition)
	_, err = ParseDefinitions([]byte("[1,"))
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestValidateArguments(t *testing.T) {
	defs, err := ParseDefinitions([]byte(weatherDefinitionJSON))
	require.NoError(t, err)
	def := defs[0]

	require.NoError(t, ValidateArguments(def, json.RawMessage(`{"location":"Boston, MA"}`)))
	require.NoError(t, ValidateArguments(def, json.RawMessage(`{"location":"Boston, MA","unit":"fahrenheit"}`)))

	for _, args := range []string{`{}`, `{"location":"Boston","unit":"kelvin"}`, `{"location":1}`, ``} {
		err := ValidateArguments(def, json.RawMessage(args))
		require.Error(t, err, args)
		assert.True(t, IsClientError(err), args)
	}

	err = ValidateArguments(def, json.RawMessage(`{"location":`))
	assert.True(t, IsClientError(err))
}
