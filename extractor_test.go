package codebridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractor_Success(t *testing.T) {
	t.Parallel()
	type Args struct {
		X int `json:"x"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.NotNil(t, ext.Schema())
}

func TestNewExtractor_Strict(t *testing.T) {
	t.Parallel()
	type Args struct {
		A string `json:"a"`
		B int    `json:"b,omitempty"`
	}
	ext, err := NewExtractor[Args](true)
	require.NoError(t, err)
	schema := ext.Schema()
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []any{"a", "b"}, schema["required"])
}

func TestExtractor_Schema_IsCopy(t *testing.T) {
	t.Parallel()
	type Args struct {
		X int `json:"x"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	s := ext.Schema()
	s["type"] = "mutated"
	assert.Equal(t, "object", ext.Schema()["type"])
}

func TestExtractor_ParseAndValidate_Success(t *testing.T) {
	t.Parallel()
	type Args struct {
		X int    `json:"x"`
		S string `json:"s"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	args, err := ext.ParseAndValidate([]byte(`{"x": 42, "s": "hello"}`))
	require.NoError(t, err)
	assert.Equal(t, 42, args.X)
	assert.Equal(t, "hello", args.S)
}

func TestExtractor_ParseAndValidate_InvalidJSON(t *testing.T) {
	t.Parallel()
	type Args struct {
		X int `json:"x"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	_, err = ext.ParseAndValidate([]byte(`{invalid`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestExtractor_ParseAndValidate_SchemaViolations(t *testing.T) {
	t.Parallel()
	type Args struct {
		Location string `json:"location"`
		Unit     string `json:"unit,omitempty" enum:"celsius,fahrenheit"`
		Rank     int    `json:"rank,omitempty" minimum:"1" maximum:"10"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)

	cases := map[string]string{
		"missing required": `{"unit":"celsius"}`,
		"bad enum":         `{"location":"Boston","unit":"kelvin"}`,
		"above maximum":    `{"location":"Boston","rank":11}`,
		"wrong type":       `{"location":42}`,
		"not an object":    `["Boston"]`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ext.ParseAndValidate([]byte(input))
			require.Error(t, err)
			assert.True(t, IsClientError(err))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestExtractor_ParseAndValidate_AppliesDefaults(t *testing.T) {
	t.Parallel()
	type Args struct {
		Location string `json:"location"`
		Unit     string `json:"unit,omitempty" enum:"celsius,fahrenheit" default:"celsius"`
		Days     int    `json:"days,omitempty" default:"3"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	args, err := ext.ParseAndValidate([]byte(`{"location":"Boston, MA"}`))
	require.NoError(t, err)
	assert.Equal(t, "celsius", args.Unit)
	assert.Equal(t, 3, args.Days)

	args, err = ext.ParseAndValidate([]byte(`{"location":"Boston, MA","unit":"fahrenheit"}`))
	require.NoError(t, err)
	assert.Equal(t, "fahrenheit", args.Unit)
}

type shipTo struct {
	City    string `json:"city"`
	Country string `json:"country" default:"US"`
}

type shipmentArgs struct {
	Mode    string   `json:"mode" enum:"air,sea" default:"air"`
	Address shipTo   `json:"address"`
	Stops   []shipTo `json:"stops"`
}

func TestExtractor_ParseAndValidate_DefaultOnRequiredField(t *testing.T) {
	t.Parallel()
	ext, err := NewExtractor[shipmentArgs](false)
	require.NoError(t, err)
	schema := ext.Schema()
	assert.Equal(t, []any{"address", "stops"}, schema["required"])
	props := schema["properties"].(map[string]any)
	assert.Equal(t, "air", props["mode"].(map[string]any)["default"])
	address := props["address"].(map[string]any)
	assert.Equal(t, []any{"city"}, address["required"])

	args, err := ext.ParseAndValidate([]byte(`{"address":{"city":"Oslo"},"stops":[{"city":"Bergen"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "air", args.Mode)
	assert.Equal(t, shipTo{City: "Oslo", Country: "US"}, args.Address)
	assert.Equal(t, []shipTo{{City: "Bergen", Country: "US"}}, args.Stops)

	args, err = ext.ParseAndValidate([]byte(`{"mode":"sea","address":{"city":"Oslo","country":"NO"},"stops":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "sea", args.Mode)
	assert.Equal(t, "NO", args.Address.Country)

	_, err = ext.ParseAndValidate([]byte(`{"stops":[]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExtractor_ParseAndValidate_DefaultsUnderStrict(t *testing.T) {
	t.Parallel()
	ext, err := NewExtractor[shipmentArgs](true)
	require.NoError(t, err)
	assert.Equal(t, []any{"address", "mode", "stops"}, ext.Schema()["required"])

	args, err := ext.ParseAndValidate([]byte(`{"address":{"city":"Oslo"},"stops":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "air", args.Mode)
	assert.Equal(t, "US", args.Address.Country)
}

func TestExtractor_ParseAndValidate_EmptyInput(t *testing.T) {
	t.Parallel()
	ext, err := NewExtractor[struct{}](false)
	require.NoError(t, err)
	_, err = ext.ParseAndValidate(nil)
	require.NoError(t, err)
	_, err = ext.ParseAndValidate([]byte("  "))
	require.NoError(t, err)
}
