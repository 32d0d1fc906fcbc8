package codebridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherArgs struct {
	Location string `json:"location" description:"The city and state, e.g. San Francisco, CA"`
	Unit     string `json:"unit,omitempty" enum:"celsius,fahrenheit" default:"celsius"`
}

type weatherReport struct {
	Location    string `json:"location"`
	Temperature string `json:"temperature"`
	Unit        string `json:"unit"`
}

func newWeatherTool(t *testing.T, opts ...ToolOption) Tool {
	t.Helper()
	tool, err := NewTool("get_current_weather", "Get the current weather in a given location",
		func(_ context.Context, a weatherArgs) (weatherReport, error) {
			return weatherReport{Location: a.Location, Temperature: "22", Unit: a.Unit}, nil
		}, opts...)
	require.NoError(t, err)
	return tool
}

func TestNewTool_Success(t *testing.T) {
	tool := newWeatherTool(t)
	assert.Equal(t, "get_current_weather", tool.Name())
	assert.Equal(t, "Get the current weather in a given location", tool.Description())

	params := tool.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, []any{"location"}, params["required"])

	out, err := tool.Execute(context.Background(), []byte(`{"location":"Boston, MA"}`))
	require.NoError(t, err)
	var rep weatherReport
	require.NoError(t, json.Unmarshal(out, &rep))
	assert.Equal(t, weatherReport{Location: "Boston, MA", Temperature: "22", Unit: "celsius"}, rep)
}

func TestNewTool_InvalidName(t *testing.T) {
	fn := func(context.Context, struct{}) (string, error) { return "", nil }
	for _, name := range []string{"", "has space", "dots.not.allowed", strings.Repeat("a", 65)} {
		_, err := NewTool(name, "d", fn)
		require.Error(t, err, "name %q", name)
		assert.ErrorIs(t, err, ErrInvalidName)
	}
}

func TestNewTool_NilHandler(t *testing.T) {
	_, err := NewTool[struct{}, string]("noop", "d", nil)
	require.Error(t, err)
}

func TestNewTool_NonObjectArgs(t *testing.T) {
	_, err := NewTool("bad", "d", func(context.Context, string) (string, error) { return "", nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotAnObject)
}

func TestNewTool_ValidationError(t *testing.T) {
	tool := newWeatherTool(t)
	_, err := tool.Execute(context.Background(), []byte(`{"location":"Boston","unit":"kelvin"}`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestNewTool_HandlerErrors(t *testing.T) {
	type A struct{}
	clientErr := &ClientError{Reason: "city not supported", Retryable: true}
	tool, err := NewTool("client_fail", "d", func(context.Context, A) (string, error) {
		return "", clientErr
	})
	require.NoError(t, err)
	_, err = tool.Execute(context.Background(), nil)
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clientErr, ce)

	boom := errors.New("db down")
	tool, err = NewTool("system_fail", "d", func(context.Context, A) (string, error) {
		return "", boom
	})
	require.NoError(t, err)
	_, err = tool.Execute(context.Background(), nil)
	assert.True(t, IsSystemError(err))
	assert.ErrorIs(t, err, boom)
}

func TestNewTool_UnmarshalableResult(t *testing.T) {
	tool, err := NewTool("bad_result", "d", func(context.Context, struct{}) (chan int, error) {
		return make(chan int), nil
	})
	require.NoError(t, err)
	_, err = tool.Execute(context.Background(), nil)
	assert.True(t, IsSystemError(err))
}

func TestNewTool_Metadata(t *testing.T) {
	tool := newWeatherTool(t,
		WithStrict(),
		WithTimeout(2*time.Second),
		WithTags("weather", "demo"),
		WithVersion("1.0.0"),
		WithDangerous(),
	)
	tm, ok := tool.(ToolMetadata)
	require.True(t, ok)
	assert.True(t, tm.IsStrict())
	assert.Equal(t, 2*time.Second, tm.Timeout())
	assert.Equal(t, []string{"weather", "demo"}, tm.Tags())
	assert.Equal(t, "1.0.0", tm.Version())
	assert.True(t, tm.IsDangerous())

	tags := tm.Tags()
	tags[0] = "mutated"
	assert.Equal(t, "weather", tm.Tags()[0])

	params := tool.Parameters()
	assert.Equal(t, false, params["additionalProperties"])
	assert.Equal(t, []any{"location", "unit"}, params["required"])
}

func TestNewDynamicTool_Success(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{"type": "integer", "description": "Rating", "minimum": 1, "maximum": 10},
			"note":  map[string]any{"type": "string", "description": "Comment", "default": "none"},
		},
		"required": []any{"value"},
	}
	var got []byte
	tool, err := NewDynamicTool("rank", "Rank feedback", schema, func(_ context.Context, args []byte) ([]byte, error) {
		got = args
		return []byte(`"ok"`), nil
	})
	require.NoError(t, err)
	out, err := tool.Execute(context.Background(), []byte(`{"value":7}`))
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, string(out))
	assert.JSONEq(t, `{"value":7,"note":"none"}`, string(got))

	_, err = tool.Execute(context.Background(), []byte(`{"value":11}`))
	assert.True(t, IsClientError(err))
	_, err = tool.Execute(context.Background(), []byte(`{"value":`))
	assert.True(t, IsClientError(err))
}

func TestNewDynamicTool_DefaultOnRequiredProperty(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{"type": "integer", "description": "Rating"},
			"unit": map[string]any{
				"type": "string", "description": "Unit",
				"enum": []any{"celsius", "fahrenheit"}, "default": "celsius",
			},
		},
		"required": []any{"value", "unit"},
	}
	for name, opts := range map[string][]ToolOption{"default": nil, "strict": {WithStrict()}} {
		t.Run(name, func(t *testing.T) {
			var got []byte
			tool, err := NewDynamicTool("convert", "Convert", schema, func(_ context.Context, args []byte) ([]byte, error) {
				got = args
				return []byte(`"ok"`), nil
			}, opts...)
			require.NoError(t, err)
			if name == "strict" {
				assert.Equal(t, []any{"unit", "value"}, tool.Parameters()["required"])
			} else {
				assert.Equal(t, []any{"value"}, tool.Parameters()["required"])
			}

			_, err = tool.Execute(context.Background(), []byte(`{"value":3}`))
			require.NoError(t, err)
			assert.JSONEq(t, `{"value":3,"unit":"celsius"}`, string(got))

			_, err = tool.Execute(context.Background(), []byte(`{"value":3,"unit":"fahrenheit"}`))
			require.NoError(t, err)
			assert.JSONEq(t, `{"value":3,"unit":"fahrenheit"}`, string(got))
		})
	}
	assert.Equal(t, []any{"value", "unit"}, schema["required"])
}

func TestNewDynamicTool_DoesNotMutateInput(t *testing.T) {
	schema := map[string]any{"type": "object"}
	tool, err := NewDynamicTool("noargs", "d", schema, func(context.Context, []byte) ([]byte, error) {
		return nil, nil
	}, WithStrict())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "object"}, schema)

	params := tool.Parameters()
	assert.Equal(t, map[string]any{}, params["properties"])
	assert.Equal(t, []any{}, params["required"])
	assert.Equal(t, false, params["additionalProperties"])
}

func TestNewDynamicTool_Errors(t *testing.T) {
	fn := func(context.Context, []byte) ([]byte, error) { return nil, nil }

	_, err := NewDynamicTool("bad name", "d", map[string]any{"type": "object"}, fn)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewDynamicTool("x", "d", nil, fn)
	require.Error(t, err)

	_, err = NewDynamicTool("x", "d", map[string]any{"type": "object"}, nil)
	require.Error(t, err)

	_, err = NewDynamicTool("x", "d", map[string]any{"type": "string"}, fn)
	assert.ErrorIs(t, err, errNotAnObject)

	_, err = NewDynamicTool("x", "d", map[string]any{"type": "object", "bad": make(chan int)}, fn)
	require.Error(t, err)
}

func TestNewDynamicTool_HandlerError(t *testing.T) {
	tool, err := NewDynamicTool("x", "d", map[string]any{"type": "object"}, func(context.Context, []byte) ([]byte, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)
	_, err = tool.Execute(context.Background(), nil)
	assert.True(t, IsSystemError(err))
}
