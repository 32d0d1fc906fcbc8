package codebridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// minTool is a minimal Tool implementation for tests.
type minTool struct {
	name, desc string
	params     map[string]any
	execute    func(context.Context, []byte) ([]byte, error)
}

func (m *minTool) Name() string               { return m.name }
func (m *minTool) Description() string        { return m.desc }
func (m *minTool) Parameters() map[string]any { return m.params }
func (m *minTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	if m.execute != nil {
		return m.execute(ctx, args)
	}
	return []byte(`{}`), nil
}

func TestToolResult_Content(t *testing.T) {
	tests := []struct {
		name   string
		res    ToolResult
		expect string
	}{
		{"success", ToolResult{Result: []byte(`{"temp":22}`)}, `{"temp":22}`},
		{"empty result", ToolResult{}, "null"},
		{"client error", ToolResult{Error: &ClientError{Reason: "unit must be celsius or fahrenheit"}},
			"error: invalid tool input: unit must be celsius or fahrenheit"},
		{"not found", ToolResult{ToolName: "nope", Error: ErrToolNotFound}, `error: unknown tool "nope"`},
		{"timeout", ToolResult{Error: ErrTimeout}, "error: tool execution timeout"},
		{"shutdown", ToolResult{Error: ErrShutdown}, "error: registry is shutting down"},
		{"declined", ToolResult{ToolName: "drop_table", Error: ErrDeclined}, `error: the user declined the call to "drop_table"`},
		{"system error hides cause", ToolResult{Error: &SystemError{Err: errors.New("password=hunter2")}},
			"error: internal system error during tool execution"},
		{"plain error hides cause", ToolResult{Error: errors.New("secret")},
			"error: internal system error during tool execution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.res.Content())
			assert.Equal(t, tt.res.Error != nil, tt.res.IsError())
		})
	}
}
