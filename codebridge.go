package codebridge

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Tool is the contract for a model-callable function.
// It is provider-agnostic; Definition adapts it to the chat-completions wire format.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a valid JSON Schema object describing the arguments.
	Parameters() map[string]any
	// Execute decodes argsJSON, runs the function and returns its JSON-encoded result.
	Execute(ctx context.Context, argsJSON []byte) ([]byte, error)
}

// ToolMetadata is implemented by tools created with NewTool and NewDynamicTool and by
// middleware wrappers. Registry uses Timeout() to override its default timeout when set.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	Version() string
	IsDangerous() bool
	IsStrict() bool
}

// ToolCall is a single execution request (as produced by the model).
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage // JSON object of arguments
}

// ToolResult is the outcome of one ToolCall.
type ToolResult struct {
	CallID   string
	ToolName string
	Result   []byte // JSON produced by the tool; nil when Error is set
	Error    error
	Duration time.Duration
}

// Content returns the text to place in the tool message sent back to the model.
// Client errors are reported verbatim so the model can fix its arguments; internal
// failures are reduced to a generic message.
func (r ToolResult) Content() string {
	if r.Error == nil {
		if len(r.Result) == 0 {
			return "null"
		}
		return string(r.Result)
	}
	var ce *ClientError
	switch {
	case errors.As(r.Error, &ce):
		return "error: " + ce.Error()
	case errors.Is(r.Error, ErrToolNotFound):
		return "error: unknown tool " + quote(r.ToolName)
	case errors.Is(r.Error, ErrTimeout):
		return "error: " + ErrTimeout.Error()
	case errors.Is(r.Error, ErrDeclined):
		return "error: the user declined the call to " + quote(r.ToolName)
	case errors.Is(r.Error, ErrShutdown):
		return "error: " + ErrShutdown.Error()
	default:
		return "error: " + (&SystemError{}).Error()
	}
}

// IsError reports whether the call failed.
func (r ToolResult) IsError() bool { return r.Error != nil }

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
