package chat

import (
	"context"
	"encoding/json"

	"github.com/skosovsky/codebridge"
)

// Completer produces the next assistant message for a conversation.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is one completion request.
type Request struct {
	Model             string
	Messages          []Message
	Tools             []codebridge.Definition
	ToolChoice        *ToolChoice
	ParallelToolCalls *bool
	Temperature       *float64
	MaxTokens         int
}

// Response is the first choice of a completion.
type Response struct {
	ID           string
	Model        string
	Message      Message
	FinishReason string
	Usage        Usage
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates o into u.
func (u *Usage) Add(o Usage) {
	u.PromptTokens += o.PromptTokens
	u.CompletionTokens += o.CompletionTokens
	u.TotalTokens += o.TotalTokens
}

// Tool choice modes understood by chat-completion APIs.
const (
	ToolChoiceModeAuto     = "auto"
	ToolChoiceModeNone     = "none"
	ToolChoiceModeRequired = "required"
)

// ToolChoice controls whether and which tool the model must call. A non-empty
// Function forces a call to that function.
type ToolChoice struct {
	Mode     string
	Function string
}

// ToolChoiceAuto lets the model decide.
func ToolChoiceAuto() *ToolChoice { return &ToolChoice{Mode: ToolChoiceModeAuto} }

// ToolChoiceNone forbids tool calls.
func ToolChoiceNone() *ToolChoice { return &ToolChoice{Mode: ToolChoiceModeNone} }

// ToolChoiceRequired makes the model call at least one tool.
func ToolChoiceRequired() *ToolChoice { return &ToolChoice{Mode: ToolChoiceModeRequired} }

// ForceTool makes the model call the named function.
func ForceTool(name string) *ToolChoice { return &ToolChoice{Function: name} }

// Forces reports whether c obliges the model to emit a tool call.
func (c *ToolChoice) Forces() bool {
	return c != nil && (c.Function != "" || c.Mode == ToolChoiceModeRequired)
}

// MarshalJSON encodes c the way chat-completion APIs expect: a bare mode string
// or {"type":"function","function":{"name":...}}.
func (c ToolChoice) MarshalJSON() ([]byte, error) {
	if c.Function != "" {
		return json.Marshal(map[string]any{
			"type":     ToolCallType,
			"function": map[string]string{"name": c.Function},
		})
	}
	mode := c.Mode
	if mode == "" {
		mode = ToolChoiceModeAuto
	}
	return json.Marshal(mode)
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (c *ToolChoice) UnmarshalJSON(data []byte) error {
	var mode string
	if err := json.Unmarshal(data, &mode); err == nil {
		*c = ToolChoice{Mode: mode}
		return nil
	}
	var obj struct {
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = ToolChoice{Function: obj.Function.Name}
	return nil
}
