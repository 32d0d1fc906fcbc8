package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/skosovsky/codebridge/chat"
)

// ErrScriptExhausted is returned when a ScriptedCompleter has no step left.
var ErrScriptExhausted = errors.New("testutil: scripted completer exhausted")

// Step is one scripted completion: either a response or an error.
type Step struct {
	Response *chat.Response
	Err      error
}

// ScriptedCompleter replays Steps in order and records every request.
type ScriptedCompleter struct {
	mu       sync.Mutex
	steps    []Step
	requests []chat.Request
}

// NewScriptedCompleter returns a completer that answers with steps in order.
func NewScriptedCompleter(steps ...Step) *ScriptedCompleter {
	return &ScriptedCompleter{steps: steps}
}

// Reply is a Step whose assistant message has content and optional tool calls.
func Reply(content string, calls ...chat.ToolCall) Step {
	finish := "stop"
	if len(calls) > 0 {
		finish = "tool_calls"
	}
	return Step{Response: &chat.Response{
		Message:      chat.AssistantMessage(content, calls...),
		FinishReason: finish,
		Usage:        chat.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}
}

// Call builds a tool call for use with Reply.
func Call(id, name, args string) chat.ToolCall {
	return chat.ToolCall{ID: id, Type: chat.ToolCallType, Function: chat.FunctionCall{Name: name, Arguments: args}}
}

// Complete implements chat.Completer.
func (s *ScriptedCompleter) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.steps) == 0 {
		return nil, ErrScriptExhausted
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.Err != nil {
		return nil, step.Err
	}
	resp := *step.Response
	resp.Message = resp.Message.Clone()
	return &resp, nil
}

// Requests returns the requests received so far.
func (s *ScriptedCompleter) Requests() []chat.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Request(nil), s.requests...)
}

// Remaining returns the number of unused steps.
func (s *ScriptedCompleter) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

var _ chat.Completer = (*ScriptedCompleter)(nil)
