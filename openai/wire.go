package openai

import (
	"github.com/skosovsky/codebridge"
	"github.com/skosovsky/codebridge/chat"
)

type chatCompletionRequest struct {
	Model             string                  `json:"model"`
	Messages          []wireMessage           `json:"messages"`
	Tools             []codebridge.Definition `json:"tools,omitempty"`
	ToolChoice        *chat.ToolChoice        `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool                   `json:"parallel_tool_calls,omitempty"`
	Temperature       *float64                `json:"temperature,omitempty"`
	MaxTokens         *int                    `json:"max_tokens,omitempty"`
}

type wireMessage struct {
	Role       string          `json:"role"`
	Content    *string         `json:"content"`
	Name       string          `json:"name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolCalls  []chat.ToolCall `json:"tool_calls,omitempty"`
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   *chat.Usage  `json:"usage,omitempty"`
}

type wireChoice struct {
	Index        int         `json:"index"`
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

func requestFromChat(req chat.Request) chatCompletionRequest {
	out := chatCompletionRequest{
		Model:       req.Model,
		Messages:    make([]wireMessage, 0, len(req.Messages)),
		Tools:       req.Tools,
		Temperature: req.Temperature,
	}
	// tool_choice and parallel_tool_calls are rejected when no tools are sent.
	if len(req.Tools) > 0 {
		out.ToolChoice = req.ToolChoice
		out.ParallelToolCalls = req.ParallelToolCalls
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = &req.MaxTokens
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, messageFromChat(m))
	}
	return out
}

func messageFromChat(m chat.Message) wireMessage {
	wm := wireMessage{
		Role:       string(m.Role),
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
		ToolCalls:  m.ToolCalls,
	}
	// Assistant turns that only call tools send a null content.
	if m.Content != "" || len(m.ToolCalls) == 0 {
		content := m.Content
		wm.Content = &content
	}
	return wm
}

func responseToChat(resp chatCompletionResponse) *chat.Response {
	choice := resp.Choices[0]
	msg := chat.Message{
		Role:      chat.Role(choice.Message.Role),
		ToolCalls: choice.Message.ToolCalls,
	}
	if msg.Role == "" {
		msg.Role = chat.RoleAssistant
	}
	if choice.Message.Content != nil {
		msg.Content = *choice.Message.Content
	}
	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].Type == "" {
			msg.ToolCalls[i].Type = chat.ToolCallType
		}
	}
	out := &chat.Response{
		ID:           resp.ID,
		Model:        resp.Model,
		Message:      msg,
		FinishReason: choice.FinishReason,
	}
	if resp.Usage != nil {
		out.Usage = *resp.Usage
	}
	return out
}
