package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skosovsky/codebridge"
	"github.com/skosovsky/codebridge/chat"
)

// Runner drives the tool-calling loop for one completer and one registry.
// A Runner is safe for concurrent use with distinct histories.
type Runner struct {
	completer chat.Completer
	registry  *codebridge.Registry
	opts      options
	logger    *slog.Logger
}

// ToolCallRecord is the outcome of one tool call requested by the model.
type ToolCallRecord struct {
	Call      chat.ToolCall
	Arguments json.RawMessage
	Result    codebridge.ToolResult
}

// Result summarizes a Run.
type Result struct {
	// Response is the last completion; its Message is the final answer when
	// Run returns without error.
	Response   *chat.Response
	Iterations int
	ToolCalls  []ToolCallRecord
	Usage      chat.Usage
}

// NewRunner returns a Runner. registry may be nil when no tools are offered.
func NewRunner(completer chat.Completer, registry *codebridge.Registry, opts ...Option) *Runner {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{completer: completer, registry: registry, opts: o, logger: logger}
}

// Run appends prompt (when non-empty) to history and loops until the model
// replies without tool calls. Every assistant and tool message is appended to
// history. On ErrMaxIterations or a completion failure the partial Result is
// returned together with the error.
func (r *Runner) Run(ctx context.Context, history *chat.History, prompt string) (*Result, error) {
	if history == nil {
		history = chat.NewHistory()
	}
	if prompt != "" {
		history.Append(chat.UserMessage(prompt))
	}
	var defs []codebridge.Definition
	if r.registry != nil {
		defs = r.registry.Definitions()
	}

	res := &Result{}
	choice := r.opts.toolChoice
	for r.opts.maxIterations == 0 || res.Iterations < r.opts.maxIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations++
		req := r.request(history, defs, choice)
		r.logger.DebugContext(ctx, "completion request",
			"history", history.ID(), "iteration", res.Iterations, "messages", len(req.Messages), "tools", len(defs))

		resp, err := r.completer.Complete(ctx, req)
		if err != nil {
			return res, fmt.Errorf("conversation: iteration %d: %w", res.Iterations, err)
		}
		res.Response = resp
		res.Usage.Add(resp.Usage)

		msg := resp.Message.Clone()
		msg.Role = chat.RoleAssistant
		ensureCallIDs(msg.ToolCalls)
		resp.Message = msg
		history.Append(msg)

		if !msg.HasToolCalls() {
			r.logger.InfoContext(ctx, "conversation done",
				"history", history.ID(), "iterations", res.Iterations, "tool_calls", len(res.ToolCalls),
				"total_tokens", res.Usage.TotalTokens)
			return res, nil
		}

		msgs, records := r.Dispatch(ctx, msg.ToolCalls)
		history.Append(msgs...)
		res.ToolCalls = append(res.ToolCalls, records...)
		if choice.Forces() {
			choice = chat.ToolChoiceAuto()
		}
	}
	r.logger.WarnContext(ctx, "conversation stopped", "history", history.ID(), "iterations", res.Iterations)
	return res, fmt.Errorf("%w (%d)", ErrMaxIterations, r.opts.maxIterations)
}

func (r *Runner) request(history *chat.History, defs []codebridge.Definition, choice *chat.ToolChoice) chat.Request {
	msgs := history.Messages()
	if r.opts.systemPrompt != "" {
		msgs = append([]chat.Message{chat.SystemMessage(r.opts.systemPrompt)}, msgs...)
	}
	req := chat.Request{
		Model:       r.opts.model,
		Messages:    msgs,
		Temperature: r.opts.temperature,
		MaxTokens:   r.opts.maxTokens,
	}
	if len(defs) > 0 {
		req.Tools = defs
		req.ToolChoice = choice
		req.ParallelToolCalls = r.opts.parallel
	}
	return req
}

// Dispatch executes calls and returns one tool message per call, in call
// order. Calls with undecodable arguments are answered with the decoding error
// without reaching the registry.
func (r *Runner) Dispatch(ctx context.Context, calls []chat.ToolCall) ([]chat.Message, []ToolCallRecord) {
	records := make([]ToolCallRecord, len(calls))
	batch := make([]codebridge.ToolCall, 0, len(calls))
	slots := make([]int, 0, len(calls))
	for i, call := range calls {
		records[i].Call = call
		records[i].Result = codebridge.ToolResult{CallID: call.ID, ToolName: call.Function.Name}
		args, err := DecodeArguments(call.Function.Arguments, r.opts.repair)
		if err != nil {
			records[i].Result.Error = err
			continue
		}
		records[i].Arguments = args
		if r.declined(ctx, call) {
			records[i].Result.Error = fmt.Errorf("%w: %q", codebridge.ErrDeclined, call.Function.Name)
			continue
		}
		batch = append(batch, codebridge.ToolCall{ID: call.ID, ToolName: call.Function.Name, Args: args})
		slots = append(slots, i)
	}

	if len(batch) > 0 {
		var results []codebridge.ToolResult
		if r.registry != nil {
			results = r.registry.ExecuteBatch(ctx, batch)
		} else {
			results = make([]codebridge.ToolResult, len(batch))
			for j, c := range batch {
				results[j] = codebridge.ToolResult{
					CallID:   c.ID,
					ToolName: c.ToolName,
					Error:    fmt.Errorf("%w: %q", codebridge.ErrToolNotFound, c.ToolName),
				}
			}
		}
		for j, res := range results {
			records[slots[j]].Result = res
		}
	}

	msgs := make([]chat.Message, len(calls))
	for i, rec := range records {
		r.logResult(ctx, rec)
		msgs[i] = chat.ToolMessage(rec.Call.ID, rec.Call.Function.Name, rec.Result.Content())
	}
	return msgs, records
}

// declined asks the confirm hook about calls to tools marked dangerous.
func (r *Runner) declined(ctx context.Context, call chat.ToolCall) bool {
	if r.opts.confirm == nil || r.registry == nil {
		return false
	}
	tool, ok := r.registry.GetTool(call.Function.Name)
	if !ok {
		return false
	}
	tm, ok := tool.(codebridge.ToolMetadata)
	if !ok || !tm.IsDangerous() {
		return false
	}
	return !r.opts.confirm(ctx, call)
}

// toolAttrs describes the registered tool behind a call for log records.
func (r *Runner) toolAttrs(name string) []any {
	attrs := []any{"tool", name}
	if r.registry == nil {
		return attrs
	}
	tool, ok := r.registry.GetTool(name)
	if !ok {
		return attrs
	}
	tm, ok := tool.(codebridge.ToolMetadata)
	if !ok {
		return attrs
	}
	if v := tm.Version(); v != "" {
		attrs = append(attrs, "version", v)
	}
	if tags := tm.Tags(); len(tags) > 0 {
		attrs = append(attrs, "tags", tags)
	}
	if tm.IsDangerous() {
		attrs = append(attrs, "dangerous", true)
	}
	return attrs
}

func (r *Runner) logResult(ctx context.Context, rec ToolCallRecord) {
	res := rec.Result
	attrs := append(r.toolAttrs(res.ToolName), "call_id", res.CallID)
	switch {
	case res.Error == nil:
		r.logger.DebugContext(ctx, "tool call done",
			append(attrs, "duration", res.Duration.Round(time.Microsecond))...)
	case codebridge.IsClientError(res.Error),
		errors.Is(res.Error, codebridge.ErrToolNotFound),
		errors.Is(res.Error, codebridge.ErrDeclined):
		r.logger.InfoContext(ctx, "tool call rejected", append(attrs, "error", res.Error)...)
	default:
		cause := res.Error
		var se *codebridge.SystemError
		if errors.As(cause, &se) && se.Err != nil {
			cause = se.Err
		}
		r.logger.ErrorContext(ctx, "tool call failed", append(attrs, "error", cause)...)
	}
}

// ensureCallIDs assigns an ID to calls the model left unnamed so tool
// messages can reference them.
func ensureCallIDs(calls []chat.ToolCall) {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
		if calls[i].Type == "" {
			calls[i].Type = chat.ToolCallType
		}
	}
}
