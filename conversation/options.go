package conversation

import (
	"context"
	"log/slog"

	"github.com/skosovsky/codebridge/chat"
)

// DefaultMaxIterations bounds the number of completions per Run.
const DefaultMaxIterations = 8

// Option configures a Runner.
type Option func(*options)

type options struct {
	model         string
	systemPrompt  string
	maxIterations int
	toolChoice    *chat.ToolChoice
	parallel      *bool
	temperature   *float64
	maxTokens     int
	logger        *slog.Logger
	repair        bool
	confirm       ConfirmFunc
}

// ConfirmFunc decides whether a call to a tool marked dangerous may run.
type ConfirmFunc func(ctx context.Context, call chat.ToolCall) bool

func defaultOptions() options {
	return options{
		maxIterations: DefaultMaxIterations,
		repair:        true,
	}
}

// WithModel sets the model name sent with every request.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithSystemPrompt prepends a system message to every request. It is not
// stored in the history.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) {
		o.systemPrompt = prompt
	}
}

// WithMaxIterations bounds completions per Run. 0 means unlimited.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithToolChoice sets tool_choice for the first completion of a Run. A choice
// that forces a call is relaxed to auto afterwards so the model can answer.
func WithToolChoice(c *chat.ToolChoice) Option {
	return func(o *options) {
		o.toolChoice = c
	}
}

// WithParallelToolCalls allows or forbids several tool calls per turn.
func WithParallelToolCalls(enable bool) Option {
	return func(o *options) {
		o.parallel = &enable
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *options) {
		o.temperature = &t
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		o.maxTokens = n
	}
}

// WithLogger sets the logger; nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithArgumentRepair toggles jsonrepair for malformed tool arguments (default on).
func WithArgumentRepair(enable bool) Option {
	return func(o *options) {
		o.repair = enable
	}
}

// WithConfirm gates calls to tools built WithDangerous. A declined call is
// answered with codebridge.ErrDeclined and never reaches the registry.
// Without a ConfirmFunc dangerous tools run like any other.
func WithConfirm(fn ConfirmFunc) Option {
	return func(o *options) {
		o.confirm = fn
	}
}
