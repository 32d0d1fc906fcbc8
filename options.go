package codebridge

import (
	"context"
	"time"
)

// toolOptions is what NewTool and NewDynamicTool accept beyond name, description
// and handler. The metadata fields surface through ToolMetadata.
type toolOptions struct {
	strict    bool
	timeout   time.Duration
	tags      []string
	version   string
	dangerous bool
}

// ToolOption configures a tool built by NewTool or NewDynamicTool.
type ToolOption func(*toolOptions)

// WithStrict emits a structured-outputs schema: every object is closed with
// additionalProperties false and lists all its properties as required, and the
// definition carries "strict": true. Properties with a default stay required in
// the advertised schema; when a model omits one anyway the default is filled in
// before validation. Without WithStrict defaulted properties are optional.
func WithStrict() ToolOption {
	return func(o *toolOptions) {
		o.strict = true
	}
}

// WithTimeout bounds one execution of the tool. It overrides the registry default.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags labels the tool. Tags are listed by `codebridge tools --list` and
// attached to the runner's tool call log records.
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// WithVersion records the tool version shown next to its name in listings and logs.
func WithVersion(version string) ToolOption {
	return func(o *toolOptions) {
		o.version = version
	}
}

// WithDangerous marks a tool with side effects. A conversation.Runner built with
// conversation.WithConfirm asks before every call to such a tool.
func WithDangerous() ToolOption {
	return func(o *toolOptions) {
		o.dangerous = true
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	onBefore       func(context.Context, ToolCall)
	onAfter        func(context.Context, ToolCall, ToolResult, time.Duration)
}

func defaultRegistryOptions() registryOptions {
	return registryOptions{
		timeout:        5 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
}

// WithDefaultTimeout bounds calls to tools that set no WithTimeout of their own.
// Zero disables the bound. The default is five seconds.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency caps how many calls run at once across the registry.
// n <= 0 removes the cap.
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics turns a panicking handler into a SystemError result. On by default.
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithOnBeforeExecute runs fn once the call has a concurrency slot, right before the handler.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute runs fn after every executed call, failed and panicking ones included.
// Calls rejected before execution (unknown tool, shutdown, no free slot before
// the deadline) do not reach it.
func WithOnAfterExecute(fn func(context.Context, ToolCall, ToolResult, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}
