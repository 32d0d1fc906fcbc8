// Package chat is the provider-agnostic conversation model shared by the
// completion clients and the tool-calling loop: roles, messages, tool calls,
// requests, responses and a concurrency-safe History.
package chat
