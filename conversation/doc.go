// Package conversation runs the tool-calling loop: send the conversation and
// the tool definitions to a chat.Completer, execute the tool calls the model
// asks for through a codebridge.Registry, feed the results back as tool
// messages and repeat until the model answers in plain text.
//
// Malformed arguments and tool input errors are reported back to the model as
// tool message content so it can correct itself on the next turn; internal
// failures are logged and replaced by a generic message.
package conversation
