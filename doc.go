// Package codebridge turns typed Go functions into tools a chat model can call.
//
// # Overview
//
// A chat-completion API accepts a list of function definitions (JSON Schema for the
// arguments) and may answer with tool calls: a function name plus JSON-encoded
// arguments. This package covers the local half of that exchange: derive the schema
// from an argument struct, validate and decode the model's arguments, dispatch to the
// Go function, and produce the text that goes back into the conversation.
//
// Pipeline: Go function + argument struct → NewTool (reflection + schema) → Tool →
// Registry → Definitions (sent to the model) → Execute (decode, validate, call,
// marshal) → ToolResult.Content (sent back to the model).
//
// # Key concepts
//
//   - One set of struct tags drives both the schema shown to the model and the
//     validation of the arguments it sends back.
//   - ClientError carries a readable reason back to the model so it can correct its
//     arguments; SystemError hides internal failures.
//   - ExecuteBatch runs every call of a single model turn; one failure does not
//     cancel the others.
//
// The chat, openai and conversation subpackages send definitions to a chat API and
// run the request → tool call → follow-up loop.
//
// # Example
//
//	type Args struct {
//	    Location string `json:"location" description:"City and state, e.g. Boston, MA"`
//	    Unit     string `json:"unit,omitempty" enum:"celsius,fahrenheit" default:"celsius"`
//	}
//	type Out struct { Temp float64 `json:"temp"` }
//	tool, err := codebridge.NewTool("get_current_weather", "Get the current weather",
//	    func(_ context.Context, a Args) (Out, error) { return Out{Temp: 22.5}, nil })
//	if err != nil { ... }
//	reg := codebridge.NewRegistry()
//	reg.Register(tool)
//	defs := reg.Definitions()
//	res := reg.Execute(ctx, codebridge.ToolCall{ID: "1", ToolName: "get_current_weather", Args: []byte(`{"location":"Boston"}`)})
//	fmt.Println(res.Content())
package codebridge
