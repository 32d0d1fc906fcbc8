package conversation

import "errors"

var (
	// ErrMaxIterations is returned by Run when the model keeps calling tools
	// past the configured iteration budget.
	ErrMaxIterations = errors.New("conversation: maximum iterations reached")
	// ErrInvalidArguments marks tool call arguments that are not a JSON object.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)
