package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/skosovsky/codebridge"
)

// DecodeArguments turns the raw argument text of a tool call into a JSON object.
// Empty input yields {}. When repair is true, malformed JSON (trailing commas,
// single quotes, truncated objects) is fixed with jsonrepair before giving up.
// Failures are ClientErrors so their reason can be shown to the model.
func DecodeArguments(raw string, repair bool) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return json.RawMessage("{}"), nil
	}
	if json.Valid(trimmed) {
		return objectOrError(trimmed)
	}
	if repair {
		fixed, err := jsonrepair.JSONRepair(string(trimmed))
		if err == nil && json.Valid([]byte(fixed)) {
			return objectOrError(bytes.TrimSpace([]byte(fixed)))
		}
	}
	var probe any
	err := json.Unmarshal(trimmed, &probe)
	return nil, &codebridge.ClientError{
		Reason: fmt.Sprintf("arguments are not valid JSON: %v", err),
		Err:    ErrInvalidArguments,
	}
}

func objectOrError(data []byte) (json.RawMessage, error) {
	if len(data) == 0 || data[0] != '{' {
		return nil, &codebridge.ClientError{
			Reason: "arguments must be a JSON object",
			Err:    ErrInvalidArguments,
		}
	}
	return json.RawMessage(data), nil
}
