package openai

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned by New when no API key is configured.
	ErrMissingAPIKey = errors.New("openai: missing API key")
	// ErrNoChoices is returned when a completion carries no choices.
	ErrNoChoices = errors.New("openai: response has no choices")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unexpected response"
	}
	if e.Type != "" {
		return fmt.Sprintf("openai: status %d: %s: %s", e.StatusCode, e.Type, msg)
	}
	return fmt.Sprintf("openai: status %d: %s", e.StatusCode, msg)
}

// Temporary reports whether retrying the same request later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// parseAPIError builds an APIError from an error body of the form
// {"error":{"message":...,"type":...,"code":...}}. Unknown bodies are kept verbatim.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var envelope struct {
		Error struct {
			Message string          `json:"message"`
			Type    string          `json:"type"`
			Code    json.RawMessage `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		apiErr.Message = string(body)
		return apiErr
	}
	apiErr.Message = envelope.Error.Message
	apiErr.Type = envelope.Error.Type
	apiErr.Code = decodeCode(envelope.Error.Code)
	return apiErr
}

// decodeCode accepts the string or numeric codes different servers return.
func decodeCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
