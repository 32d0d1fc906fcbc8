package codebridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientError(t *testing.T) {
	tests := []struct {
		name   string
		err    *ClientError
		expect string
	}{
		{"with reason", &ClientError{Reason: "bad enum"}, "invalid tool input: bad enum"},
		{"empty reason", &ClientError{Reason: ""}, "invalid tool input: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.err.Error())
		})
	}
}

func TestSystemError(t *testing.T) {
	inner := errors.New("db connection refused")
	err := &SystemError{Err: inner}
	assert.Equal(t, "internal system error during tool execution", err.Error())
	assert.Same(t, inner, err.Unwrap())
}

func TestErrorsIs_As(t *testing.T) {
	wrappedClient := fmt.Errorf("outer: %w", &ClientError{Reason: "x", Err: ErrValidation})
	assert.True(t, IsClientError(wrappedClient))
	assert.False(t, IsSystemError(wrappedClient))
	assert.ErrorIs(t, wrappedClient, ErrValidation)

	wrappedSystem := fmt.Errorf("outer: %w", &SystemError{Err: ErrTimeout})
	assert.True(t, IsSystemError(wrappedSystem))
	assert.False(t, IsClientError(wrappedSystem))
	assert.ErrorIs(t, wrappedSystem, ErrTimeout)

	assert.False(t, IsClientError(nil))
	assert.False(t, IsSystemError(errors.New("plain")))
}

func TestWrapJSONParseError(t *testing.T) {
	err := wrapJSONParseError(errors.New("unexpected end of JSON input"))
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Reason, "json parse error")
}

func TestPanicError(t *testing.T) {
	err := &panicError{p: "boom"}
	assert.Equal(t, "panic: boom", err.Error())
}
