package testutil

import (
	"testing"
	"time"

	"github.com/skosovsky/codebridge"
)

// NewTestRegistry returns a Registry with a long timeout and panic recovery
// enabled. Registration failures fail the test immediately.
func NewTestRegistry(t testing.TB, tools ...codebridge.Tool) *codebridge.Registry {
	t.Helper()
	reg := codebridge.NewRegistry(
		codebridge.WithDefaultTimeout(30*time.Second),
		codebridge.WithRecoverPanics(true),
	)
	if err := reg.Register(tools...); err != nil {
		t.Fatalf("register tools: %v", err)
	}
	return reg
}
