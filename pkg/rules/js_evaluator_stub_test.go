//go:build !js_eval

package rules

import (
	"errors"
	"testing"
)

func TestJSEngineUnavailableWithoutTag(t *testing.T) {
	if _, err := New(EngineJS); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}
