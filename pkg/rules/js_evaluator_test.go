//go:build js_eval

package rules

import "testing"

func TestJSEngineEvaluatesState(t *testing.T) {
	engine, err := New(EngineJS, WithFunctionRegistry(shoutRegistry(t)))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	ok, err := engine.Allow(testContext(t), `main.isGameRunning && shout(userSettings.theme) === "LIGHT" && platform === "plan9"`)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !ok {
		t.Fatalf("expected rule to hold")
	}
}
