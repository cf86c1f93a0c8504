// Package rules evaluates the conditions attached to launcher buttons and
// arguments. Expressions see the root state slices by name (system, main,
// userSettings, ...) plus now, args and platform.
//
// The default engine is expr-lang/expr. CEL (cel-go) is always available; the
// JavaScript engine (goja) is compiled in with the js_eval build tag.
package rules

import (
	"encoding/json"
	"runtime"
	"time"

	launcher "github.com/goliatone/go-launcher"
)

const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Context carries inputs needed when evaluating an expression.
type Context struct {
	State    map[string]any
	Now      *time.Time
	Args     map[string]any
	Platform string
	// Label names what is being evaluated (a button or argument) in errors
	// and logs.
	Label string
}

// NewContext exposes state to expressions.
func NewContext(state launcher.RootState) Context {
	return Context{
		State:    StateEnv(state),
		Platform: runtime.GOOS,
	}
}

// StateEnv converts root state into the map of slices expressions read,
// keyed by the slices' JSON names. Slices not present in state are omitted.
func StateEnv(state launcher.RootState) map[string]any {
	raw, err := json.Marshal(state)
	if err != nil {
		return map[string]any{}
	}
	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil || env == nil {
		return map[string]any{}
	}
	return env
}

func (ctx Context) withDefaults() Context {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.State == nil {
		ctx.State = map[string]any{}
	}
	if ctx.Platform == "" {
		ctx.Platform = runtime.GOOS
	}
	return ctx
}

func (ctx Context) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx Context) label() string {
	if ctx.Label != "" {
		return ctx.Label
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx Context, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}
