package rules

import (
	"fmt"
	"strings"
	"time"
)

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    EvaluatorLogger
	evaluator Evaluator
}

// WithProgramCache shares cache between compilations. New installs an LRU
// cache when none is supplied.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes custom functions to expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *engineConfig) {
		cfg.registry = registry
	}
}

// WithEvaluatorLogger records every evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *engineConfig) {
		cfg.logger = logger
	}
}

// WithEvaluator bypasses engine selection.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *engineConfig) {
		cfg.evaluator = evaluator
	}
}

// Engine evaluates launcher rule expressions with one evaluator.
type Engine struct {
	name      string
	evaluator Evaluator
	logger    EvaluatorLogger
}

// New builds an engine for name (expr, cel or js). An empty name selects
// expr. The js engine returns ErrNoEvaluator unless built with js_eval.
func New(name string, opts ...Option) (*Engine, error) {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.cache == nil {
		cfg.cache = NewLRUCache(DefaultCacheSize)
	}
	if cfg.logger == nil {
		cfg.logger = noopEvaluatorLogger{}
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = EngineExpr
	}

	evaluator := cfg.evaluator
	if evaluator == nil {
		switch name {
		case EngineExpr:
			evaluator = NewExprEvaluator(ExprWithProgramCache(cfg.cache), ExprWithFunctionRegistry(cfg.registry))
		case EngineCEL:
			evaluator = NewCELEvaluator(CELWithProgramCache(cfg.cache), CELWithFunctionRegistry(cfg.registry))
		case EngineJS:
			if !jsEvaluatorAvailable() {
				return nil, fmt.Errorf("rules: js engine requires the js_eval build tag: %w", ErrNoEvaluator)
			}
			evaluator = NewJSEvaluator(JSWithProgramCache(cfg.cache), JSWithFunctionRegistry(cfg.registry))
		default:
			return nil, fmt.Errorf("rules: unknown engine %q: %w", name, ErrNoEvaluator)
		}
	}

	return &Engine{name: name, evaluator: evaluator, logger: cfg.logger}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return e.name
}

// Evaluate runs expression against ctx.
func (e *Engine) Evaluate(ctx Context, expression string) (any, error) {
	start := time.Now()
	result, err := e.evaluator.Evaluate(ctx, expression)
	if err != nil {
		err = wrapEvaluationError(e.name, expression, ctx.label(), err)
	}
	e.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   e.name,
		Expr:     expression,
		Label:    ctx.label(),
		Duration: time.Since(start),
		Err:      err,
	})
	return result, err
}

// Allow reports whether expression holds. An empty expression always holds.
// Results other than booleans are an error.
func (e *Engine) Allow(ctx Context, expression string) (bool, error) {
	if strings.TrimSpace(expression) == "" {
		return true, nil
	}
	result, err := e.Evaluate(ctx, expression)
	if err != nil {
		return false, err
	}
	allowed, ok := result.(bool)
	if !ok {
		return false, wrapEvaluationError(e.name, expression, ctx.label(), fmt.Errorf("expected bool result, got %T", result))
	}
	return allowed, nil
}
