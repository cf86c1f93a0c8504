package rules

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	launcher "github.com/goliatone/go-launcher"
)

// celMaxArity bounds the argument count of registry functions exposed to CEL.
const celMaxArity = 3

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	env      *celgo.Env
	envErr   error
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Every slice name
// is declared as a dynamic variable so one environment serves both modes.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.env, e.envErr = e.buildEnv()
	return e
}

func (e *celEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{program: program, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if e.envErr != nil {
		return nil, wrapEvaluatorError(EngineCEL, e.envErr)
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(EngineCEL + ":" + expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", issues.Err())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(EngineCEL+":"+expression, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("platform", celgo.StringType),
	}
	for _, name := range launcher.ModeFull.Slices() {
		opts = append(opts, celgo.Variable(string(name), celgo.DynType))
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			opts = append(opts, celgo.Function(name, e.overloads(name, name, 0)...))
		}
		opts = append(opts, celgo.Function("call", e.overloads("call", "", 1)...))
	}
	return celgo.NewEnv(opts...)
}

// overloads declares name for 0..celMaxArity dynamic arguments. When fixed
// is empty the first argument is the string name of the registry function.
func (e *celEvaluator) overloads(name, fixed string, leading int) []celgo.FunctionOpt {
	out := make([]celgo.FunctionOpt, 0, celMaxArity+1)
	for arity := 0; arity <= celMaxArity; arity++ {
		args := make([]*celgo.Type, 0, leading+arity)
		if leading > 0 {
			args = append(args, celgo.StringType)
		}
		for i := 0; i < arity; i++ {
			args = append(args, celgo.DynType)
		}
		id := fmt.Sprintf("%s_dyn_%d", name, arity)
		out = append(out, celgo.Overload(id, args, celgo.DynType, celgo.FunctionBinding(e.binding(fixed))))
	}
	return out
}

func (e *celEvaluator) binding(fixed string) func(values ...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		name := fixed
		if name == "" {
			if len(values) == 0 {
				return types.NewErr("rules: call requires function name")
			}
			str, ok := values[0].Value().(string)
			if !ok {
				return types.NewErr("rules: call name must be string")
			}
			name = str
			values = values[1:]
		}
		args := make([]any, 0, len(values))
		for _, val := range values {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celCompiledRule struct {
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx Context) (any, error) {
	ctx = ctx.withDefaults()
	activation := make(map[string]any, len(ctx.State)+3)
	for key, value := range ctx.State {
		activation[key] = value
	}
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	activation["platform"] = ctx.Platform

	out, _, err := r.program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, r.expression, ctx.label(), err)
	}
	return out.Value(), nil
}
