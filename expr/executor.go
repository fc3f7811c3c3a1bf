// Package expr provides the default forge.ExpressionExecutor, compiling and
// evaluating the bodies stripped from "C#|..." / "C#<T>|..." schema strings
// via github.com/expr-lang/expr.
package expr

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/forgetree/forge"
)

// Env is the variable environment exposed to compiled expressions: the
// session itself (so expressions can call GetOutput/GetLastActionResponse),
// plus the opaque Dependencies value given to NewExecutor (forge.NewSession
// does not supply it).
type Env struct {
	Session      forge.Session
	Dependencies any
}

// Executor is a forge.ExpressionExecutor backed by expr-lang/expr. Compiled
// programs are cached by source text plus known type; per the module's Non-goals, evaluated
// *results* are never cached, only the compiled form.
type Executor struct {
	dependencies any

	mu    sync.Mutex
	cache map[string]*vm.Program
}

// NewExecutor creates an Executor. dependencies is exposed to expressions as
// env.Dependencies.
func NewExecutor(dependencies any) *Executor {
	return &Executor{
		dependencies: dependencies,
		cache:        make(map[string]*vm.Program),
	}
}

// Execute compiles (or reuses a cached compilation of) source and runs it
// against an Env built from session and the executor's dependencies,
// converting the result to knownType when one is given.
func (e *Executor) Execute(ctx context.Context, source string, knownType reflect.Type, session forge.Session) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cacheKey := source
	if knownType != nil {
		cacheKey = source + "|" + knownType.String()
	}
	program, err := e.compile(cacheKey, source, knownType)
	if err != nil {
		return nil, fmt.Errorf("expr: compile %q: %w", source, err)
	}

	env := Env{Session: session, Dependencies: e.dependencies}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("expr: run %q: %w", source, err)
	}

	return coerce(result, knownType)
}

func (e *Executor) compile(cacheKey, source string, knownType reflect.Type) (*vm.Program, error) {
	e.mu.Lock()
	if p, ok := e.cache[cacheKey]; ok {
		e.mu.Unlock()
		return p, nil
	}
	e.mu.Unlock()

	opts := []expr.Option{expr.Env(Env{}), expr.AllowUndefinedVariables()}
	if knownType != nil {
		opts = append(opts, expr.AsKind(knownType.Kind()))
	}

	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[cacheKey] = program
	e.mu.Unlock()
	return program, nil
}

func coerce(result any, knownType reflect.Type) (any, error) {
	if knownType == nil || result == nil {
		return result, nil
	}
	rv := reflect.ValueOf(result)
	if rv.Type() == knownType {
		return result, nil
	}
	if rv.Type().ConvertibleTo(knownType) {
		return rv.Convert(knownType).Interface(), nil
	}
	return result, nil
}
