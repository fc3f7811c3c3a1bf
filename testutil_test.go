package forge

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// errFakeBoom is a sentinel error for tests asserting wrapping/propagation
// behavior without caring about a specific message.
var errFakeBoom = errors.New("fake: boom")

// memState is an in-memory ForgeState fake for tests, modeled on the
// teacher's hand-rolled mocks (no testify anywhere in the corpus).
type memState struct {
	mu       sync.Mutex
	data     map[string]SchemaValue
	failGet  bool
	failSet  bool
}

func newMemState() *memState {
	return &memState{data: make(map[string]SchemaValue)}
}

func (m *memState) Get(_ context.Context, key string) (SchemaValue, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return Null, false, fmt.Errorf("memState: simulated get failure")
	}
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *memState) Set(_ context.Context, key string, value SchemaValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return fmt.Errorf("memState: simulated set failure")
	}
	m.data[key] = value
	return nil
}

// fakeAction runs fn and returns its result, for driving the retry
// controller and fan-out under precise test control.
type fakeAction struct {
	fn func(ctx context.Context, actx ActionContext) (ActionResponse, error)
}

func (f *fakeAction) RunAction(ctx context.Context, actx ActionContext) (ActionResponse, error) {
	return f.fn(ctx, actx)
}

// fakeExprExecutor evaluates by canned responses keyed by the exact source
// text handed to it, with optional coercion to knownType.
type fakeExprExecutor struct {
	responses map[string]any
	errs      map[string]error
}

func (f *fakeExprExecutor) Execute(_ context.Context, source string, knownType reflect.Type, _ Session) (any, error) {
	if err, ok := f.errs[source]; ok {
		return nil, err
	}
	val, ok := f.responses[source]
	if !ok {
		return nil, fmt.Errorf("fakeExprExecutor: no canned response for %q", source)
	}
	if knownType == nil || val == nil {
		return val, nil
	}
	rv := reflect.ValueOf(val)
	if rv.Type().ConvertibleTo(knownType) {
		return rv.Convert(knownType).Interface(), nil
	}
	return val, nil
}

// fakeCallbacks records Before/After invocation order for P4-style checks.
type fakeCallbacks struct {
	mu     sync.Mutex
	events []string
}

func (c *fakeCallbacks) BeforeVisitNode(_ context.Context, _ string, nodeKey string, _ any, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "before:"+nodeKey)
	return nil
}

func (c *fakeCallbacks) AfterVisitNode(_ context.Context, _ string, nodeKey string, _ any, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "after:"+nodeKey)
	return nil
}
