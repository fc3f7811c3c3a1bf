package forge

import "reflect"

// ActionDefinition is what the registry resolves an action name to (§3,
// §4.8): a factory for the action implementation plus its declared input
// type, used by the evaluator to coerce TreeAction.Input.
type ActionDefinition struct {
	ActionType reflect.Type
	InputType  reflect.Type
	New        func() Action
}

// Registry maps action name -> ActionDefinition (§4.8). The spec's
// reflection-based discovery ("derives from the base action capability")
// is replaced, per §9's design note, by a build-time registration API: Go's
// generics make a non-Action type impossible to register in the first
// place, so there is nothing left to validate at runtime.
type Registry struct {
	defs map[string]ActionDefinition
}

// NewRegistry creates an empty registry. An absent/nil module in the host
// naturally yields an empty registry (§4.8's "Absent module yields an empty
// map"), since NewRegistry with no Register calls is exactly that.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]ActionDefinition)}
}

// Register adds an action definition under name. T must implement Action;
// this is enforced at compile time by the type constraint, which is the Go
// analogue of the spec's runtime "derives from base action capability"
// check — callers simply cannot construct a non-conforming registration.
func Register[T Action](reg *Registry, name string, newFn func() T, inputType reflect.Type) {
	var zero T
	reg.defs[name] = ActionDefinition{
		ActionType: reflect.TypeOf(zero),
		InputType:  inputType,
		New: func() Action {
			return newFn()
		},
	}
}

// BuildRegistry accepts a ready-made map of name -> definition, for
// hosts that construct ActionDefinitions directly rather than through the
// generic Register helper — this is the "ready-made name→definition map"
// the Out-of-scope section in spec.md §1 describes as the core's actual
// input shape.
func BuildRegistry(defs map[string]ActionDefinition) *Registry {
	r := NewRegistry()
	for name, def := range defs {
		r.defs[name] = def
	}
	return r
}

// Lookup resolves an action name to its definition. Unknown names are
// reported via the bool, matching §4.4's "unknown action names are
// silently skipped" policy at the call site.
func (r *Registry) Lookup(name string) (ActionDefinition, bool) {
	if r == nil {
		return ActionDefinition{}, false
	}
	def, ok := r.defs[name]
	return def, ok
}
