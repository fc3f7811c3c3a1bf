package forge

import (
	"context"
	"reflect"
)

// Action is a host-supplied unit of work associated with an Action-type
// node (§6). Implementations are discovered via the Registry (§4.8).
type Action interface {
	RunAction(ctx context.Context, actx ActionContext) (ActionResponse, error)
}

// ActionContext is materialized per single-action invocation (§4.6).
type ActionContext struct {
	SessionID   string
	NodeKey     string
	ActionKey   string
	ActionName  string
	Input       any
	Properties  any
	UserContext any
	State       ForgeState
}

// ExpressionExecutor compiles and evaluates an expression embedded in a
// schema value, returning a value of the requested type (§4.7, §6). It is
// an injected capability; forge/expr provides a default implementation
// built on expr-lang/expr.
type ExpressionExecutor interface {
	Execute(ctx context.Context, source string, knownType reflect.Type, session Session) (any, error)
}

// ExternalExecutor is a prefix-matched string interpolator that transforms
// a schema string into a value without invoking the expression compiler
// (§4.7 case 2, §6). forge/externalexec provides JSONPath and Env
// implementations.
type ExternalExecutor func(ctx context.Context, payload string) (any, error)

// Callbacks are host-side hooks invoked once per node visit, before and
// after (§4.1, §6). Exceptions propagate and fail the walk.
type Callbacks interface {
	BeforeVisitNode(ctx context.Context, sessionID, nodeKey string, properties any, userContext any) error
	AfterVisitNode(ctx context.Context, sessionID, nodeKey string, properties any, userContext any) error
}

// Session is the observable surface exposed to expressions (so they can
// read prior action responses) and to callers after a walk terminates (§3,
// §6).
type Session interface {
	WalkTree(ctx context.Context, startKey string) (Status, error)
	CancelWalkTree()
	Status() Status

	GetOutput(actionKey string) (any, bool)
	GetLastActionResponse() (ActionResponse, bool)
	GetCurrentTreeNode() (string, TreeNode, bool)
	GetLastTreeAction() (string, bool)
}
