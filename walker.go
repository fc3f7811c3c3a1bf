package forge

import (
	"context"
	"sync"
	"time"

	"github.com/forgetree/forge/emit"
)

// session is the concrete Session implementation: the walk driver (§4.1)
// plus the observable query surface (§6). One session is single-use per
// walk, per §3's lifecycle note.
type session struct {
	id       string
	tree     ForgeTree
	state    ForgeState
	registry *Registry
	eval     *Evaluator

	callbacks            Callbacks
	userContext          any
	maxConcurrentActions int
	defaultNodeTimeoutMs int64

	metrics *Metrics
	emitter emit.Emitter

	mu              sync.Mutex
	status          Status
	cancelFunc      context.CancelFunc
	cancelRequested bool
	currentNodeKey  string
}

// NewSession constructs a Session bound to tree, state, an expression
// executor, and a registry, configured by the given options (§3's
// lifecycle, §6's injected capabilities).
func NewSession(id string, tree ForgeTree, state ForgeState, exprExec ExpressionExecutor, registry *Registry, opts ...Option) (Session, error) {
	if err := tree.Validate(); err != nil {
		return nil, err
	}

	cfg := &sessionConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.emitter == nil {
		cfg.emitter = emit.NewNullEmitter()
	}

	s := &session{
		id:                   id,
		tree:                 tree,
		state:                state,
		registry:             registry,
		callbacks:            cfg.callbacks,
		userContext:          cfg.userContext,
		maxConcurrentActions: cfg.maxConcurrentActions,
		defaultNodeTimeoutMs: cfg.defaultNodeTimeoutMs,
		metrics:              cfg.metrics,
		emitter:              cfg.emitter,
		status:               Initialized,
	}
	s.eval = NewEvaluator(exprExec, cfg.externalExecutors, s)
	return s, nil
}

func (s *session) emit(e emit.Event) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(e)
}

func (s *session) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Status returns the session's current status, observable during and after
// execution (§4.1).
func (s *session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CancelWalkTree requests cancellation of the walk, whether it has started
// yet or not (§3, §5).
func (s *session) CancelWalkTree() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelRequested = true
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
}

// WalkTree runs the walk driver loop to a terminal status (§4.1).
func (s *session) WalkTree(ctx context.Context, startKey string) (Status, error) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancelFunc = cancel
	requestedBefore := s.cancelRequested
	s.status = Running
	s.mu.Unlock()

	defer cancel()

	if requestedBefore {
		s.setStatus(CancelledBeforeExecution)
		return CancelledBeforeExecution, context.Canceled
	}

	current := startKey
	started := false

	for current != "" {
		if err := commitCurrentNode(ctx, s.state, current); err != nil {
			s.setStatus(Failed)
			cancel()
			return Failed, err
		}
		s.mu.Lock()
		s.currentNodeKey = current
		s.mu.Unlock()

		if ctx.Err() != nil {
			st := Cancelled
			if !started {
				st = CancelledBeforeExecution
			}
			s.setStatus(st)
			cancel()
			return st, ctx.Err()
		}
		started = true

		node, ok := s.tree[current]
		if !ok {
			err := &ForgeError{Message: "unknown node key " + current, Code: "UNKNOWN_NODE"}
			s.setStatus(Failed)
			cancel()
			return Failed, err
		}

		evaluatedProps, err := s.eval.Evaluate(ctx, node.Properties, nil)
		if err != nil {
			st := mapErrToStatus(err)
			s.setStatus(st)
			cancel()
			return st, err
		}

		if s.callbacks != nil {
			if err := s.callbacks.BeforeVisitNode(ctx, s.id, current, evaluatedProps, s.userContext); err != nil {
				s.afterVisit(ctx, current, evaluatedProps)
				st := mapErrToStatus(err)
				s.setStatus(st)
				cancel()
				return st, err
			}
		}

		visitStart := time.Now()
		next, visitErr := s.visitNode(ctx, current, node)
		s.metrics.observeNodeLatency(current, latencyStatusLabel(visitErr), time.Since(visitStart))

		s.afterVisit(ctx, current, evaluatedProps)

		if visitErr != nil {
			if IsNoChildMatched(visitErr) {
				s.setStatus(RanToCompletionNoChildMatched)
				return RanToCompletionNoChildMatched, nil
			}
			st := mapErrToStatus(visitErr)
			s.setStatus(st)
			cancel()
			return st, visitErr
		}

		current = next
	}

	s.setStatus(RanToCompletion)
	return RanToCompletion, nil
}

func (s *session) afterVisit(ctx context.Context, nodeKey string, evaluatedProps any) {
	if s.callbacks == nil {
		return
	}
	// AfterVisitNode is invoked unconditionally (§4.1 step 6, I4's sibling
	// invariant "matching exit for every entry"); its own error, if any, is
	// swallowed here rather than overriding the original outcome, since the
	// walker has already decided the terminal status from visitNode.
	_ = s.callbacks.AfterVisitNode(ctx, s.id, nodeKey, evaluatedProps, s.userContext)
}

// latencyStatusLabel reduces a visitNode outcome to the label used for the
// forge_node_latency_ms histogram: "OK" on success, RanToCompletion_
// NoChildMatched's name on that terminal outcome, or the mapped failure
// status otherwise.
func latencyStatusLabel(visitErr error) string {
	if visitErr == nil {
		return "OK"
	}
	if IsNoChildMatched(visitErr) {
		return RanToCompletionNoChildMatched.String()
	}
	return mapErrToStatus(visitErr).String()
}

// mapErrToStatus implements §4.1's exception -> status table.
func mapErrToStatus(err error) Status {
	if err == context.Canceled || err == context.DeadlineExceeded {
		return Cancelled
	}
	switch err.(type) {
	case *ActionTimeoutError:
		return TimeoutOnAction
	case *NodeTimeoutError:
		return TimeoutOnNode
	case *EvaluateDynamicPropertyError:
		return FailedEvaluateDynamicProperty
	default:
		return Failed
	}
}

// GetOutput returns the committed response data for actionKey, if any.
func (s *session) GetOutput(actionKey string) (any, bool) {
	resp, ok := loadActionResponse(context.Background(), s.state, actionKey)
	if !ok {
		return nil, false
	}
	return resp.Data.AsGo(), true
}

// GetLastActionResponse returns the response for the most recently committed
// action (LTA), if any.
func (s *session) GetLastActionResponse() (ActionResponse, bool) {
	lastKey, ok := s.GetLastTreeAction()
	if !ok {
		return ActionResponse{}, false
	}
	return loadActionResponse(context.Background(), s.state, lastKey)
}

// GetCurrentTreeNode returns the most recently committed current node.
func (s *session) GetCurrentTreeNode() (string, TreeNode, bool) {
	s.mu.Lock()
	key := s.currentNodeKey
	s.mu.Unlock()
	if key == "" {
		return "", TreeNode{}, false
	}
	node, ok := s.tree[key]
	return key, node, ok
}

// GetLastTreeAction returns the LTA state key's value, if committed.
func (s *session) GetLastTreeAction() (string, bool) {
	val, ok := getState(context.Background(), s.state, keyLTA)
	if !ok || val.Kind != KindString {
		return "", false
	}
	return val.Str, true
}
