package forge

import (
	"context"
	"reflect"
	"time"

	"golang.org/x/sync/semaphore"
)

// actionResponseType is the known type handed to the evaluator for a
// LeafNodeSummaryAction's input: the schema's own response envelope (§4.2:
// "evaluate treeAction.input with known type ActionResponse").
var actionResponseType = reflect.TypeOf(ActionResponse{})

// visitNode implements the node behavior dispatcher (§4.2).
func (s *session) visitNode(ctx context.Context, nodeKey string, node TreeNode) (string, error) {
	switch node.Type {
	case NodeLeaf:
		return "", s.visitLeaf(ctx, nodeKey, node)
	case NodeAction:
		if err := s.runActionNode(ctx, nodeKey, node); err != nil {
			return "", err
		}
		return selectChild(ctx, s.eval, node.ChildSelector)
	default: // NodeSelection and anything else passthrough
		return selectChild(ctx, s.eval, node.ChildSelector)
	}
}

// visitLeaf handles the reserved LeafNodeSummaryAction (§4.2). Leaves have
// no children.
func (s *session) visitLeaf(ctx context.Context, nodeKey string, node TreeNode) error {
	entry, ok := node.ActionByKey(LeafNodeSummaryAction)
	if !ok {
		return nil
	}
	evaluated, err := s.eval.Evaluate(ctx, entry.Input, actionResponseType)
	if err != nil {
		return err
	}
	resp, ok := evaluated.(ActionResponse)
	if !ok {
		resp = ActionResponse{Data: FromGo(evaluated)}
	}
	return commitActionResponse(ctx, s.state, LeafNodeSummaryAction, resp)
}

// runActionNode fans out the node's actions concurrently, racing them
// against the node-level timeout (§4.4).
func (s *session) runActionNode(ctx context.Context, nodeKey string, node TreeNode) error {
	nodeTimeoutMs, err := evaluateTimeoutMs(ctx, s.eval, node.Timeout)
	if err != nil {
		return err
	}
	if node.Timeout.Kind == KindNull {
		nodeTimeoutMs = s.defaultNodeTimeoutMs
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var timeoutCh <-chan time.Time
	if nodeTimeoutMs > 0 {
		timer := time.NewTimer(timeoutDuration(nodeTimeoutMs))
		defer timer.Stop()
		timeoutCh = timer.C
	}

	var sem *semaphore.Weighted
	if s.maxConcurrentActions > 0 {
		sem = semaphore.NewWeighted(int64(s.maxConcurrentActions))
	}

	errs := make(chan error, len(node.Actions))
	pending := 0

	for _, entry := range node.Actions {
		if entry.Key == LeafNodeSummaryAction {
			continue
		}
		short, err := s.shortCircuitIfRehydrated(ctx, entry.Key)
		if err != nil {
			return err
		}
		if short {
			continue
		}

		def, ok := s.registry.Lookup(entry.Action.Action)
		if !ok {
			// Unknown action names are silently skipped (§4.4).
			continue
		}

		pending++
		actionKey, treeAction, def := entry.Key, entry.Action, def
		go func() {
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					errs <- err
					return
				}
				defer sem.Release(1)
			}
			errs <- s.runRetryController(ctx, nodeKey, actionKey, def, treeAction)
		}()
	}

	for pending > 0 {
		select {
		case <-timeoutCh:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &NodeTimeoutError{NodeKey: nodeKey, Timeout: timeoutDuration(nodeTimeoutMs).String()}

		case err := <-errs:
			pending--
			if err != nil {
				return err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// shortCircuitIfRehydrated implements §4.4's rehydration check and §I2's
// crash-recovery repair.
func (s *session) shortCircuitIfRehydrated(ctx context.Context, actionKey string) (bool, error) {
	if _, ok := getState(ctx, s.state, actionResponseKey(actionKey)); !ok {
		return false, nil
	}
	if err := repairLastTreeActionIfAbsent(ctx, s.state, actionKey); err != nil {
		return false, err
	}
	return true, nil
}
