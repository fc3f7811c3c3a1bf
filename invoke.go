package forge

import (
	"context"
	"time"

	"github.com/forgetree/forge/emit"
)

// invokeAction runs a single action attempt under the action-level timeout
// race (§4.6). It does not retry; the retry controller in retry.go calls it
// once per attempt.
func (s *session) invokeAction(ctx context.Context, nodeKey, actionKey string, def ActionDefinition, treeAction TreeAction, actionTimeout time.Duration) (ActionResponse, error) {
	invokeCtx := ctx
	var linkedCancel context.CancelFunc
	if treeAction.ContinuationOnTimeout {
		invokeCtx, linkedCancel = context.WithCancel(ctx)
		defer linkedCancel()
	}

	input, err := s.eval.Evaluate(invokeCtx, treeAction.Input, def.InputType)
	if err != nil {
		return ActionResponse{}, err
	}
	properties, err := s.eval.Evaluate(invokeCtx, treeAction.Properties, nil)
	if err != nil {
		return ActionResponse{}, err
	}

	actx := ActionContext{
		SessionID:   s.id,
		NodeKey:     nodeKey,
		ActionKey:   actionKey,
		ActionName:  treeAction.Action,
		Input:       input,
		Properties:  properties,
		UserContext: s.userContext,
		State:       s.state,
	}

	action := def.New()

	type result struct {
		resp ActionResponse
		err  error
	}
	done := make(chan result, 1)

	s.metrics.incInflightActions()
	go func() {
		defer s.metrics.decInflightActions()
		resp, runErr := action.RunAction(invokeCtx, actx)
		done <- result{resp: resp, err: runErr}
	}()

	var timeoutCh <-chan time.Time
	if actionTimeout > 0 {
		timer := time.NewTimer(actionTimeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case r := <-done:
		if r.err != nil {
			return ActionResponse{}, r.err
		}
		if err := commitActionResponse(ctx, s.state, actionKey, r.resp); err != nil {
			return ActionResponse{}, err
		}
		return r.resp, nil

	case <-timeoutCh:
		if ctx.Err() != nil {
			return ActionResponse{}, ctx.Err()
		}
		if treeAction.ContinuationOnTimeout {
			linkedCancel()
			synthetic := ActionResponse{Status: StatusTimeoutOnAction}
			if err := commitActionResponse(ctx, s.state, actionKey, synthetic); err != nil {
				return ActionResponse{}, err
			}
			s.metrics.incSyntheticResponse(StatusTimeoutOnAction)
			s.emit(emit.Event{
				SessionID: s.id, NodeKey: nodeKey, ActionKey: actionKey,
				Msg: "action_timeout_continuation",
			})
			return synthetic, nil
		}
		return ActionResponse{}, &ActionTimeoutError{
			NodeKey:    nodeKey,
			ActionKey:  actionKey,
			ActionName: treeAction.Action,
			Policy:     RetryNone,
		}

	case <-ctx.Done():
		return ActionResponse{}, ctx.Err()
	}
}
