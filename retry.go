package forge

import (
	"context"
	"time"

	"github.com/forgetree/forge/emit"
)

// runRetryController drives one action through repeated invocations under
// its retry policy and action-level timeout (§4.5). It owns the action's
// timeout budget end-to-end: invokeAction only times a single attempt.
func (s *session) runRetryController(ctx context.Context, nodeKey, actionKey string, def ActionDefinition, treeAction TreeAction) error {
	policy := treeAction.RetryPolicy
	if policy == nil {
		policy = &RetryPolicy{Type: RetryNone}
	}

	actionTimeoutMs, err := evaluateTimeoutMs(ctx, s.eval, treeAction.Timeout)
	if err != nil {
		return err
	}

	deadline := time.Time{}
	infinite := actionTimeoutMs < 0
	if !infinite {
		deadline = time.Now().Add(time.Duration(actionTimeoutMs) * time.Millisecond)
	}

	var innerErr error
	var previousWaitMs int64
	retryCount := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		remaining := time.Duration(0)
		if !infinite {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				break
			}
		}

		resp, err := s.invokeAction(ctx, nodeKey, actionKey, def, treeAction, remaining)
		if err == nil {
			_ = resp
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isNonRetriable(err) {
			return err
		}

		innerErr = err

		var waitMs int64
		switch policy.Type {
		case RetryFixedInterval:
			waitMs = policy.MinBackoffMs
		case RetryExponentialBackoff:
			if previousWaitMs == 0 {
				waitMs = policy.MinBackoffMs
			} else {
				waitMs = previousWaitMs * 2
				if waitMs > policy.MaxBackoffMs {
					waitMs = policy.MaxBackoffMs
				}
			}
		default: // RetryNone
			if treeAction.ContinuationOnRetryExhaustion {
				synthetic := ActionResponse{Status: StatusRetryExhaustedOnAction}
				if err := commitActionResponse(ctx, s.state, actionKey, synthetic); err != nil {
					return err
				}
				s.metrics.incSyntheticResponse(StatusRetryExhaustedOnAction)
				s.emit(emit.Event{
					SessionID: s.id, NodeKey: nodeKey, ActionKey: actionKey,
					Msg: "retry_exhausted_continuation",
				})
				return nil
			}
			return &ActionTimeoutError{
				NodeKey: nodeKey, ActionKey: actionKey, ActionName: treeAction.Action,
				RetryCount: retryCount, Policy: policy.Type, Cause: innerErr,
			}
		}
		previousWaitMs = waitMs

		if !infinite && time.Now().Add(time.Duration(waitMs)*time.Millisecond).After(deadline) {
			if treeAction.ContinuationOnTimeout {
				synthetic := ActionResponse{Status: StatusTimeoutOnAction}
				if err := commitActionResponse(ctx, s.state, actionKey, synthetic); err != nil {
					return err
				}
				s.metrics.incSyntheticResponse(StatusTimeoutOnAction)
				return nil
			}
			break
		}

		s.metrics.incRetries(nodeKey, actionKey)
		select {
		case <-time.After(time.Duration(waitMs) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
		retryCount++
	}

	return &ActionTimeoutError{
		NodeKey: nodeKey, ActionKey: actionKey, ActionName: treeAction.Action,
		RetryCount: retryCount, Policy: policy.Type, Cause: innerErr,
	}
}

// isNonRetriable reports whether err belongs to the retry controller's
// non-retriable set (§4.5 step 3): cancellation, ActionTimeout, or an
// evaluator failure.
func isNonRetriable(err error) bool {
	if err == context.Canceled || err == context.DeadlineExceeded {
		return true
	}
	switch err.(type) {
	case *ActionTimeoutError, *EvaluateDynamicPropertyError:
		return true
	}
	return false
}
