package actions

import (
	"context"
	"time"

	"github.com/forgetree/forge"
)

// NoopAction commits an "OK" response whose Data echoes its input, useful for schema wiring tests
// that exercise fan-out/selection behavior without a real external call.
type NoopAction struct{}

// RunAction implements forge.Action.
func (NoopAction) RunAction(ctx context.Context, actx forge.ActionContext) (forge.ActionResponse, error) {
	if err := ctx.Err(); err != nil {
		return forge.ActionResponse{}, err
	}
	return forge.ActionResponse{Status: "OK", Data: forge.FromGo(actx.Input)}, nil
}

// SleepInput is SleepAction's declared input type: a delay in milliseconds.
type SleepInput struct {
	DelayMs int64
}

// SleepAction sleeps for SleepInput.DelayMs (honoring ctx cancellation),
// useful for exercising node/action timeout races in tests.
type SleepAction struct{}

// RunAction implements forge.Action.
func (SleepAction) RunAction(ctx context.Context, actx forge.ActionContext) (forge.ActionResponse, error) {
	delay, _ := actx.Input.(SleepInput)
	select {
	case <-time.After(time.Duration(delay.DelayMs) * time.Millisecond):
		return forge.ActionResponse{Status: "OK"}, nil
	case <-ctx.Done():
		return forge.ActionResponse{}, ctx.Err()
	}
}
