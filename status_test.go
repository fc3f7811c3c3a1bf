package forge

import "testing"

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		Initialized:                   "Initialized",
		Running:                       "Running",
		RanToCompletion:               "RanToCompletion",
		RanToCompletionNoChildMatched: "RanToCompletion_NoChildMatched",
		Cancelled:                     "Cancelled",
		CancelledBeforeExecution:      "CancelledBeforeExecution",
		TimeoutOnNode:                 "TimeoutOnNode",
		TimeoutOnAction:               "TimeoutOnAction",
		FailedEvaluateDynamicProperty: "Failed_EvaluateDynamicProperty",
		Failed:                        "Failed",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	nonTerminal := []Status{Initialized, Running}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("%v.Terminal() = true, want false", s)
		}
	}

	terminal := []Status{
		RanToCompletion, RanToCompletionNoChildMatched, Cancelled,
		CancelledBeforeExecution, TimeoutOnNode, TimeoutOnAction,
		FailedEvaluateDynamicProperty, Failed,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%v.Terminal() = false, want true", s)
		}
	}
}
