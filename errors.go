package forge

import (
	"errors"
	"fmt"
)

// ForgeError is a structured configuration/lookup failure, the Forge
// analogue of the teacher's *EngineError: a human-readable message plus a
// machine-readable code for programmatic dispatch.
type ForgeError struct {
	Message string
	Code    string
	Cause   error
}

func (e *ForgeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *ForgeError) Unwrap() error { return e.Cause }

// ErrNoChildMatched is raised by the child selector (§4.3) when no entry
// matches. The walk driver treats it as a successful terminal outcome
// (RanToCompletion_NoChildMatched), never surfacing it to the caller.
var ErrNoChildMatched = errors.New("forge: no child matched")

// ErrInvalidRetryPolicy is returned by RetryPolicy validation.
var ErrInvalidRetryPolicy = errors.New("forge: invalid retry policy")

// validateRetryPolicy checks a RetryPolicy's fields against §4.5's backoff
// semantics. A nil policy is valid: it defaults to RetryNone at the retry
// controller. Called from ForgeTree.Validate() for every action's policy.
func validateRetryPolicy(p *RetryPolicy) error {
	if p == nil {
		return nil
	}
	switch p.Type {
	case RetryNone:
		return nil
	case RetryFixedInterval:
		if p.MinBackoffMs <= 0 {
			return fmt.Errorf("%w: FixedInterval requires MinBackoffMs > 0, got %d", ErrInvalidRetryPolicy, p.MinBackoffMs)
		}
		return nil
	case RetryExponentialBackoff:
		if p.MinBackoffMs <= 0 {
			return fmt.Errorf("%w: ExponentialBackoff requires MinBackoffMs > 0, got %d", ErrInvalidRetryPolicy, p.MinBackoffMs)
		}
		if p.MaxBackoffMs < p.MinBackoffMs {
			return fmt.Errorf("%w: ExponentialBackoff requires MaxBackoffMs >= MinBackoffMs, got max=%d min=%d", ErrInvalidRetryPolicy, p.MaxBackoffMs, p.MinBackoffMs)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown RetryPolicyType %d", ErrInvalidRetryPolicy, p.Type)
	}
}

// NodeTimeoutError is raised when a node's action fan-out exceeds its
// node-level timeout (§4.4, §7). It maps the walk to status TimeoutOnNode.
type NodeTimeoutError struct {
	NodeKey string
	Timeout string // human-readable timeout description
}

func (e *NodeTimeoutError) Error() string {
	return fmt.Sprintf("forge: node %q exceeded timeout %s", e.NodeKey, e.Timeout)
}

// ActionTimeoutError is raised when the retry controller exhausts its
// budget without a continuation flag suppressing it (§4.5, §7). It maps the
// walk to status TimeoutOnAction.
type ActionTimeoutError struct {
	NodeKey     string
	ActionKey   string
	ActionName  string
	RetryCount  int
	Policy      RetryPolicyType
	Cause       error
}

func (e *ActionTimeoutError) Error() string {
	return fmt.Sprintf(
		"forge: action timeout on node %q action %q (name %q, retries %d, policy %v)",
		e.NodeKey, e.ActionKey, e.ActionName, e.RetryCount, e.Policy,
	)
}

func (e *ActionTimeoutError) Unwrap() error { return e.Cause }

// EvaluateDynamicPropertyError wraps any non-cancellation failure inside the
// dynamic property evaluator (§4.7, §7). It is never retriable and maps the
// walk to status Failed_EvaluateDynamicProperty.
type EvaluateDynamicPropertyError struct {
	Value     string
	KnownType string
	Cause     error
}

func (e *EvaluateDynamicPropertyError) Error() string {
	return fmt.Sprintf(
		"forge: failed to evaluate dynamic property (value=%q, knownType=%s): %v",
		e.Value, e.KnownType, e.Cause,
	)
}

func (e *EvaluateDynamicPropertyError) Unwrap() error { return e.Cause }

// IsNoChildMatched reports whether err is or wraps ErrNoChildMatched.
func IsNoChildMatched(err error) bool { return errors.Is(err, ErrNoChildMatched) }
