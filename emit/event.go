// Package emit provides observability event emission for a Forge session
// walk, ported from the teacher's graph/emit package and generalized from
// "node" events to "node-or-action" events.
package emit

// Event represents an observability event emitted during a session walk.
//
// The session emits "action_timeout_continuation" and
// "retry_exhausted_continuation" when a continuation flag turns a failure
// into a synthetic response; cmd/forgerun emits "walk_failed".
type Event struct {
	// SessionID identifies the session that emitted this event.
	SessionID string

	// NodeKey identifies which node emitted this event. Empty for
	// session-level events (walk_failed).
	NodeKey string

	// ActionKey identifies which action emitted this event, if any.
	ActionKey string

	// Msg is a short machine-readable event name, e.g.
	// "action_timeout_continuation".
	Msg string

	// Meta contains additional structured data specific to this event.
	Meta map[string]interface{}
}
