package forge

import "context"

// Durable state key suffixes (§3). Full keys are namespaced by the
// ForgeState implementation (typically by session ID); the core only ever
// deals in these suffixes plus an action key prefix.
const (
	keyCTN = "CTN" // current node being walked
	keyLTA = "LTA" // last action whose response was committed
)

func actionResponseKey(actionKey string) string     { return actionKey + "_AR" }
func actionIntermediateKey(actionKey string) string { return actionKey + "_Int" }

// ForgeState is the durable key/value capability the core consumes (§6).
// Implementations live under forge/state; the core treats it purely as an
// interface and never assumes a particular backing store.
//
// Per §7: Get errors are swallowed by the core and surfaced as absence;
// Set errors always propagate. Implementations should therefore only
// return a non-nil error from Get for genuine access failures, never for a
// missing key (signalled instead via the bool return).
type ForgeState interface {
	Get(ctx context.Context, key string) (SchemaValue, bool, error)
	Set(ctx context.Context, key string, value SchemaValue) error
}

// getState reads a key, swallowing errors into "absent" per §7's read
// policy ("the core *catches* on reads, returning absence").
func getState(ctx context.Context, st ForgeState, key string) (SchemaValue, bool) {
	val, ok, err := st.Get(ctx, key)
	if err != nil {
		return Null, false
	}
	return val, ok
}

// setState writes a key; per §7 write errors always propagate.
func setState(ctx context.Context, st ForgeState, key string, val SchemaValue) error {
	return st.Set(ctx, key, val)
}

// commitCurrentNode persists CTN := nodeKey (I3: happens-before BeforeVisitNode).
func commitCurrentNode(ctx context.Context, st ForgeState, nodeKey string) error {
	return setState(ctx, st, keyCTN, StringValue(nodeKey))
}

// commitLastTreeAction persists LTA := actionKey.
func commitLastTreeAction(ctx context.Context, st ForgeState, actionKey string) error {
	return setState(ctx, st, keyLTA, StringValue(actionKey))
}

// commitActionResponse persists <actionKey>_AR then LTA := actionKey, in
// that order (I4: AR write happens-before LTA write).
func commitActionResponse(ctx context.Context, st ForgeState, actionKey string, resp ActionResponse) error {
	encoded := ObjectValue(map[string]SchemaValue{
		"status": StringValue(resp.Status),
		"data":   resp.Data,
	})
	if err := setState(ctx, st, actionResponseKey(actionKey), encoded); err != nil {
		return err
	}
	return commitLastTreeAction(ctx, st, actionKey)
}

// loadActionResponse reads a previously committed <actionKey>_AR, if any.
func loadActionResponse(ctx context.Context, st ForgeState, actionKey string) (ActionResponse, bool) {
	val, ok := getState(ctx, st, actionResponseKey(actionKey))
	if !ok || val.Kind != KindObject {
		return ActionResponse{}, false
	}
	status := ""
	if s, ok := val.Obj["status"]; ok {
		status = s.Str
	}
	data := val.Obj["data"]
	return ActionResponse{Status: status, Data: data}, true
}

// repairLastTreeActionIfAbsent implements I2: if an action's response
// already exists but LTA is absent (crash between AR and LTA commits),
// repair LTA to point at that action before proceeding.
func repairLastTreeActionIfAbsent(ctx context.Context, st ForgeState, actionKey string) error {
	if _, ok := getState(ctx, st, keyLTA); ok {
		return nil
	}
	return commitLastTreeAction(ctx, st, actionKey)
}
