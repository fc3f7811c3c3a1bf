package forge

import (
	"context"
	"reflect"
	"time"
)

var int64Type = reflect.TypeOf(int64(0))

// evaluateTimeoutMs resolves a timeout SchemaValue to milliseconds. Null
// (field absent) and the literal -1 both mean infinite, represented here as
// -1 (§3: "-1 denotes infinite; default infinite when absent").
func evaluateTimeoutMs(ctx context.Context, eval *Evaluator, value SchemaValue) (int64, error) {
	if value.Kind == KindNull {
		return -1, nil
	}
	result, err := eval.Evaluate(ctx, value, int64Type)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return -1, nil
	}
}

// timeoutDuration converts a resolved timeout-in-ms to a time.Duration, with
// 0 meaning "no timeout" at the time.Timer level (-1/infinite maps to 0).
func timeoutDuration(ms int64) time.Duration {
	if ms < 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
