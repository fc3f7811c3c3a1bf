// Package externalexec provides built-in forge.ExternalExecutor
// implementations for the non-expression "prefix -> value" schema strings
// described in spec §4.7 case 2.
package externalexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONPath is registered under a prefix such as "JSONPath|" (§2's domain
// stack note). The payload is "<jsonText>@@<gjsonPath>"; it reads a value
// out of a JSON blob without invoking the expression compiler, useful for
// pulling a field out of an upstream HTTP action's raw response.
func JSONPath(ctx context.Context, payload string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	const sep = "@@"
	idx := strings.Index(payload, sep)
	if idx < 0 {
		return nil, fmt.Errorf("externalexec: JSONPath payload missing %q separator", sep)
	}
	jsonText, path := payload[:idx], payload[idx+len(sep):]

	result := gjson.Get(jsonText, path)
	if !result.Exists() {
		return nil, nil
	}
	return result.Value(), nil
}
