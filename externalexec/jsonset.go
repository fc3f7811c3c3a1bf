package externalexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"
)

// JSONSet is registered under a prefix such as "JSONSet|". The payload is
// "<jsonText>@@<path>@@<literalValue>"; it returns jsonText with path set to
// literalValue, the write-side counterpart to JSONPath for actions that need
// to patch a JSON blob before handing it to a downstream action.
func JSONSet(ctx context.Context, payload string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parts := strings.SplitN(payload, "@@", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("externalexec: JSONSet payload needs 3 \"@@\"-separated fields, got %d", len(parts))
	}
	jsonText, path, value := parts[0], parts[1], parts[2]

	return sjson.Set(jsonText, path, value)
}
