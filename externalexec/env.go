package externalexec

import (
	"context"
	"fmt"
	"os"
)

// Env is registered under a prefix such as "Env|". The payload is the
// environment variable name; it returns the variable's value, or an error
// if unset, letting a schema reference host configuration without an
// expression.
func Env(ctx context.Context, payload string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, ok := os.LookupEnv(payload)
	if !ok {
		return nil, fmt.Errorf("externalexec: environment variable %q is not set", payload)
	}
	return val, nil
}
