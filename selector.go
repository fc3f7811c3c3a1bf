package forge

import (
	"context"
	"reflect"
	"strings"
)

var boolType = reflect.TypeOf(false)

// selectChild walks a node's ChildSelector list in schema order (§4.3): an
// entry whose ShouldSelect is empty or whitespace-only matches
// unconditionally; otherwise ShouldSelect is evaluated as a bool and the
// first true wins. An absent/empty selector list means the node is a
// terminal leaf and the walk simply stops (B3), returning no error; a
// non-empty list with no matching entry raises ErrNoChildMatched instead,
// which the walk driver treats as a successful RanToCompletion_NoChildMatched.
func selectChild(ctx context.Context, eval *Evaluator, selectors []ChildSelector) (string, error) {
	if len(selectors) == 0 {
		return "", nil
	}

	for _, sel := range selectors {
		if sel.ShouldSelect.Kind == KindNull || (sel.ShouldSelect.Kind == KindString && strings.TrimSpace(sel.ShouldSelect.Str) == "") {
			return sel.Child, nil
		}

		result, err := eval.Evaluate(ctx, sel.ShouldSelect, boolType)
		if err != nil {
			return "", err
		}
		if matched, ok := result.(bool); ok && matched {
			return sel.Child, nil
		}
	}
	return "", ErrNoChildMatched
}
