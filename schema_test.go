package forge

import (
	"errors"
	"testing"
)

func TestValueKindString(t *testing.T) {
	cases := map[ValueKind]string{
		KindNull:   "null",
		KindString: "string",
		KindNumber: "number",
		KindBool:   "bool",
		KindArray:  "array",
		KindObject: "object",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("ValueKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestSchemaValueRoundTrip(t *testing.T) {
	native := map[string]any{
		"name":  "forge",
		"count": float64(3),
		"ok":    true,
		"tags":  []any{"a", "b"},
		"nil":   nil,
	}

	sv := FromGo(native)
	if sv.Kind != KindObject {
		t.Fatalf("FromGo(map) returned kind %v, want KindObject", sv.Kind)
	}

	back := sv.AsGo()
	backMap, ok := back.(map[string]any)
	if !ok {
		t.Fatalf("AsGo() returned %T, want map[string]any", back)
	}

	if backMap["name"] != "forge" {
		t.Errorf("name = %v, want forge", backMap["name"])
	}
	if backMap["count"] != float64(3) {
		t.Errorf("count = %v, want 3", backMap["count"])
	}
	if backMap["ok"] != true {
		t.Errorf("ok = %v, want true", backMap["ok"])
	}
	if backMap["nil"] != nil {
		t.Errorf("nil = %v, want nil", backMap["nil"])
	}
	tags, ok := backMap["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("tags = %v, want [a b]", backMap["tags"])
	}
}

func TestSchemaValueIsNull(t *testing.T) {
	if !Null.IsNull() {
		t.Error("Null.IsNull() = false, want true")
	}
	if StringValue("").IsNull() {
		t.Error("empty StringValue.IsNull() = true, want false")
	}
}

func TestForgeTreeValidateDuplicateActionKey(t *testing.T) {
	tree := ForgeTree{
		"n1": TreeNode{
			Type: NodeAction,
			Actions: []ActionEntry{
				{Key: "a1", Action: TreeAction{Action: "X"}},
				{Key: "a1", Action: TreeAction{Action: "Y"}},
			},
		},
	}
	err := tree.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want duplicate action key error")
	}
	fe, ok := err.(*ForgeError)
	if !ok || fe.Code != "DUPLICATE_ACTION_KEY" {
		t.Errorf("Validate() error = %v, want DUPLICATE_ACTION_KEY", err)
	}
}

func TestForgeTreeValidateLeafSummaryPlacement(t *testing.T) {
	t.Run("summary action on non-leaf is rejected", func(t *testing.T) {
		tree := ForgeTree{
			"n1": TreeNode{
				Type: NodeAction,
				Actions: []ActionEntry{
					{Key: LeafNodeSummaryAction, Action: TreeAction{Action: "X"}},
				},
			},
		}
		if err := tree.Validate(); err == nil {
			t.Fatal("Validate() = nil, want INVALID_LEAF_SUMMARY error")
		}
	})

	t.Run("summary action alone on leaf is valid", func(t *testing.T) {
		tree := ForgeTree{
			"n1": TreeNode{
				Type: NodeLeaf,
				Actions: []ActionEntry{
					{Key: LeafNodeSummaryAction, Action: TreeAction{Action: "X"}},
				},
			},
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("summary action alongside another action on leaf is rejected", func(t *testing.T) {
		tree := ForgeTree{
			"n1": TreeNode{
				Type: NodeLeaf,
				Actions: []ActionEntry{
					{Key: LeafNodeSummaryAction, Action: TreeAction{Action: "X"}},
					{Key: "extra", Action: TreeAction{Action: "Y"}},
				},
			},
		}
		if err := tree.Validate(); err == nil {
			t.Fatal("Validate() = nil, want INVALID_LEAF_SUMMARY error")
		}
	})
}

func TestValidateRetryPolicy(t *testing.T) {
	cases := []struct {
		name    string
		policy  *RetryPolicy
		wantErr bool
	}{
		{"nil policy is valid", nil, false},
		{"RetryNone is valid", &RetryPolicy{Type: RetryNone}, false},
		{"FixedInterval with positive backoff", &RetryPolicy{Type: RetryFixedInterval, MinBackoffMs: 10}, false},
		{"FixedInterval with zero backoff", &RetryPolicy{Type: RetryFixedInterval, MinBackoffMs: 0}, true},
		{"ExponentialBackoff well-formed", &RetryPolicy{Type: RetryExponentialBackoff, MinBackoffMs: 10, MaxBackoffMs: 100}, false},
		{"ExponentialBackoff zero min", &RetryPolicy{Type: RetryExponentialBackoff, MinBackoffMs: 0, MaxBackoffMs: 100}, true},
		{"ExponentialBackoff max less than min", &RetryPolicy{Type: RetryExponentialBackoff, MinBackoffMs: 100, MaxBackoffMs: 10}, true},
		{"unknown policy type", &RetryPolicy{Type: RetryPolicyType(99)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRetryPolicy(tc.policy)
			if tc.wantErr && err == nil {
				t.Error("validateRetryPolicy() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("validateRetryPolicy() = %v, want nil", err)
			}
			if tc.wantErr && !errors.Is(err, ErrInvalidRetryPolicy) {
				t.Errorf("validateRetryPolicy() = %v, want wrapping ErrInvalidRetryPolicy", err)
			}
		})
	}
}

func TestForgeTreeValidateRejectsInvalidRetryPolicy(t *testing.T) {
	tree := ForgeTree{
		"n1": TreeNode{
			Type: NodeAction,
			Actions: []ActionEntry{
				{Key: "a1", Action: TreeAction{
					Action:      "X",
					RetryPolicy: &RetryPolicy{Type: RetryFixedInterval, MinBackoffMs: 0},
				}},
			},
		},
	}
	err := tree.Validate()
	if !errors.Is(err, ErrInvalidRetryPolicy) {
		t.Errorf("Validate() = %v, want wrapping ErrInvalidRetryPolicy", err)
	}
}

func TestTreeNodeActionByKey(t *testing.T) {
	node := TreeNode{Actions: []ActionEntry{
		{Key: "a", Action: TreeAction{Action: "A"}},
		{Key: "b", Action: TreeAction{Action: "B"}},
	}}

	if a, ok := node.ActionByKey("b"); !ok || a.Action != "B" {
		t.Errorf("ActionByKey(b) = %v, %v, want B, true", a, ok)
	}
	if _, ok := node.ActionByKey("missing"); ok {
		t.Error("ActionByKey(missing) = true, want false")
	}
}
