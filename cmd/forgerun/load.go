package main

import (
	"encoding/json"
	"fmt"

	"github.com/forgetree/forge"
)

// jsonTree is the on-disk representation of a ForgeTree. JSON parsing of the
// schema is explicitly out of scope for the core (§1); this loader lives in
// the CLI harness, the one place in the repository allowed to own it.
type jsonTree map[string]jsonNode

type jsonNode struct {
	Type          string                   `json:"type"`
	Actions       []jsonActionEntry        `json:"actions,omitempty"`
	ChildSelector []jsonChildSelector      `json:"childSelector,omitempty"`
	Properties    json.RawMessage          `json:"properties,omitempty"`
	Timeout       json.RawMessage          `json:"timeout,omitempty"`
}

type jsonActionEntry struct {
	Key    string        `json:"key"`
	Action jsonTreeAction `json:"action"`
}

type jsonTreeAction struct {
	Action                        string              `json:"action"`
	Input                         json.RawMessage      `json:"input,omitempty"`
	Properties                    json.RawMessage      `json:"properties,omitempty"`
	Timeout                       json.RawMessage      `json:"timeout,omitempty"`
	RetryPolicy                   *jsonRetryPolicy     `json:"retryPolicy,omitempty"`
	ContinuationOnTimeout         bool                 `json:"continuationOnTimeout,omitempty"`
	ContinuationOnRetryExhaustion bool                 `json:"continuationOnRetryExhaustion,omitempty"`
}

type jsonRetryPolicy struct {
	Type         string `json:"type"`
	MinBackoffMs int64  `json:"minBackoffMs"`
	MaxBackoffMs int64  `json:"maxBackoffMs"`
}

type jsonChildSelector struct {
	ShouldSelect json.RawMessage `json:"shouldSelect,omitempty"`
	Child        string          `json:"child"`
}

// parseTree decodes raw JSON bytes into a forge.ForgeTree.
func parseTree(raw []byte) (forge.ForgeTree, error) {
	var doc jsonTree
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("forgerun: parse tree: %w", err)
	}

	tree := make(forge.ForgeTree, len(doc))
	for key, node := range doc {
		converted, err := convertNode(node)
		if err != nil {
			return nil, fmt.Errorf("forgerun: node %q: %w", key, err)
		}
		tree[key] = converted
	}
	return tree, nil
}

func convertNode(n jsonNode) (forge.TreeNode, error) {
	nodeType, err := parseNodeType(n.Type)
	if err != nil {
		return forge.TreeNode{}, err
	}

	actions := make([]forge.ActionEntry, len(n.Actions))
	for i, a := range n.Actions {
		converted, err := convertTreeAction(a.Action)
		if err != nil {
			return forge.TreeNode{}, err
		}
		actions[i] = forge.ActionEntry{Key: a.Key, Action: converted}
	}

	selectors := make([]forge.ChildSelector, len(n.ChildSelector))
	for i, cs := range n.ChildSelector {
		shouldSelect, err := rawToSchemaValue(cs.ShouldSelect)
		if err != nil {
			return forge.TreeNode{}, err
		}
		selectors[i] = forge.ChildSelector{ShouldSelect: shouldSelect, Child: cs.Child}
	}

	properties, err := rawToSchemaValue(n.Properties)
	if err != nil {
		return forge.TreeNode{}, err
	}
	timeout, err := rawToSchemaValue(n.Timeout)
	if err != nil {
		return forge.TreeNode{}, err
	}

	return forge.TreeNode{
		Type:          nodeType,
		Actions:       actions,
		ChildSelector: selectors,
		Properties:    properties,
		Timeout:       timeout,
	}, nil
}

func convertTreeAction(a jsonTreeAction) (forge.TreeAction, error) {
	input, err := rawToSchemaValue(a.Input)
	if err != nil {
		return forge.TreeAction{}, err
	}
	properties, err := rawToSchemaValue(a.Properties)
	if err != nil {
		return forge.TreeAction{}, err
	}
	timeout, err := rawToSchemaValue(a.Timeout)
	if err != nil {
		return forge.TreeAction{}, err
	}

	var retryPolicy *forge.RetryPolicy
	if a.RetryPolicy != nil {
		policyType, err := parseRetryPolicyType(a.RetryPolicy.Type)
		if err != nil {
			return forge.TreeAction{}, err
		}
		retryPolicy = &forge.RetryPolicy{
			Type:         policyType,
			MinBackoffMs: a.RetryPolicy.MinBackoffMs,
			MaxBackoffMs: a.RetryPolicy.MaxBackoffMs,
		}
	}

	return forge.TreeAction{
		Action:                        a.Action,
		Input:                         input,
		Properties:                    properties,
		Timeout:                       timeout,
		RetryPolicy:                   retryPolicy,
		ContinuationOnTimeout:         a.ContinuationOnTimeout,
		ContinuationOnRetryExhaustion: a.ContinuationOnRetryExhaustion,
	}, nil
}

func parseNodeType(s string) (forge.NodeType, error) {
	switch s {
	case "Leaf":
		return forge.NodeLeaf, nil
	case "Action":
		return forge.NodeAction, nil
	case "Selection", "":
		return forge.NodeSelection, nil
	default:
		return 0, fmt.Errorf("unknown node type %q", s)
	}
}

func parseRetryPolicyType(s string) (forge.RetryPolicyType, error) {
	switch s {
	case "", "None":
		return forge.RetryNone, nil
	case "FixedInterval":
		return forge.RetryFixedInterval, nil
	case "ExponentialBackoff":
		return forge.RetryExponentialBackoff, nil
	default:
		return 0, fmt.Errorf("unknown retry policy type %q", s)
	}
}

func rawToSchemaValue(raw json.RawMessage) (forge.SchemaValue, error) {
	if len(raw) == 0 {
		return forge.Null, nil
	}
	var native any
	if err := json.Unmarshal(raw, &native); err != nil {
		return forge.Null, err
	}
	return forge.FromGo(native), nil
}
