package forge

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestWalkTreeObservesNodeLatency(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	tree := ForgeTree{
		"start": TreeNode{Type: NodeLeaf},
	}
	sess, err := NewSession("s1", tree, newMemState(), nil, NewRegistry(), WithMetrics(metrics))
	if err != nil {
		t.Fatalf("NewSession error = %v", err)
	}
	if _, err := sess.WalkTree(context.Background(), "start"); err != nil {
		t.Fatalf("WalkTree error = %v", err)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather error = %v", err)
	}

	var sampleCount uint64
	for _, mf := range metricFamilies {
		if mf.GetName() != "forge_node_latency_ms" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m, "node_key", "start") && hasLabel(m, "status", "OK") {
				sampleCount = m.GetHistogram().GetSampleCount()
			}
		}
	}
	if sampleCount != 1 {
		t.Errorf("forge_node_latency_ms{node_key=start,status=OK} sample count = %d, want 1", sampleCount)
	}
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
