package forge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible metrics for session walk
// monitoring, ported from the teacher's PrometheusMetrics and generalized
// from node-only to node-and-action granularity.
//
// Metrics exposed (namespaced "forge_"):
//   - inflight_actions (gauge): actions currently executing concurrently.
//   - node_latency_ms (histogram): node visit duration, labeled by node_key and status.
//   - retries_total (counter): retry attempts, labeled by node_key, action_key.
//   - synthetic_responses_total (counter): TimeoutOnAction/RetryExhaustedOnAction
//     responses committed, labeled by status.
//
// Nil-safe: a nil *Metrics receiver on every method is a no-op, so sessions
// built without WithMetrics incur no overhead and need no nil checks at
// call sites.
type Metrics struct {
	inflightActions     prometheus.Gauge
	nodeLatency         *prometheus.HistogramVec
	retries             *prometheus.CounterVec
	syntheticResponses  *prometheus.CounterVec
}

// NewMetrics creates and registers all session metrics with the provided
// registry. A nil registry uses prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		inflightActions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "forge",
			Name:      "inflight_actions",
			Help:      "Current number of actions executing concurrently.",
		}),
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forge",
			Name:      "node_latency_ms",
			Help:      "Node visit duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node_key", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forge",
			Name:      "retries_total",
			Help:      "Cumulative retry attempts across all actions.",
		}, []string{"node_key", "action_key"}),
		syntheticResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forge",
			Name:      "synthetic_responses_total",
			Help:      "Synthetic ActionResponses committed by continuation flags.",
		}, []string{"status"}),
	}
}

func (m *Metrics) incInflightActions() {
	if m == nil {
		return
	}
	m.inflightActions.Inc()
}

func (m *Metrics) decInflightActions() {
	if m == nil {
		return
	}
	m.inflightActions.Dec()
}

func (m *Metrics) observeNodeLatency(nodeKey, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodeLatency.WithLabelValues(nodeKey, status).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) incRetries(nodeKey, actionKey string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(nodeKey, actionKey).Inc()
}

func (m *Metrics) incSyntheticResponse(status string) {
	if m == nil {
		return
	}
	m.syntheticResponses.WithLabelValues(status).Inc()
}
