// Package metrics defines the Prometheus collectors exported by the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the engine registers. All counters carry
// an "engine" namespace so they don't collide with collectors a host
// process may already export.
type Metrics struct {
	GmailCallTotal     *prometheus.CounterVec
	GmailCallDuration  *prometheus.HistogramVec
	ToolCallTotal      *prometheus.CounterVec
	ToolCallDuration    *prometheus.HistogramVec
	RuleApplyTotal     *prometheus.CounterVec
	RuleMatchedTotal   prometheus.Counter
	ActionsAppliedTotal *prometheus.CounterVec
	SessionWriteTotal  *prometheus.CounterVec
	BatchChunkSize     prometheus.Histogram
}

// New registers and returns a Metrics bundle against reg. Pass
// prometheus.NewRegistry() for test isolation, or
// prometheus.DefaultRegisterer-backed registry in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GmailCallTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "gmail",
			Name:      "calls_total",
			Help:      "Gmail API calls by operation and outcome kind.",
		}, []string{"op", "outcome"}),
		GmailCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "engine",
			Subsystem: "gmail",
			Name:      "call_duration_seconds",
			Help:      "Gmail API call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		ToolCallTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Tool dispatch calls by tool name and outcome kind.",
		}, []string{"tool", "outcome"}),
		ToolCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "engine",
			Subsystem: "tool",
			Name:      "call_duration_seconds",
			Help:      "Tool dispatch latency by tool name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		RuleApplyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "rules",
			Name:      "apply_total",
			Help:      "apply_rules_to_mailbox runs by outcome.",
		}, []string{"outcome"}),
		RuleMatchedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "rules",
			Name:      "messages_matched_total",
			Help:      "Messages matched by at least one rule across all runs.",
		}),
		ActionsAppliedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "rules",
			Name:      "actions_applied_total",
			Help:      "Actions applied by action type.",
		}, []string{"action_type"}),
		SessionWriteTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "session",
			Name:      "writes_total",
			Help:      "Session context appends by backend and outcome.",
		}, []string{"backend", "outcome"}),
		BatchChunkSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "engine",
			Subsystem: "batch",
			Name:      "chunk_size",
			Help:      "Size of batch executor chunks dispatched.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}
