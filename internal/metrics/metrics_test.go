package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllCollectorsUnderEngineNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.GmailCallTotal.WithLabelValues("messages.list", "ok").Inc()
	m.ToolCallTotal.WithLabelValues("list_emails", "ok").Inc()
	m.RuleApplyTotal.WithLabelValues("ok").Inc()
	m.RuleMatchedTotal.Inc()
	m.ActionsAppliedTotal.WithLabelValues("trash").Inc()
	m.SessionWriteTotal.WithLabelValues("memory", "ok").Inc()
	m.BatchChunkSize.Observe(100)
	m.GmailCallDuration.WithLabelValues("messages.list").Observe(0.05)
	m.ToolCallDuration.WithLabelValues("list_emails").Observe(0.01)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"engine_gmail_calls_total",
		"engine_gmail_call_duration_seconds",
		"engine_tool_calls_total",
		"engine_tool_call_duration_seconds",
		"engine_rules_apply_total",
		"engine_rules_messages_matched_total",
		"engine_rules_actions_applied_total",
		"engine_session_writes_total",
		"engine_batch_chunk_size",
	} {
		assert.True(t, names[want], "missing metric family %q", want)
	}
}

func TestNew_CounterValuesReflectIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RuleMatchedTotal.Inc()
	m.RuleMatchedTotal.Inc()

	var metric dto.Metric
	require.NoError(t, m.RuleMatchedTotal.Write(&metric))
	assert.Equal(t, float64(2), metric.GetCounter().GetValue())
}
