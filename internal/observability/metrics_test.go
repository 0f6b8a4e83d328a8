package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	// Two instances on separate registries must not collide.
	m1 := NewMetrics(prometheus.NewRegistry())
	m2 := NewMetrics(prometheus.NewRegistry())
	if m1 == nil || m2 == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordEvent(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordEvent("message", "ignored")
	m.RecordEvent("message", "ignored")
	m.RecordEvent("command", "replied")

	expected := `
		# HELP promptbot_events_total Total number of inbound gateway events by kind and outcome
		# TYPE promptbot_events_total counter
		promptbot_events_total{kind="command",outcome="replied"} 1
		promptbot_events_total{kind="message",outcome="ignored"} 2
	`
	if err := testutil.CollectAndCompare(m.EventsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}
}

func TestRecordAIRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAIRequest("chat", "gpt-3.5-turbo", "success", 0.7)
	m.RecordAIRequest("image", "dall-e-2", "error", 3.1)
	m.RecordAIError("image", "rate_limit")

	if got := testutil.ToFloat64(m.AIRequestsTotal.WithLabelValues("chat", "gpt-3.5-turbo", "success")); got != 1 {
		t.Errorf("chat success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.AIErrorsTotal.WithLabelValues("image", "rate_limit")); got != 1 {
		t.Errorf("image rate_limit errors = %v, want 1", got)
	}
	if count := testutil.CollectAndCount(m.AIRequestDuration); count != 2 {
		t.Errorf("expected 2 histogram series, got %d", count)
	}
}

func TestSetChatMode(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SetChatMode(true)
	if got := testutil.ToFloat64(m.ChatMode); got != 1 {
		t.Errorf("chat mode gauge = %v, want 1", got)
	}
	m.SetChatMode(false)
	if got := testutil.ToFloat64(m.ChatMode); got != 0 {
		t.Errorf("chat mode gauge = %v, want 0", got)
	}
}

func TestRegistrationsAndReplies(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordCommandRegistration("error")
	m.RecordReply("message", "success")

	if got := testutil.ToFloat64(m.CommandRegistrations.WithLabelValues("error")); got != 1 {
		t.Errorf("registration errors = %v", got)
	}
	if got := testutil.ToFloat64(m.RepliesTotal.WithLabelValues("message", "success")); got != 1 {
		t.Errorf("replies = %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordEvent("command", "replied")
	m.RecordAIRequest("chat", "m", "success", 1)
	m.RecordAIError("chat", "unknown")
	m.SetChatMode(true)
	m.RecordCommandRegistration("success")
	m.RecordReply("command", "success")
}
