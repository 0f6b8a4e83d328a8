package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the bot's Prometheus metrics.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// EventsTotal counts inbound events.
	// Labels: kind (command|message), outcome (ignored|replied|failed)
	EventsTotal *prometheus.CounterVec

	// AIRequestsTotal counts provider calls.
	// Labels: operation (image|chat), model, status (success|error)
	AIRequestsTotal *prometheus.CounterVec

	// AIRequestDuration measures provider call latency in seconds.
	// Labels: operation, model
	AIRequestDuration *prometheus.HistogramVec

	// AIErrorsTotal counts provider failures by classified reason.
	// Labels: operation, reason
	AIErrorsTotal *prometheus.CounterVec

	// ChatMode is 1 while chat mode is active.
	ChatMode prometheus.Gauge

	// CommandRegistrations counts bulk command publishes.
	// Labels: status (success|error)
	CommandRegistrations *prometheus.CounterVec

	// RepliesTotal counts outbound replies.
	// Labels: kind, status (success|error)
	RepliesTotal *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptbot_events_total",
				Help: "Total number of inbound gateway events by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		AIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptbot_ai_requests_total",
				Help: "Total number of AI provider requests by operation, model, and status",
			},
			[]string{"operation", "model", "status"},
		),

		AIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promptbot_ai_request_duration_seconds",
				Help:    "Duration of AI provider requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"operation", "model"},
		),

		AIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptbot_ai_errors_total",
				Help: "Total number of AI provider errors by operation and reason",
			},
			[]string{"operation", "reason"},
		),

		ChatMode: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "promptbot_chat_mode_active",
				Help: "1 while the bot replies to every message, 0 otherwise",
			},
		),

		CommandRegistrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptbot_command_registrations_total",
				Help: "Total number of slash command bulk registrations by status",
			},
			[]string{"status"},
		),

		RepliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptbot_replies_total",
				Help: "Total number of replies sent by event kind and status",
			},
			[]string{"kind", "status"},
		),
	}
}

// RecordEvent counts an inbound event with its outcome.
func (m *Metrics) RecordEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordAIRequest records one provider call.
func (m *Metrics) RecordAIRequest(operation, model, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.AIRequestsTotal.WithLabelValues(operation, model, status).Inc()
	m.AIRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordAIError counts a classified provider failure.
func (m *Metrics) RecordAIError(operation, reason string) {
	if m == nil {
		return
	}
	m.AIErrorsTotal.WithLabelValues(operation, reason).Inc()
}

// SetChatMode mirrors the chat mode flag.
func (m *Metrics) SetChatMode(active bool) {
	if m == nil {
		return
	}
	if active {
		m.ChatMode.Set(1)
	} else {
		m.ChatMode.Set(0)
	}
}

// RecordCommandRegistration counts a bulk command publish.
func (m *Metrics) RecordCommandRegistration(status string) {
	if m == nil {
		return
	}
	m.CommandRegistrations.WithLabelValues(status).Inc()
}

// RecordReply counts an outbound reply.
func (m *Metrics) RecordReply(kind, status string) {
	if m == nil {
		return
	}
	m.RepliesTotal.WithLabelValues(kind, status).Inc()
}
