package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dmarket"

// Outcome labels for workflow commands.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// WorkflowMetrics tracks admin commands run by the workflow coordinator.
type WorkflowMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_transitions_total",
		Help:      "Workflow commands by outcome.",
	}, []string{"command", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "workflow_command_duration_seconds",
		Help:      "Workflow command latency including the database transaction.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"command"})
	reg.MustRegister(transitions, duration)
	return &WorkflowMetrics{transitions: transitions, duration: duration}
}

func (w *WorkflowMetrics) Observe(command, outcome string, elapsed time.Duration) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(command), normalizeLabel(outcome)).Inc()
	w.duration.WithLabelValues(normalizeLabel(command)).Observe(elapsed.Seconds())
}

// NotificationMetrics counts notifications that could not be queued.
type NotificationMetrics struct {
	enqueueFailures *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_enqueue_failures_total",
		Help:      "Notifications dropped because the outbox insert failed.",
	}, []string{"kind"})
	reg.MustRegister(failures)
	return &NotificationMetrics{enqueueFailures: failures}
}

func (n *NotificationMetrics) IncEnqueueFailure(kind string) {
	if n == nil || n.enqueueFailures == nil {
		return
	}
	n.enqueueFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}
