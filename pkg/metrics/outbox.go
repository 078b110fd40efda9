package metrics

import "github.com/prometheus/client_golang/prometheus"

// Publish outcomes for outbox rows.
const (
	PublishPublished    = "published"
	PublishRetry        = "retry"
	PublishDeadLettered = "dead_lettered"
)

// OutboxMetrics counts what the publisher did with each outbox row.
type OutboxMetrics struct {
	rows *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_rows_total",
		Help:      "Outbox rows handled by the publisher by event type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(rows)
	return &OutboxMetrics{rows: rows}
}

func (o *OutboxMetrics) Observe(eventType, outcome string) {
	if o == nil || o.rows == nil {
		return
	}
	o.rows.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
