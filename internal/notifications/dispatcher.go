package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/metrics"
	"github.com/gwon477/dmarket/pkg/outbox"
	"github.com/gwon477/dmarket/pkg/outbox/payloads"
)

// Scheduler is the dispatch surface used by workflow commands.
type Scheduler interface {
	Schedule(ctx context.Context, tx *gorm.DB, req Request) bool
}

// Dispatcher queues notifications on the outbox of the caller's transaction.
// Storage happens later in the worker, so a queued notification is delivered
// only if the business change commits.
type Dispatcher struct {
	emitter outbox.Emitter
	logg    *logger.Logger
	metrics *metrics.NotificationMetrics
}

func NewDispatcher(emitter outbox.Emitter, logg *logger.Logger, m *metrics.NotificationMetrics) (*Dispatcher, error) {
	if emitter == nil {
		return nil, errors.New("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{emitter: emitter, logg: logg, metrics: m}, nil
}

// Schedule inserts the outbox row inside a savepoint of tx. Any failure is
// logged and counted, only the savepoint is rolled back, and false is returned.
func (d *Dispatcher) Schedule(ctx context.Context, tx *gorm.DB, req Request) bool {
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"notification_kind": req.Kind,
		"receiver_id":       req.ReceiverID.String(),
	})
	payload := payloads.NotificationRequestedEvent{
		ReceiverID: req.ReceiverID,
		Kind:       req.Kind,
		Content:    req.Content,
		URL:        req.URL,
	}
	if err := payload.Validate(); err != nil {
		d.fail(logCtx, req, err)
		return false
	}
	if tx == nil {
		d.fail(logCtx, req, errors.New("transaction required"))
		return false
	}

	var eventID uuid.UUID
	err := tx.Transaction(func(inner *gorm.DB) error {
		var emitErr error
		eventID, emitErr = d.emitter.Emit(ctx, inner, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateUser,
			AggregateID:   req.ReceiverID,
			Data:          payload,
		})
		return emitErr
	})
	if err != nil {
		d.fail(logCtx, req, err)
		return false
	}
	d.logg.Debug(d.logg.WithField(logCtx, "event_id", eventID.String()), "notification queued")
	return true
}

func (d *Dispatcher) fail(ctx context.Context, req Request, err error) {
	d.metrics.IncEnqueueFailure(string(req.Kind))
	d.logg.WarnErr(ctx, "notification enqueue failed", err)
}
