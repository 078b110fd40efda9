package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/outbox/payloads"
	"github.com/gwon477/dmarket/pkg/outbox/registry"
)

const consumerName = "notifications-worker"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type processedGuard interface {
	Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error)
}

// Consumer stores notification_requested events delivered by the outbox publisher.
type Consumer struct {
	repo         Repository
	subscription receiver
	guard        processedGuard
	logg         *logger.Logger
}

func NewConsumer(repo Repository, subscription receiver, guard processedGuard, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{repo: repo, subscription: subscription, guard: guard, logg: logg}, nil
}

// Run receives until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.handle(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// handle reports whether the message should be acked. Undecodable messages are
// acked so they do not redeliver forever.
func (c *Consumer) handle(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	eventType := attrs["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Debug(logCtx, "skipping unrelated event")
		return true
	}

	envelope, err := registry.DecodeEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	eventID, err := envelope.ParseEventID()
	if err != nil {
		c.logg.Error(logCtx, "envelope has no usable event id", err)
		return true
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return true
	}
	if err := payload.Validate(); err != nil {
		c.logg.Error(logCtx, "invalid notification payload", err)
		return true
	}

	ran, err := c.guard.Once(ctx, consumerName, eventID, func(ctx context.Context) error {
		notification := &models.Notification{
			EventID:    &eventID,
			ReceiverID: payload.ReceiverID,
			Kind:       payload.Kind,
			Content:    payload.Content,
			URL:        payload.URL,
			CreatedAt:  envelope.OccurredAt.UTC(),
		}
		created, err := c.repo.Create(ctx, notification)
		if err != nil {
			return err
		}
		if !created {
			c.logg.Debug(logCtx, "notification already stored")
		}
		return nil
	})
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		return false
	}
	if !ran {
		c.logg.Debug(logCtx, "event already processed")
	}
	return true
}
