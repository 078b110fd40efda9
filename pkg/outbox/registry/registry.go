// Package registry maps outbox event types to their topic and payload schema.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/pkg/config"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/outbox"
	"github.com/gwon477/dmarket/pkg/outbox/payloads"
)

// ErrNonRetryable marks a row that will never publish; the publisher moves it
// to the DLQ on first sight.
var ErrNonRetryable = errors.New("non-retryable")

// NonRetryable wraps err so IsNonRetryable reports true for it.
func NonRetryable(err error) error {
	if err == nil {
		return ErrNonRetryable
	}
	return fmt.Errorf("%w: %w", ErrNonRetryable, err)
}

func IsNonRetryable(err error) bool {
	return errors.Is(err, ErrNonRetryable)
}

// EventDescriptor links an event type to its aggregate, topic and payload.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	// decode parses and checks the envelope data against the row it came from.
	decode func(data json.RawMessage, row models.OutboxEvent) (any, error)
}

// ResolvedEvent is a row that passed every check and is ready to publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// OrderingKey is <aggregate_type>:<aggregate_id>, so notifications for one
// user arrive in the order their commands committed.
func (r ResolvedEvent) OrderingKey(row models.OutboxEvent) string {
	return string(row.AggregateType) + ":" + row.AggregateID.String()
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.NotificationTopic == "" {
		return nil, errors.New("notification topic is required")
	}
	return &EventRegistry{entries: map[enums.OutboxEventType]EventDescriptor{
		enums.EventNotificationRequested: {
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateUser,
			Topic:         cfg.NotificationTopic,
			decode:        decodeNotification,
		},
	}}, nil
}

// decodeNotification also requires the receiver to be the row's aggregate;
// otherwise the ordering key would sequence the wrong user's stream.
func decodeNotification(data json.RawMessage, row models.OutboxEvent) (any, error) {
	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if payload.ReceiverID != row.AggregateID {
		return nil, fmt.Errorf("receiver %s does not match aggregate %s", payload.ReceiverID, row.AggregateID)
	}
	return &payload, nil
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every error it returns is non-retryable.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[row.EventType]
	switch {
	case !ok:
		return nil, NonRetryable(fmt.Errorf("unsupported event type %q", row.EventType))
	case desc.AggregateType != row.AggregateType:
		return nil, NonRetryable(fmt.Errorf("aggregate type %q, want %q", row.AggregateType, desc.AggregateType))
	case row.AggregateID == uuid.Nil:
		return nil, NonRetryable(errors.New("aggregate_id is required"))
	}

	envelope, err := DecodeEnvelope(row.Payload)
	if err != nil {
		return nil, err
	}
	payload, err := desc.decode(envelope.Data, row)
	if err != nil {
		return nil, NonRetryable(fmt.Errorf("%s payload: %w", row.EventType, err))
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

// DecodeEnvelope parses a stored or delivered envelope. It needs a UUID event
// id and non-null data.
func DecodeEnvelope(raw []byte) (outbox.PayloadEnvelope, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return envelope, NonRetryable(fmt.Errorf("envelope: %w", err))
	}
	if _, err := envelope.ParseEventID(); err != nil {
		return envelope, NonRetryable(fmt.Errorf("envelope event id: %w", err))
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return envelope, NonRetryable(errors.New("envelope data is empty"))
	}
	return envelope, nil
}
