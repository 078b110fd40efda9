package outbox

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/pkg/enums"
)

// ActorRef identifies the admin whose command produced the event.
type ActorRef struct {
	UserID uuid.UUID        `json:"userId"`
	Role   enums.MemberRole `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// ParseEventID returns the envelope id as a UUID. The nil UUID is rejected;
// consumers key their idempotency claims on it.
func (e PayloadEnvelope) ParseEventID() (uuid.UUID, error) {
	id, err := uuid.Parse(e.EventID)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errors.New("event id is the nil uuid")
	}
	return id, nil
}
