// Package idempotency guards event consumers against Pub/Sub redelivery.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClaimStore is satisfied by *redis.Client.
type ClaimStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	IdempotencyKey(scope, id string) string
}

// Manager records which events a consumer has handled. A claim is a key
// holding a per-attempt token; it lives for ttl once the handler succeeds.
type Manager struct {
	store ClaimStore
	ttl   time.Duration
	token func() string
}

func NewManager(store ClaimStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("claim store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl, token: uuid.NewString}, nil
}

// Once runs fn unless consumer already claimed eventID. When fn fails the
// claim is released so the redelivery can run; the bool reports whether fn ran.
func (m *Manager) Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error) {
	key, err := m.claimKey(consumer, eventID)
	if err != nil {
		return false, err
	}
	owner := m.token()
	claimed, err := m.store.SetNX(ctx, key, owner, m.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !claimed {
		return false, nil
	}

	if err := fn(ctx); err != nil {
		if _, relErr := m.store.ReleaseIfOwner(ctx, key, owner); relErr != nil {
			return true, errors.Join(err, fmt.Errorf("release %s: %w", key, relErr))
		}
		return true, err
	}
	return true, nil
}

func (m *Manager) claimKey(consumer string, eventID uuid.UUID) (string, error) {
	switch {
	case consumer == "":
		return "", errors.New("consumer name is required")
	case eventID == uuid.Nil:
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:"+consumer, eventID.String()), nil
}
