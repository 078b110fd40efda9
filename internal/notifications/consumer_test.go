package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gwon477/dmarket/pkg/db/dbtest"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/outbox"
	"github.com/gwon477/dmarket/pkg/outbox/payloads"
)

// memoryGuard mimics the redis guard: a claim survives success only.
type memoryGuard struct {
	claimed map[uuid.UUID]bool
}

func (g *memoryGuard) Once(ctx context.Context, _ string, eventID uuid.UUID, fn func(context.Context) error) (bool, error) {
	if g.claimed[eventID] {
		return false, nil
	}
	if err := fn(ctx); err != nil {
		return true, err
	}
	g.claimed[eventID] = true
	return true, nil
}

type failingRepository struct {
	Repository
}

func (failingRepository) Create(context.Context, *models.Notification) (bool, error) {
	return false, errors.New("database unavailable")
}

func notificationMessage(t *testing.T, eventID uuid.UUID, occurred time.Time, payload payloads.NotificationRequestedEvent) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: occurred,
		Data:       data,
	})
	require.NoError(t, err)
	return raw
}

func newTestConsumer(t *testing.T, repo Repository) *Consumer {
	t.Helper()
	c, err := NewConsumer(repo, noopReceiver{}, &memoryGuard{claimed: map[uuid.UUID]bool{}}, logger.Nop())
	require.NoError(t, err)
	return c
}

type noopReceiver struct{}

func (noopReceiver) Receive(context.Context, func(context.Context, *pubsub.Message)) error { return nil }

var attrs = map[string]string{"event_type": string(enums.EventNotificationRequested)}

func TestConsumerStoresNotificationOnce(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	consumer := newTestConsumer(t, repo)

	receiver := uuid.New()
	occurred := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	eventID := uuid.New()
	msg := notificationMessage(t, eventID, occurred, payloads.NotificationRequestedEvent{
		ReceiverID: receiver,
		Kind:       enums.NotificationKindReturn,
		Content:    "코트(이)가 수거중 상태입니다.",
		URL:        OrderInfoURL,
	})

	require.True(t, consumer.handle(context.Background(), "m-1", attrs, msg))
	require.True(t, consumer.handle(context.Background(), "m-2", attrs, msg), "redelivery is acked")

	var rows []models.Notification
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, eventID, *rows[0].EventID)
	require.False(t, rows[0].IsRead)
	require.True(t, occurred.Equal(rows[0].CreatedAt), "created_at follows enqueue time")
}

func TestConsumerStoreIgnoresDuplicateEventID(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	eventID := uuid.New()
	receiver := uuid.New()

	for i := 0; i < 2; i++ {
		row := models.Notification{EventID: &eventID, ReceiverID: receiver, Kind: enums.NotificationKindQna, Content: "x", URL: QnaURL}
		created, err := repo.Create(context.Background(), &row)
		require.NoError(t, err)
		require.Equal(t, i == 0, created)
	}
}

func TestConsumerAckAndNackDecisions(t *testing.T) {
	client := dbtest.Open(t)
	consumer := newTestConsumer(t, NewRepository(client.DB()))
	ctx := context.Background()

	require.True(t, consumer.handle(ctx, "m", map[string]string{"event_type": "order_created"}, []byte(`{}`)), "unrelated events are acked")
	require.True(t, consumer.handle(ctx, "m", attrs, []byte(`not json`)), "poison messages are acked")

	bad := notificationMessage(t, uuid.New(), time.Now(), payloads.NotificationRequestedEvent{Kind: enums.NotificationKindQna})
	require.True(t, consumer.handle(ctx, "m", attrs, bad), "payload without receiver is dropped")

	failing := newTestConsumer(t, failingRepository{})
	good := notificationMessage(t, uuid.New(), time.Now(), payloads.NotificationRequestedEvent{
		ReceiverID: uuid.New(),
		Kind:       enums.NotificationKindInquiry,
		Content:    "[문의]에 대한 답변이 등록되었습니다",
		URL:        InquiryURL,
	})
	require.False(t, failing.handle(ctx, "m", attrs, good), "storage errors are nacked for redelivery")
}

func TestConsumerAcksEnvelopeWithNilEventID(t *testing.T) {
	client := dbtest.Open(t)
	guard := &memoryGuard{claimed: map[uuid.UUID]bool{}}
	consumer, err := NewConsumer(NewRepository(client.DB()), noopReceiver{}, guard, logger.Nop())
	require.NoError(t, err)

	msg := notificationMessage(t, uuid.Nil, time.Now(), payloads.NotificationRequestedEvent{
		ReceiverID: uuid.New(),
		Kind:       enums.NotificationKindDelivery,
		Content:    "코트(이)가 배송중 상태입니다.",
		URL:        OrderInfoURL,
	})
	require.True(t, consumer.handle(context.Background(), "m", attrs, msg))
	require.Empty(t, guard.claimed)

	var stored int64
	require.NoError(t, client.DB().Model(&models.Notification{}).Count(&stored).Error)
	require.Zero(t, stored)
}
