package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gwon477/dmarket/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubConsumer struct {
	run func(context.Context) error
}

func (s stubConsumer) Run(ctx context.Context) error { return s.run(ctx) }

func newWorker(t *testing.T, redisErr error, c consumer) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:               logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:                   stubPinger{},
		Redis:                stubPinger{err: redisErr},
		PubSub:               stubPinger{},
		NotificationConsumer: c,
	})
	require.NoError(t, err)
	return svc
}

func TestRunFailsWhenDependencyDown(t *testing.T) {
	called := false
	svc := newWorker(t, errors.New("connection refused"), stubConsumer{run: func(context.Context) error {
		called = true
		return nil
	}})

	err := svc.Run(context.Background())
	require.ErrorContains(t, err, "redis ping failed")
	require.False(t, called)
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := newWorker(t, nil, stubConsumer{run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, svc.Run(ctx), context.DeadlineExceeded)
}

func TestRunSurfacesConsumerFailure(t *testing.T) {
	boom := errors.New("subscription deleted")
	svc := newWorker(t, nil, stubConsumer{run: func(context.Context) error { return boom }})
	require.ErrorIs(t, svc.Run(context.Background()), boom)
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		DB:     stubPinger{},
		Redis:  stubPinger{},
		PubSub: stubPinger{},
	})
	require.Error(t, err)
}
