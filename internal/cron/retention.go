package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gwon477/dmarket/pkg/logger"
)

const (
	defaultNotificationRetention = 30 * 24 * time.Hour
	defaultOutboxRetention       = 7 * 24 * time.Hour
)

// purger deletes rows older than cutoff and reports how many went away.
type purger func(ctx context.Context, cutoff time.Time) (int64, error)

type retentionJob struct {
	name      string
	logg      *logger.Logger
	purge     purger
	retention time.Duration
	now       func() time.Time
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	}), "retention cleanup complete")
	return nil
}

type notificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewNotificationRetentionJob purges read notifications older than retention.
func NewNotificationRetentionJob(logg *logger.Logger, repo notificationPurger, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	return &retentionJob{
		name:      "notification-retention",
		logg:      logg,
		purge:     repo.DeleteReadBefore,
		retention: retention,
		now:       time.Now,
	}, nil
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob purges outbox rows published before the retention window.
func NewOutboxRetentionJob(logg *logger.Logger, repo outboxPurger, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &retentionJob{
		name:      "outbox-retention",
		logg:      logg,
		purge:     repo.DeletePublishedBefore,
		retention: retention,
		now:       time.Now,
	}, nil
}
