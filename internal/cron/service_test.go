package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/metrics"
)

type fakeLock struct {
	held       bool
	released   int
	releaseErr error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.releaseErr = ctx.Err()
	f.held = false
	f.released++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
	run  func(ctx context.Context) error
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	if t.run != nil {
		return t.run(ctx)
	}
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(failure, success),
		Lock:     lock,
	})
	require.NoError(t, err)

	err = service.runCycle(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "fail: boom")
	require.Equal(t, 1, success.runs)
	require.Equal(t, 1, failure.runs)
	require.Equal(t, 1, lock.released)
	require.False(t, lock.held)
}

func TestServiceRecoversPanickingJob(t *testing.T) {
	broken := &testJob{name: "broken", run: func(context.Context) error { panic("nil map") }}
	after := &testJob{name: "after"}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: NewRegistry(broken, after), Lock: lock})
	require.NoError(t, err)

	err = service.runCycle(context.Background())
	require.ErrorContains(t, err, "broken: panic: nil map")
	require.Equal(t, 1, after.runs)
	require.Equal(t, 1, lock.released)
}

func TestServiceBoundsJobsByTimeout(t *testing.T) {
	reg := prometheus.NewRegistry()
	slow := &testJob{name: "slow", run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	service, err := NewService(ServiceParams{
		Logger:     logger.Nop(),
		Registry:   NewRegistry(slow),
		Lock:       &fakeLock{},
		Metrics:    metrics.NewCronJobMetrics(reg),
		JobTimeout: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	err = service.runCycle(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, metrics.JobTimedOut, runOutcome(t, reg, "slow"))
}

func runOutcome(t *testing.T, reg *prometheus.Registry, job string) string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "dmarket_cron_job_runs_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["job"] == job {
				return labels["outcome"]
			}
		}
	}
	t.Fatalf("no run recorded for %s", job)
	return ""
}

func TestServiceReleasesLockAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &testJob{name: "first", run: func(context.Context) error { cancel(); return nil }}
	second := &testJob{name: "second"}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: NewRegistry(first, second), Lock: lock})
	require.NoError(t, err)

	err = service.runCycle(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, second.runs, "remaining jobs are skipped once shutdown starts")
	require.Equal(t, 1, lock.released)
	require.NoError(t, lock.releaseErr, "release must not inherit the canceled context")
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := &testJob{name: "retention"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))
	require.Zero(t, job.runs)
	count, err := testutil.GatherAndCount(reg, "dmarket_cron_cycles_skipped_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.Nop()})
	require.Error(t, err)

	service, err := NewService(ServiceParams{Logger: logger.Nop(), Lock: &fakeLock{}})
	require.NoError(t, err)
	require.Equal(t, defaultInterval, service.interval)
}
