package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/strength-academy/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeCompleter struct {
	calledWith time.Time
	n          int
	err        error
}

func (f *fakeCompleter) CompleteExpiredEnrollments(_ context.Context, now time.Time) (int, error) {
	f.calledWith = now
	return f.n, f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	require.NoError(t, s.Register("noop", "@every 1h", func(context.Context) error { return nil }))
	assert.Equal(t, 1, s.Len())

	err := s.Register("broken", "every other tuesday", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_RunLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewScheduler(zap.New(core))

	s.run("fails", func(context.Context) error { return errors.New("boom") })
	s.run("works", func(context.Context) error { return nil })

	failed := logs.FilterMessage("job failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "fails", failed[0].ContextMap()["job"])
	assert.Equal(t, 1, logs.FilterMessage("job finished").Len())
}

func TestEnrollmentSweep(t *testing.T) {
	now := time.Date(2024, time.March, 1, 3, 0, 0, 0, time.UTC)
	core, logs := observer.New(zap.InfoLevel)

	svc := &fakeCompleter{n: 2}
	require.NoError(t, EnrollmentSweep(svc, zap.New(core), fixedClock(now))(context.Background()))
	assert.Equal(t, now, svc.calledWith)
	assert.Equal(t, 1, logs.FilterMessage("completed expired enrollments").Len())

	svc.err = errors.New("db down")
	assert.EqualError(t, EnrollmentSweep(svc, zap.NewNop(), fixedClock(now))(context.Background()), "db down")
}

func TestRateLimitSweep(t *testing.T) {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	store := ratelimit.NewStore(1, 1, time.Minute)
	store.Allow("a", start)
	store.Allow("b", start.Add(2*time.Minute))

	job := RateLimitSweep(store, zap.NewNop(), fixedClock(start.Add(150*time.Second)))
	require.NoError(t, job(context.Background()))
	assert.Equal(t, 1, store.Len())
}
