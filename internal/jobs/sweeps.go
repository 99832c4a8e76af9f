package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EnrollmentCompleter completes active enrollments whose end date has passed.
type EnrollmentCompleter interface {
	CompleteExpiredEnrollments(ctx context.Context, now time.Time) (int, error)
}

// Sweeper drops idle entries from a store.
type Sweeper interface {
	Sweep(now time.Time) int
}

// EnrollmentSweep returns a job that completes expired enrollments.
func EnrollmentSweep(svc EnrollmentCompleter, logger *zap.Logger, now func() time.Time) Func {
	return func(ctx context.Context) error {
		n, err := svc.CompleteExpiredEnrollments(ctx, now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("completed expired enrollments", zap.Int("count", n))
		}
		return nil
	}
}

// RateLimitSweep returns a job that evicts idle rate limiter buckets.
func RateLimitSweep(store Sweeper, logger *zap.Logger, now func() time.Time) Func {
	return func(context.Context) error {
		if n := store.Sweep(now()); n > 0 {
			logger.Debug("evicted idle rate limit buckets", zap.Int("count", n))
		}
		return nil
	}
}
