// Package jobs runs periodic background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 2 * time.Minute

// Func is one unit of background work.
type Func func(ctx context.Context) error

// Scheduler wraps a cron runner and logs every job run.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		now:    time.Now,
	}
}

// Register adds a named job under a cron spec such as "@every 1h".
func (s *Scheduler) Register(name, spec string, fn Func) error {
	if _, err := cron.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	return s.cron.AddFunc(spec, func() { s.run(name, fn) })
}

func (s *Scheduler) run(name string, fn Func) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := s.now()
	if err := fn(ctx); err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Debug("job finished", zap.String("job", name), zap.Duration("took", s.now().Sub(started)))
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler. Running jobs are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Len is the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}
