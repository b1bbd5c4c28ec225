// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler wraps a cron runner. Jobs receive the context passed to New,
// so canceling it aborts in-flight work.
type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler using standard five-field cron expressions.
func New(ctx context.Context, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		ctx:    ctx,
		cron:   cron.New(),
		logger: logger.With("component", "scheduler"),
	}
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// AddJob registers job on schedule, e.g. "5 0 * * *" or "@daily".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(job); err != nil {
			s.logger.Error("job failed", "job", job.Name(), "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.logger.Info("job registered", "job", job.Name(), "schedule", schedule)
	return nil
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.logger.Debug("running job", "job", job.Name())
	if err := job.Run(s.ctx); err != nil {
		return err
	}
	s.logger.Debug("job completed", "job", job.Name())
	return nil
}
