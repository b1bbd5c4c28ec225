package scheduler

import (
	"context"
	"log/slog"
)

// CatchUpRunner materializes due recurring transactions for every user.
type CatchUpRunner interface {
	CatchUpAll(ctx context.Context) (int, error)
}

// CatchUpJob is the daily recurring-transaction catch-up.
type CatchUpJob struct {
	runner CatchUpRunner
	logger *slog.Logger
}

// NewCatchUpJob creates the job.
func NewCatchUpJob(runner CatchUpRunner, logger *slog.Logger) *CatchUpJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatchUpJob{runner: runner, logger: logger.With("job", "catch-up")}
}

// Name implements Job.
func (j *CatchUpJob) Name() string { return "recurring-catch-up" }

// Run implements Job.
func (j *CatchUpJob) Run(ctx context.Context) error {
	added, err := j.runner.CatchUpAll(ctx)
	if err != nil {
		return err
	}
	if added > 0 {
		j.logger.Info("recurring transactions materialized", "count", added)
	}
	return nil
}
