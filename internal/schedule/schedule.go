// Package schedule runs a task on a fixed interval.
package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Runner invokes a task periodically until its context is canceled. Task
// failures are logged and the schedule continues.
type Runner struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	logger   *slog.Logger
}

// NewRunner creates a runner for the named task.
func NewRunner(name string, interval time.Duration, task func(ctx context.Context) error, logger *slog.Logger) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With(slog.String("component", "schedule"), slog.String("task", name)),
	}
}

// Start blocks, firing the task every interval, until ctx is canceled.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("schedule started", slog.String("interval", r.interval.String()))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("schedule stopped")
			return
		case <-ticker.C:
			if err := r.task(ctx); err != nil {
				r.logger.Error("scheduled task failed", slog.Any("error", err))
			}
		}
	}
}
