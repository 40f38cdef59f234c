// Package jobs runs the dashboard's periodic maintenance: pruning expired
// staff sessions and watching room occupancy for overcrowding.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one named periodic task.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Runner schedules jobs on cron expressions and logs each execution.
type Runner struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewRunner constructs an idle runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cron:   cron.New(),
		logger: logger,
	}
}

// Register adds a job to the schedule. The job's context carries no
// deadline; long jobs should watch ctx themselves.
func (r *Runner) Register(ctx context.Context, job Job) error {
	if r == nil || r.cron == nil {
		return fmt.Errorf("runner not initialised")
	}
	if job.Run == nil {
		return fmt.Errorf("job %q has no run function", job.Name)
	}

	logger := r.logger.With("job", job.Name, "spec", job.Spec)
	_, err := r.cron.AddFunc(job.Spec, func() {
		if err := job.Run(ctx); err != nil {
			logger.Error("job failed", "error", err)
			return
		}
		logger.Debug("job completed")
	})
	if err != nil {
		return fmt.Errorf("register job %q: %w", job.Name, err)
	}
	return nil
}

// Start begins executing registered jobs in their own goroutines.
func (r *Runner) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("background jobs started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	if r == nil || r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.logger.Info("background jobs stopped")
}
