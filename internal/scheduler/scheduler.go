// Package scheduler runs ConvoDesk's named background jobs on cron
// schedules, such as purging expired sessions from the durable store.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named background jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler. Jobs recover from
// panics so one failing job cannot take the scheduler down.
func NewScheduler() *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a named task using the provided cron expression. The name
// identifies the job in log output. It returns an error if the expression
// is invalid.
func (s *Scheduler) AddJob(name, expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, func() {
		start := time.Now()
		slog.Debug("Scheduler: job started", "job", name)
		task()
		slog.Debug("Scheduler: job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}
	slog.Info("Scheduler.AddJob: registered job", "job", name, "schedule", expr)
	return nil
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("Scheduler.Stop: scheduler stopped")
}
