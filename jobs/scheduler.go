/*
scheduler.go - Automated monthly payroll run

PURPOSE:
  Runs payroll for the month that just ended, on a cron schedule. By
  default at 02:00 on the 1st of every month.

DESIGN:
  - robfig/cron drives the schedule; one job, one entry
  - Each run pays the month before the run's date, so a run on 1 April
    creates March payments
  - Runs are safe to repeat: payroll.Service skips employees that already
    have a live payment for the period
  - Overlapping runs are skipped rather than queued
  - The last report is kept for the HTTP layer to display

USAGE:
  s := jobs.NewPayrollScheduler(service, logger)
  if err := s.Start(); err != nil { ... }
  defer s.Stop()

SEE ALSO:
  - payroll/service.go: RunMonth
  - cmd/server/main.go: -cron flag
*/
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// DefaultSchedule is 02:00 on the first day of every month.
const DefaultSchedule = "0 2 1 * *"

// Runner runs payroll for a month.
type Runner interface {
	RunMonth(ctx context.Context, year, month int) (*payroll.RunReport, error)
}

// PayrollScheduler runs the previous month's payroll on a cron schedule.
type PayrollScheduler struct {
	Runner   Runner
	Schedule string
	Timeout  time.Duration
	Logger   *slog.Logger
	Now      func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	last    *payroll.RunReport
}

// NewPayrollScheduler creates a scheduler with DefaultSchedule and a
// 10 minute timeout per run.
func NewPayrollScheduler(runner Runner, logger *slog.Logger) *PayrollScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollScheduler{
		Runner:   runner,
		Schedule: DefaultSchedule,
		Timeout:  10 * time.Minute,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Start registers the job and starts the cron loop. An invalid schedule
// is returned as an error.
func (s *PayrollScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	c.Start()
	s.cron = c

	s.Logger.Info("payroll scheduler started", "schedule", s.Schedule)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *PayrollScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.Logger.Info("payroll scheduler stopped")
}

// RunOnce pays the month before Now. It returns nil when another run is
// still in progress.
func (s *PayrollScheduler) RunOnce(ctx context.Context) *payroll.RunReport {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.Logger.Warn("payroll run still in progress, skipping")
		return nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	year, month := generic.PreviousMonth(generic.DateOf(s.Now()))
	s.Logger.Info("scheduled payroll run", "year", year, "month", month)

	report, err := s.Runner.RunMonth(ctx, year, month)
	if err != nil {
		s.Logger.Error("scheduled payroll run failed", "year", year, "month", month, "error", err)
		return report
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report
}

// LastReport returns the report of the last successful run, or nil.
func (s *PayrollScheduler) LastReport() *payroll.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
