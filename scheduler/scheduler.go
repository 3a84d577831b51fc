// Package scheduler runs the engine self-check on a fixed interval and
// stores the result for the health endpoint, using dependency injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/lipidcare-api/interfaces"
	"github.com/giygas/lipidcare-api/logging"
	"github.com/giygas/lipidcare-api/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles periodic self-checks using dependency injection
type Scheduler struct {
	store     interfaces.ReportStore
	checker   interfaces.SelfChecker
	interval  time.Duration
	scheduler *gocron.Scheduler
	job       *gocron.Job
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(store interfaces.ReportStore, checker interfaces.SelfChecker, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:     store,
		checker:   checker,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start runs an initial self-check and schedules the following ones. A
// failing initial check is returned after scheduling, so later checks still
// run and can clear the failure.
func (s *Scheduler) Start() error {
	// Initial check
	initialErr := s.runCheck()
	if initialErr != nil {
		logging.Error("Initial self-check failed", "error", initialErr)
	}

	job, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		if err := s.runCheck(); err != nil {
			logging.Error("Self-check failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule self-checks", "error", err)
		return fmt.Errorf("failed to schedule self-checks: %w", err)
	}
	s.job = job

	s.scheduler.StartAsync()

	if initialErr != nil {
		return fmt.Errorf("initial self-check failed: %w", initialErr)
	}
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// NextRun returns the time of the next scheduled self-check, or the zero
// time if the scheduler has not been started
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// runCheck runs the self-check and stores the report. The report is stored
// even when scenarios fail so /health can expose the failures.
func (s *Scheduler) runCheck() error {
	// Prevent concurrent runs
	if !s.store.BeginRun() {
		logging.Info("Self-check already in progress, skipping...")
		return nil
	}
	defer s.store.EndRun()

	report := s.checker.Run()
	s.store.UpdateReport(report)
	metrics.RecordSelfCheck(report.Passed, report.Failed)

	if report.Failed > 0 {
		logging.Warn("Self-check scenarios failed",
			"failed", report.Failed,
			"failures", report.Failures,
		)
		return fmt.Errorf("%d of %d scenarios failed", report.Failed, report.Failed+report.Passed)
	}

	logging.Info("Self-check completed",
		"duration", report.Duration.String(),
		"scenarios", report.Passed,
		"engine_version", report.EngineVersion,
	)
	return nil
}
