// Package data provides thread-safe storage for the service's mutable state:
// the latest self-check report, replaced atomically by the scheduler and
// read concurrently by the health endpoint.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/lipidcare-api/interfaces"
	"github.com/giygas/lipidcare-api/logging"
)

// Compile-time check to ensure ReportContainer implements ReportStore
var _ interfaces.ReportStore = (*ReportContainer)(nil)

// ReportContainer holds the self-check state with atomic values for lock-free reads
type ReportContainer struct {
	report          atomic.Pointer[interfaces.SelfCheckReport]
	lastRun         atomic.Value // time.Time
	running         atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewReportContainer creates a new ReportContainer with no report
func NewReportContainer() *ReportContainer {
	rc := &ReportContainer{}
	rc.lastRun.Store(time.Time{})
	rc.serverStartTime.Store(time.Time{})
	return rc
}

// GetReport returns the latest report, or nil if no self-check has run
func (rc *ReportContainer) GetReport() *interfaces.SelfCheckReport {
	return rc.report.Load()
}

// GetLastRun returns the time the latest report was stored
func (rc *ReportContainer) GetLastRun() time.Time {
	if v := rc.lastRun.Load(); v != nil {
		if lastRun, ok := v.(time.Time); ok {
			return lastRun
		}
	}

	logging.Warn("Could not get the last run value")
	return time.Time{}
}

// IsRunning returns true if a self-check is currently in progress
func (rc *ReportContainer) IsRunning() bool {
	return rc.running.Load()
}

// SetServerStartTime sets the server start time
func (rc *ReportContainer) SetServerStartTime(startTime time.Time) {
	rc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (rc *ReportContainer) GetServerStartTime() time.Time {
	if v := rc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateReport atomically replaces the report
func (rc *ReportContainer) UpdateReport(report *interfaces.SelfCheckReport) {
	rc.report.Store(report)
	rc.lastRun.Store(time.Now())
}

// BeginRun marks the start of a self-check
// Returns true if the run can proceed, false if another run is in progress
func (rc *ReportContainer) BeginRun() bool {
	return rc.running.CompareAndSwap(false, true)
}

// EndRun marks the end of a self-check
func (rc *ReportContainer) EndRun() {
	rc.running.Store(false)
}
