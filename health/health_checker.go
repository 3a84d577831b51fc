// Package health provides health checking functionality for the lipid decision API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/lipidcare-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store    interfaces.ReportStore
	interval time.Duration
}

// NewHealthChecker creates a new health checker with injected dependencies.
// interval is the self-check period used to judge report staleness.
func NewHealthChecker(store interfaces.ReportStore, interval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:    store,
		interval: interval,
	}
}

// HealthCheck returns HTTP-specific health data derived from the latest
// self-check report. Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	report := h.store.GetReport()
	lastRun := h.store.GetLastRun()
	isRunning := h.store.IsRunning()

	reportAge := time.Since(lastRun)

	switch {
	case report == nil:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case !report.Healthy():
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case reportAge > 3*h.interval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isRunning && reportAge > 2*h.interval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"isRunning": isRunning,
	}
	if report == nil {
		return status, data, httpStatus
	}

	failures := report.Failures
	if failures == nil {
		failures = []string{}
	}
	data["lastCheck"] = lastRun.Format(time.RFC3339)
	data["checkAgeMinutes"] = math.Round(reportAge.Minutes()*10) / 10
	data["engineVersion"] = report.EngineVersion
	data["scenariosPassed"] = report.Passed
	data["scenariosFailed"] = report.Failed
	data["failures"] = failures

	return status, data, httpStatus
}

// CalculateNextRun returns the next scheduled self-check time
func (h *HealthCheckerImpl) CalculateNextRun() time.Time {
	lastRun := h.store.GetLastRun()
	if lastRun.IsZero() {
		return time.Now()
	}
	return lastRun.Add(h.interval)
}
