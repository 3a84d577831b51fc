// Package interfaces defines core abstractions for the lipid decision API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/lipidcare-api/config"
	"github.com/giygas/lipidcare-api/entities"
)

// SelfCheckReport summarises one run of the reference scenarios
type SelfCheckReport struct {
	EngineVersion string        `json:"engineVersion"`
	RanAt         time.Time     `json:"ranAt"`
	Duration      time.Duration `json:"duration"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	Failures      []string      `json:"failures"`
}

// Healthy reports whether every scenario passed
func (r *SelfCheckReport) Healthy() bool {
	return r != nil && r.Failed == 0 && r.Passed > 0
}

// PanelValidator classifies a normalized panel against plausibility rules.
// It must not mutate the panel.
type PanelValidator interface {
	Validate(panel entities.NormalizedPanel) entities.ValidationResult
}

// Evaluator defines the contract for the decision pipeline.
// Every method is a pure function of its arguments and safe for concurrent use.
type Evaluator interface {
	// Evaluate runs the full pipeline
	Evaluate(params entities.PatientParameters) entities.Evaluation

	// Individual stages exposed for the form layer
	Normalize(params entities.PatientParameters) entities.NormalizedPanel
	Validate(params entities.PatientParameters) (entities.NormalizedPanel, entities.ValidationResult)
	Targets(risk entities.RiskContext, lpa *float64) entities.TargetLevels

	Version() string
	LpaConversion() config.LpaConversion
}

// SelfChecker runs the reference scenarios against an evaluator
type SelfChecker interface {
	Run() *SelfCheckReport
}

// ReportStore defines the contract for self-check report storage.
// It provides thread-safe access with atomic replacement of the report.
type ReportStore interface {
	GetReport() *SelfCheckReport
	GetLastRun() time.Time
	IsRunning() bool
	GetServerStartTime() time.Time

	UpdateReport(report *SelfCheckReport)
	BeginRun() bool
	EndRun()
}

// Scheduler defines the contract for periodic self-checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// ServeHTTP implements the http.Handler interface
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// V1 handlers
	Evaluate(w http.ResponseWriter, r *http.Request)
	Normalize(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	Targets(w http.ResponseWriter, r *http.Request)
	Tables(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextRun returns the next scheduled self-check time
	CalculateNextRun() time.Time
}
