// Package metrics provides Prometheus metrics for the HTTP server and the
// decision engine.
//
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Engine metrics are prefixed with lipidcare_ and never carry patient values,
// only closed-enum labels.
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"time"

	"github.com/giygas/lipidcare-api/entities"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lipidcare_evaluations_total",
			Help: "Completed evaluations by risk category",
		},
		[]string{"risk_category"},
	)

	ValidationIssuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lipidcare_validation_issues_total",
			Help: "Plausibility issues raised, by code and severity",
		},
		[]string{"code", "severity"},
	)

	ExcludedFieldsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lipidcare_excluded_fields_total",
			Help: "Fields withheld from decision stages",
		},
	)

	CoverageDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lipidcare_coverage_decisions_total",
			Help: "PCSK9 coverage outcomes by pathway",
		},
		[]string{"pathway", "eligible"},
	)

	SelfCheckScenarios = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lipidcare_selfcheck_scenarios",
			Help: "Reference scenarios in the latest self-check, by result",
		},
		[]string{"result"},
	)

	SelfCheckLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lipidcare_selfcheck_last_run_timestamp_seconds",
			Help: "Unix time of the latest self-check",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(EvaluationsTotal)
	prometheus.MustRegister(ValidationIssuesTotal)
	prometheus.MustRegister(ExcludedFieldsTotal)
	prometheus.MustRegister(CoverageDecisionsTotal)
	prometheus.MustRegister(SelfCheckScenarios)
	prometheus.MustRegister(SelfCheckLastRun)
}

// RecordValidation counts the issues of one validation result
func RecordValidation(result entities.ValidationResult) {
	for _, issue := range result.Issues {
		ValidationIssuesTotal.WithLabelValues(issue.Code.String(), issue.Severity.String()).Inc()
	}
}

// RecordEvaluation counts one full evaluation
func RecordEvaluation(ev entities.Evaluation) {
	EvaluationsTotal.WithLabelValues(ev.Targets.RiskCategory.String()).Inc()
	RecordValidation(ev.Validation)
	ExcludedFieldsTotal.Add(float64(len(ev.Excluded)))

	eligible := "false"
	if ev.Coverage.Eligible {
		eligible = "true"
	}
	CoverageDecisionsTotal.WithLabelValues(ev.Coverage.Pathway.String(), eligible).Inc()
}

// RecordSelfCheck publishes the result of a self-check run
func RecordSelfCheck(passed, failed int) {
	SelfCheckScenarios.WithLabelValues("passed").Set(float64(passed))
	SelfCheckScenarios.WithLabelValues("failed").Set(float64(failed))
	SelfCheckLastRun.Set(float64(time.Now().Unix()))
}
