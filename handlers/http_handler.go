package handlers

import (
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/giygas/lipidcare-api/entities"
	"github.com/giygas/lipidcare-api/gap"
	"github.com/giygas/lipidcare-api/interfaces"
	"github.com/giygas/lipidcare-api/logging"
	"github.com/giygas/lipidcare-api/metrics"
	"github.com/giygas/lipidcare-api/targets"
	"github.com/giygas/lipidcare-api/validation"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	evaluator     interfaces.Evaluator
	store         interfaces.ReportStore
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(evaluator interfaces.Evaluator, store interfaces.ReportStore, healthChecker interfaces.HealthChecker) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		evaluator:     evaluator,
		store:         store,
		healthChecker: healthChecker,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Routing is handled by chi
	RespondWithError(w, http.StatusNotImplemented, "Not implemented")
}

// ValidateResponse is the body of POST /v1/validate
type ValidateResponse struct {
	Panel      entities.NormalizedPanel  `json:"panel"`
	Validation entities.ValidationResult `json:"validation"`
}

// TargetsRequest is the body of POST /v1/targets. Lpa is in mg/dL.
type TargetsRequest struct {
	Risk entities.RiskContext `json:"risk"`
	Lpa  *float64             `json:"lpa,omitempty"`
}

// LpaConversionInfo describes the Lp(a) conversion factors in use
type LpaConversionInfo struct {
	Version     string  `json:"version"`
	MolarToMass float64 `json:"molarToMass"`
	MassToMolar float64 `json:"massToMolar"`
	Consistent  bool    `json:"consistent"`
}

// TablesResponse is the body of GET /v1/tables
type TablesResponse struct {
	EngineVersion string                  `json:"engineVersion"`
	Targets       []targets.Rule          `json:"targets"`
	StatinDoses   []gap.DoseLimit         `json:"statinMaxDoses"`
	Ranges        []validation.FieldRange `json:"plausibilityRanges"`
	LpaConversion LpaConversionInfo       `json:"lpaConversion"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	EngineVersion string         `json:"engineVersion"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptimeSeconds"`
	NextCheck     string         `json:"nextCheck"`
	SelfCheck     map[string]any `json:"selfCheck"`
	System        map[string]any `json:"system"`
}

// decodeParams reads PatientParameters, writing the error response on failure
func (h *HTTPHandlerImpl) decodeParams(w http.ResponseWriter, r *http.Request) (entities.PatientParameters, bool) {
	var params entities.PatientParameters
	if code, err := decodeJSON(r, &params); err != nil {
		logging.Warn("Rejected request body", "path", r.URL.Path, "error", err)
		RespondWithError(w, code, err.Error())
		return params, false
	}
	return params, true
}

// Evaluate runs the full decision pipeline
func (h *HTTPHandlerImpl) Evaluate(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	evaluation := h.evaluator.Evaluate(params)
	metrics.RecordEvaluation(evaluation)

	logging.Debug("Evaluation completed",
		"risk_category", evaluation.Targets.RiskCategory.String(),
		"issues", len(evaluation.Validation.Issues),
		"excluded", len(evaluation.Excluded),
		"coverage_eligible", evaluation.Coverage.Eligible,
	)

	RespondWithJSON(w, http.StatusOK, evaluation)
}

// Normalize converts the submitted values to canonical units
func (h *HTTPHandlerImpl) Normalize(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	RespondWithJSON(w, http.StatusOK, h.evaluator.Normalize(params))
}

// Validate normalizes and checks the submitted values for plausibility
func (h *HTTPHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	panel, result := h.evaluator.Validate(params)
	metrics.RecordValidation(result)

	RespondWithJSON(w, http.StatusOK, ValidateResponse{Panel: panel, Validation: result})
}

// Targets returns the lipid targets for a risk context
func (h *HTTPHandlerImpl) Targets(w http.ResponseWriter, r *http.Request) {
	var req TargetsRequest
	if code, err := decodeJSON(r, &req); err != nil {
		logging.Warn("Rejected request body", "path", r.URL.Path, "error", err)
		RespondWithError(w, code, err.Error())
		return
	}

	if req.Lpa != nil && (math.IsNaN(*req.Lpa) || *req.Lpa < 0) {
		RespondWithError(w, http.StatusBadRequest, "lpa must be a non-negative number")
		return
	}

	RespondWithJSON(w, http.StatusOK, h.evaluator.Targets(req.Risk, req.Lpa))
}

// Tables returns the reference tables the engine decides with
func (h *HTTPHandlerImpl) Tables(w http.ResponseWriter, r *http.Request) {
	conv := h.evaluator.LpaConversion()

	RespondWithJSON(w, http.StatusOK, TablesResponse{
		EngineVersion: h.evaluator.Version(),
		Targets:       targets.Table(),
		StatinDoses:   gap.MaxDoseTable(),
		Ranges:        validation.Ranges(),
		LpaConversion: LpaConversionInfo{
			Version:     conv.Version,
			MolarToMass: conv.MolarToMass,
			MassToMolar: conv.MassToMolar,
			Consistent:  conv.Consistent(),
		},
	})
}

// HealthCheck returns service health derived from the latest self-check
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, details, httpStatus := h.healthChecker.HealthCheck()

	var uptime time.Duration
	if start := h.store.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	response := HealthResponse{
		Status:        status,
		EngineVersion: h.evaluator.Version(),
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: math.Round(uptime.Seconds()),
		NextCheck:     h.healthChecker.CalculateNextRun().Format(time.RFC3339),
		SelfCheck:     details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"allocMb":      int(m.Alloc / 1024 / 1024),
				"totalAllocMb": int(m.TotalAlloc / 1024 / 1024),
				"sysMb":        int(m.Sys / 1024 / 1024),
				"numGc":        m.NumGC,
			},
		},
	}

	if httpStatus != http.StatusOK {
		logging.Warn("Health check not healthy", "status", status)
	}

	RespondWithJSON(w, httpStatus, response)
}
