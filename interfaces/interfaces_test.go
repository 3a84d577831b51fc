package interfaces

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/lipidcare-api/config"
	"github.com/giygas/lipidcare-api/entities"
)

// MockReportStore implements ReportStore for testing
type MockReportStore struct {
	report    *SelfCheckReport
	lastRun   time.Time
	running   bool
	startTime time.Time
}

func (m *MockReportStore) GetReport() *SelfCheckReport { return m.report }
func (m *MockReportStore) GetLastRun() time.Time { return m.lastRun }
func (m *MockReportStore) IsRunning() bool { return m.running }
func (m *MockReportStore) GetServerStartTime() time.Time { return m.startTime }

func (m *MockReportStore) UpdateReport(report *SelfCheckReport) {
	m.report = report
	m.lastRun = time.Now()
}

func (m *MockReportStore) BeginRun() bool {
	if m.running {
		return false
	}
	m.running = true
	return true
}

func (m *MockReportStore) EndRun() {
	m.running = false
}

// MockSelfChecker implements SelfChecker for testing
type MockSelfChecker struct {
	failures []string
}

func (m *MockSelfChecker) Run() *SelfCheckReport {
	return &SelfCheckReport{
		EngineVersion: "test",
		RanAt:         time.Now(),
		Passed:        3,
		Failed:        len(m.failures),
		Failures:      m.failures,
	}
}

// MockScheduler implements Scheduler for testing
type MockScheduler struct {
	started bool
	stopped bool
}

func (m *MockScheduler) Start() error {
	if m.started {
		return &mockError{"already started"}
	}
	m.started = true
	return nil
}

func (m *MockScheduler) Stop() {
	m.stopped = true
}

// MockEvaluator implements Evaluator for testing
type MockEvaluator struct {
	calls int
}

func (m *MockEvaluator) Evaluate(params entities.PatientParameters) entities.Evaluation {
	m.calls++
	return entities.Evaluation{EngineVersion: m.Version()}
}

func (m *MockEvaluator) Normalize(params entities.PatientParameters) entities.NormalizedPanel {
	m.calls++
	return entities.NormalizedPanel{}
}

func (m *MockEvaluator) Validate(params entities.PatientParameters) (entities.NormalizedPanel, entities.ValidationResult) {
	m.calls++
	return entities.NormalizedPanel{}, entities.ValidationResult{}
}

func (m *MockEvaluator) Targets(risk entities.RiskContext, lpa *float64) entities.TargetLevels {
	m.calls++
	return entities.TargetLevels{}
}

func (m *MockEvaluator) Version() string { return "mock" }

func (m *MockEvaluator) LpaConversion() config.LpaConversion { return config.DefaultLpaConversion() }

// MockPanelValidator implements PanelValidator for testing
type MockPanelValidator struct {
	issues []entities.Issue
}

func (m *MockPanelValidator) Validate(panel entities.NormalizedPanel) entities.ValidationResult {
	return entities.ValidationResult{Issues: m.issues}
}

// MockHTTPHandler implements HTTPHandler for testing
type MockHTTPHandler struct {
	responseCode int
}

func (m *MockHTTPHandler) respond(w http.ResponseWriter) {
	w.WriteHeader(m.responseCode)
}

func (m *MockHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) Evaluate(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) Normalize(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) Validate(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) Targets(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) Tables(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) { m.respond(w) }

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextRun() time.Time {
	return time.Now().Add(time.Hour)
}

type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

// Compile-time checks
var (
	_ ReportStore    = (*MockReportStore)(nil)
	_ SelfChecker    = (*MockSelfChecker)(nil)
	_ Scheduler      = (*MockScheduler)(nil)
	_ Evaluator      = (*MockEvaluator)(nil)
	_ PanelValidator = (*MockPanelValidator)(nil)
	_ HTTPHandler    = (*MockHTTPHandler)(nil)
	_ HealthChecker  = (*MockHealthChecker)(nil)
)

func TestSelfCheckReportHealthy(t *testing.T) {
	tests := []struct {
		name     string
		report   *SelfCheckReport
		expected bool
	}{
		{"nil report", nil, false},
		{"no scenarios ran", &SelfCheckReport{}, false},
		{"all passed", &SelfCheckReport{Passed: 6}, true},
		{"one failure", &SelfCheckReport{Passed: 5, Failed: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Healthy(); got != tt.expected {
				t.Errorf("Healthy() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReportStoreInterface(t *testing.T) {
	var store ReportStore = &MockReportStore{}

	if !store.BeginRun() {
		t.Fatal("First BeginRun should succeed")
	}
	if store.BeginRun() {
		t.Error("Second BeginRun should fail while running")
	}
	if !store.IsRunning() {
		t.Error("Store should report running")
	}

	var checker SelfChecker = &MockSelfChecker{}
	store.UpdateReport(checker.Run())
	store.EndRun()

	if store.IsRunning() {
		t.Error("Store should not be running after EndRun")
	}
	if !store.GetReport().Healthy() {
		t.Error("Stored report should be healthy")
	}
	if store.GetLastRun().IsZero() {
		t.Error("Last run should be set")
	}
}

func TestSelfCheckerInterface(t *testing.T) {
	var checker SelfChecker = &MockSelfChecker{failures: []string{"scenario A"}}

	report := checker.Run()
	if report.Healthy() {
		t.Error("Report with failures should not be healthy")
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
}

func TestSchedulerInterface(t *testing.T) {
	var scheduler Scheduler = &MockScheduler{}

	if err := scheduler.Start(); err != nil {
		t.Errorf("Start should succeed: %v", err)
	}
	if err := scheduler.Start(); err == nil {
		t.Error("Second Start should fail")
	}

	scheduler.Stop()
	if !scheduler.(*MockScheduler).stopped {
		t.Error("Scheduler should be stopped")
	}
}

func TestEvaluatorInterface(t *testing.T) {
	mock := &MockEvaluator{}
	var evaluator Evaluator = mock

	ev := evaluator.Evaluate(entities.PatientParameters{})
	evaluator.Normalize(entities.PatientParameters{})
	evaluator.Validate(entities.PatientParameters{})
	evaluator.Targets(entities.RiskContext{}, nil)

	if ev.EngineVersion != "mock" {
		t.Errorf("EngineVersion = %s, want mock", ev.EngineVersion)
	}
	if mock.calls != 4 {
		t.Errorf("calls = %d, want 4", mock.calls)
	}
	if evaluator.LpaConversion().Version == "" {
		t.Error("LpaConversion should carry a version")
	}
}

func TestPanelValidatorInterface(t *testing.T) {
	var validator PanelValidator = &MockPanelValidator{issues: []entities.Issue{{
		Fields:   []entities.Field{entities.FieldLDL},
		Code:     entities.CodePhysiologicalRangeError,
		Severity: entities.SeverityError,
		Message:  "LDL out of range",
	}}}

	result := validator.Validate(entities.NormalizedPanel{})
	if !result.Blocked(entities.FieldLDL) {
		t.Error("LDL should be blocked")
	}
}

func TestHTTPHandlerInterface(t *testing.T) {
	var handler HTTPHandler = &MockHTTPHandler{responseCode: http.StatusTeapot}

	endpoints := []http.HandlerFunc{
		handler.Evaluate, handler.Normalize, handler.Validate,
		handler.Targets, handler.Tables, handler.HealthCheck, handler.ServeHTTP,
	}

	for _, endpoint := range endpoints {
		rr := httptest.NewRecorder()
		endpoint(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusTeapot {
			t.Errorf("Expected %d, got %d", http.StatusTeapot, rr.Code)
		}
	}
}

func TestHealthCheckerInterface(t *testing.T) {
	var checker HealthChecker = &MockHealthChecker{
		status:     "degraded",
		details:    map[string]any{"scenariosFailed": 1},
		httpStatus: http.StatusServiceUnavailable,
	}

	status, details, code := checker.HealthCheck()
	if status != "degraded" || code != http.StatusServiceUnavailable {
		t.Errorf("HealthCheck() = %s, %d", status, code)
	}
	if details["scenariosFailed"] != 1 {
		t.Errorf("details = %v", details)
	}
	if !checker.CalculateNextRun().After(time.Now()) {
		t.Error("Next run should be in the future")
	}
}
