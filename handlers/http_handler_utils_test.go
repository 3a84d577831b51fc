package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/lipidcare-api/config"
	"github.com/giygas/lipidcare-api/engine"
	"github.com/giygas/lipidcare-api/entities"
	"github.com/giygas/lipidcare-api/interfaces"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

// TestDataFactory creates consistent patient parameters across tests
type TestDataFactory struct{}

func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

func (f *TestDataFactory) mmol(v float64) *entities.Measurement {
	return &entities.Measurement{Value: v, Unit: "mmol/L"}
}

// CreateIntermediateRisk returns an untreated primary-prevention patient
func (f *TestDataFactory) CreateIntermediateRisk() entities.PatientParameters {
	score := 15.0
	return entities.PatientParameters{
		TotalCholesterol: f.mmol(5.2),
		LDL:              f.mmol(3.0),
		HDL:              f.mmol(1.3),
		Triglycerides:    f.mmol(1.5),
		Risk:             entities.RiskContext{Prevention: entities.PreventionPrimary, RiskScore: &score},
	}
}

// CreatePostMI returns a secondary-prevention patient on maximal therapy
func (f *TestDataFactory) CreatePostMI() entities.PatientParameters {
	return entities.PatientParameters{
		LDL:  f.mmol(2.0),
		Risk: entities.RiskContext{Prevention: entities.PreventionSecondary, Event: entities.EventMI},
		Therapy: entities.TherapyState{
			Statin:    entities.StatinAtorvastatin,
			Intensity: entities.IntensityHigh,
			DoseMg:    80,
			Ezetimibe: true,
		},
	}
}

// JSONBody marshals v for use as a request body
func (f *TestDataFactory) JSONBody(t testing.TB, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}

// ============================================================================
// MOCK REPORT STORE
// ============================================================================

type MockReportStore struct {
	report          *interfaces.SelfCheckReport
	lastRun         time.Time
	running         bool
	serverStartTime time.Time
}

func (m *MockReportStore) GetReport() *interfaces.SelfCheckReport { return m.report }
func (m *MockReportStore) GetLastRun() time.Time { return m.lastRun }
func (m *MockReportStore) IsRunning() bool { return m.running }
func (m *MockReportStore) GetServerStartTime() time.Time { return m.serverStartTime }
func (m *MockReportStore) UpdateReport(r *interfaces.SelfCheckReport) { m.report = r }
func (m *MockReportStore) BeginRun() bool { return !m.running }
func (m *MockReportStore) EndRun() {}

// MockReportStoreBuilder builds report stores for tests
type MockReportStoreBuilder struct {
	store *MockReportStore
}

func NewMockReportStoreBuilder() *MockReportStoreBuilder {
	return &MockReportStoreBuilder{store: &MockReportStore{
		serverStartTime: time.Now().Add(-90 * time.Minute),
	}}
}

func (b *MockReportStoreBuilder) WithServerStartTime(t time.Time) *MockReportStoreBuilder {
	b.store.serverStartTime = t
	return b
}

func (b *MockReportStoreBuilder) WithReport(r *interfaces.SelfCheckReport, lastRun time.Time) *MockReportStoreBuilder {
	b.store.report = r
	b.store.lastRun = lastRun
	return b
}

func (b *MockReportStoreBuilder) Build() *MockReportStore {
	return b.store
}

// ============================================================================
// MOCK HEALTH CHECKER
// ============================================================================

type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
	nextRun    time.Time
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextRun() time.Time {
	return m.nextRun
}

// MockHealthCheckerBuilder builds health checkers for tests
type MockHealthCheckerBuilder struct {
	checker *MockHealthChecker
}

func NewMockHealthCheckerBuilder() *MockHealthCheckerBuilder {
	return &MockHealthCheckerBuilder{checker: &MockHealthChecker{
		status:     "healthy",
		details:    map[string]any{"scenariosPassed": 6, "scenariosFailed": 0},
		httpStatus: http.StatusOK,
		nextRun:    time.Now().Add(time.Hour),
	}}
}

func (b *MockHealthCheckerBuilder) WithStatus(status string, httpStatus int) *MockHealthCheckerBuilder {
	b.checker.status = status
	b.checker.httpStatus = httpStatus
	return b
}

func (b *MockHealthCheckerBuilder) Build() *MockHealthChecker {
	return b.checker
}

// ============================================================================
// MOCK EVALUATOR
// ============================================================================

// MockEvaluator records the parameters it receives and returns canned results
type MockEvaluator struct {
	lastParams entities.PatientParameters
	lastRisk   entities.RiskContext
	lastLpa    *float64
	evaluation entities.Evaluation
}

func (m *MockEvaluator) Evaluate(p entities.PatientParameters) entities.Evaluation {
	m.lastParams = p
	return m.evaluation
}

func (m *MockEvaluator) Normalize(p entities.PatientParameters) entities.NormalizedPanel {
	m.lastParams = p
	return m.evaluation.Panel
}

func (m *MockEvaluator) Validate(p entities.PatientParameters) (entities.NormalizedPanel, entities.ValidationResult) {
	m.lastParams = p
	return m.evaluation.Panel, m.evaluation.Validation
}

func (m *MockEvaluator) Targets(risk entities.RiskContext, lpa *float64) entities.TargetLevels {
	m.lastRisk = risk
	m.lastLpa = lpa
	return m.evaluation.Targets
}

func (m *MockEvaluator) Version() string { return "test" }

func (m *MockEvaluator) LpaConversion() config.LpaConversion { return config.DefaultLpaConversion() }

// ============================================================================
// HELPERS
// ============================================================================

func newTestEngine(t testing.TB) *engine.Engine {
	t.Helper()
	e, err := engine.New(config.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

// newTestHandler wires the real engine with mock store and health checker
func newTestHandler(t testing.TB) *HTTPHandlerImpl {
	t.Helper()
	return NewHTTPHandler(
		newTestEngine(t),
		NewMockReportStoreBuilder().Build(),
		NewMockHealthCheckerBuilder().Build(),
	).(*HTTPHandlerImpl)
}

func postJSON(target string, body *bytes.Reader) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}
