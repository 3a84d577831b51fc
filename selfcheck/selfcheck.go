// Package selfcheck runs a fixed set of reference scenarios through an
// evaluator and reports any deviation from the expected decisions. The
// scheduler runs it periodically and /health reports the last result.
package selfcheck

import (
	"fmt"
	"slices"
	"time"

	"github.com/giygas/lipidcare-api/entities"
	"github.com/giygas/lipidcare-api/interfaces"
)

// Scenario is a reference input with its expected outcome.
type Scenario struct {
	Name   string
	Params entities.PatientParameters
	Check  func(entities.Evaluation) error
}

// Compile-time check to ensure Checker implements SelfChecker
var _ interfaces.SelfChecker = (*Checker)(nil)

// Checker runs scenarios against an evaluator.
type Checker struct {
	evaluator interfaces.Evaluator
	scenarios []Scenario
}

// NewChecker creates a checker with the reference scenarios.
func NewChecker(evaluator interfaces.Evaluator) *Checker {
	return NewCheckerWithScenarios(evaluator, Scenarios())
}

// NewCheckerWithScenarios creates a checker with custom scenarios.
func NewCheckerWithScenarios(evaluator interfaces.Evaluator, scenarios []Scenario) *Checker {
	return &Checker{evaluator: evaluator, scenarios: scenarios}
}

// Run evaluates every scenario twice and checks both the expected outcome
// and that the two results are identical.
func (c *Checker) Run() *interfaces.SelfCheckReport {
	start := time.Now()
	report := &interfaces.SelfCheckReport{
		EngineVersion: c.evaluator.Version(),
		RanAt:         start,
		Failures:      []string{},
	}

	for _, s := range c.scenarios {
		if err := c.runScenario(s); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", s.Name, err))
			continue
		}
		report.Passed++
	}

	report.Duration = time.Since(start)
	return report
}

func (c *Checker) runScenario(s Scenario) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	first := c.evaluator.Evaluate(s.Params)
	second := c.evaluator.Evaluate(s.Params)
	if !sameDecision(first, second) {
		return fmt.Errorf("evaluation is not deterministic")
	}
	return s.Check(first)
}

// sameDecision compares the decision-bearing parts of two evaluations.
func sameDecision(a, b entities.Evaluation) bool {
	return a.Targets.RiskCategory == b.Targets.RiskCategory &&
		a.Gap.LDLTarget == b.Gap.LDLTarget &&
		a.Recommendation.Statin == b.Recommendation.Statin &&
		a.Recommendation.Ezetimibe == b.Recommendation.Ezetimibe &&
		a.Recommendation.PCSK9 == b.Recommendation.PCSK9 &&
		slices.Equal(a.Recommendation.Summary, b.Recommendation.Summary) &&
		a.Coverage.Eligible == b.Coverage.Eligible &&
		slices.Equal(a.Coverage.CriteriaNotMet, b.Coverage.CriteriaNotMet) &&
		len(a.Validation.Issues) == len(b.Validation.Issues)
}

func mmol(v float64) *entities.Measurement {
	return &entities.Measurement{Value: v, Unit: "mmol/L"}
}

func ptr(v float64) *float64 { return &v }

// Scenarios returns the reference scenarios.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name: "intermediate risk without statin",
			Params: entities.PatientParameters{
				LDL:  mmol(3.0),
				Risk: entities.RiskContext{Prevention: entities.PreventionPrimary, RiskScore: ptr(15)},
			},
			Check: func(e entities.Evaluation) error {
				if e.Targets.RiskCategory != entities.RiskIntermediate {
					return fmt.Errorf("risk category %s, want intermediate", e.Targets.RiskCategory)
				}
				if e.Gap.LDLTarget != 2.0 {
					return fmt.Errorf("LDL target %v, want 2.0", e.Gap.LDLTarget)
				}
				if e.Recommendation.Statin.Text != "Initiate moderate-intensity statin therapy" {
					return fmt.Errorf("statin recommendation %q", e.Recommendation.Statin.Text)
				}
				return nil
			},
		},
		{
			Name: "post-MI on maximal therapy",
			Params: entities.PatientParameters{
				LDL:  mmol(2.0),
				Risk: entities.RiskContext{Prevention: entities.PreventionSecondary, Event: entities.EventMI},
				Therapy: entities.TherapyState{
					Statin: entities.StatinAtorvastatin, Intensity: entities.IntensityHigh, DoseMg: 80, Ezetimibe: true,
				},
			},
			Check: func(e entities.Evaluation) error {
				if e.Targets.RiskCategory != entities.RiskExtreme || e.Gap.LDLTarget != 1.4 {
					return fmt.Errorf("category %s target %v, want extreme 1.4", e.Targets.RiskCategory, e.Gap.LDLTarget)
				}
				if e.Gap.AtLDLTarget == nil || *e.Gap.AtLDLTarget {
					return fmt.Errorf("LDL 2.0 reported at target")
				}
				if e.Recommendation.PCSK9.Action != entities.ActionConsider {
					return fmt.Errorf("PCSK9 action %s, want consider", e.Recommendation.PCSK9.Action)
				}
				return nil
			},
		},
		{
			Name: "total cholesterol below HDL",
			Params: entities.PatientParameters{
				TotalCholesterol: mmol(4.0),
				HDL:              mmol(4.5),
			},
			Check: func(e entities.Evaluation) error {
				for _, issue := range e.Validation.Errors() {
					if issue.Code == entities.CodeImplausibleCombination &&
						issue.Message == "Total cholesterol cannot be less than HDL cholesterol" {
						if !slices.Contains(e.Excluded, entities.FieldHDL) {
							return fmt.Errorf("HDL not excluded")
						}
						return nil
					}
				}
				return fmt.Errorf("implausible combination not reported")
			},
		},
		{
			Name: "elevated Lp(a) tightens target",
			Params: entities.PatientParameters{
				LDL:  mmol(2.5),
				Lpa:  &entities.Measurement{Value: 60, Unit: "mg/dL"},
				Risk: entities.RiskContext{RiskScore: ptr(15)},
			},
			Check: func(e entities.Evaluation) error {
				if e.Targets.LpaAdjustedLDL == nil || *e.Targets.LpaAdjustedLDL != 1.7 {
					return fmt.Errorf("Lp(a) adjusted LDL %v, want 1.7", e.Targets.LpaAdjustedLDL)
				}
				return nil
			},
		},
		{
			Name: "complete intolerance without ezetimibe",
			Params: entities.PatientParameters{
				LDL:  mmol(3.0),
				Risk: entities.RiskContext{Prevention: entities.PreventionSecondary},
				Therapy: entities.TherapyState{
					Intolerance: entities.IntoleranceComplete, IntoleranceType: entities.IntoleranceTypeMuscle,
				},
			},
			Check: func(e entities.Evaluation) error {
				if e.Gap.OnMaximumTherapy {
					return fmt.Errorf("on maximum therapy without ezetimibe")
				}
				if e.Coverage.Eligible {
					return fmt.Errorf("eligible without ezetimibe")
				}
				if len(e.Coverage.CriteriaNotMet) == 0 {
					return fmt.Errorf("no unmet criteria reported")
				}
				return nil
			},
		},
		{
			Name: "risk score boundaries",
			Params: entities.PatientParameters{
				LDL:  mmol(2.0),
				Risk: entities.RiskContext{RiskScore: ptr(20)},
			},
			Check: func(e entities.Evaluation) error {
				if e.Targets.RiskCategory != entities.RiskHigh {
					return fmt.Errorf("risk score 20 gave %s, want high", e.Targets.RiskCategory)
				}
				if e.Gap.AtLDLTarget == nil || !*e.Gap.AtLDLTarget {
					return fmt.Errorf("LDL equal to target not at target")
				}
				if e.Targets.LDL > e.Targets.NonHDL {
					return fmt.Errorf("LDL target above non-HDL target")
				}
				return nil
			},
		},
	}
}
