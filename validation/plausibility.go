// Package validation classifies a normalized panel against physiological
// plausibility rules. It never mutates the panel: blocking issues are
// reported and the caller decides which fields to withhold downstream.
package validation

import (
	"fmt"
	"math"

	"github.com/giygas/lipidcare-api/entities"
	"github.com/giygas/lipidcare-api/gap"
	"github.com/giygas/lipidcare-api/interfaces"
)

// Range is a closed interval in canonical units.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the closed interval.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// FieldRange holds the absolute and typical ranges of a quantity.
type FieldRange struct {
	Field    entities.Field `json:"field"`
	Label    string         `json:"label"`
	Unit     string         `json:"unit"`
	Absolute Range          `json:"absolute"`
	Typical  Range          `json:"typical"`
}

var fieldRanges = [...]FieldRange{
	{entities.FieldTotalCholesterol, "Total cholesterol", "mmol/L", Range{1.0, 20.0}, Range{2.5, 10.0}},
	{entities.FieldLDL, "LDL cholesterol", "mmol/L", Range{0.1, 15.0}, Range{0.5, 8.0}},
	{entities.FieldHDL, "HDL cholesterol", "mmol/L", Range{0.1, 5.0}, Range{0.6, 3.0}},
	{entities.FieldNonHDL, "Non-HDL cholesterol", "mmol/L", Range{0.2, 18.0}, Range{1.0, 9.0}},
	{entities.FieldTriglycerides, "Triglycerides", "mmol/L", Range{0.1, 60.0}, Range{0.4, 10.0}},
	{entities.FieldApoB, "Apolipoprotein B", "g/L", Range{0.1, 4.0}, Range{0.4, 2.0}},
	{entities.FieldLpa, "Lipoprotein(a)", "mg/dL", Range{0, 500}, Range{0, 180}},
	{entities.FieldHeight, "Height", "cm", Range{50, 250}, Range{140, 210}},
	{entities.FieldWeight, "Weight", "kg", Range{20, 350}, Range{40, 200}},
	{entities.FieldBMI, "BMI", "kg/m2", Range{10, 100}, Range{15, 50}},
	{entities.FieldSystolicBP, "Systolic blood pressure", "mmHg", Range{60, 300}, Range{90, 200}},
	{entities.FieldDiastolicBP, "Diastolic blood pressure", "mmHg", Range{30, 200}, Range{50, 120}},
	{entities.FieldAge, "Age", "years", Range{18, 120}, Range{25, 95}},
	{entities.FieldRiskScore, "Risk score", "%", Range{0, 100}, Range{0, 100}},
}

// Cross-field thresholds (mmol/L unless noted).
const (
	FriedewaldTolerance     = 1.0
	NonHDLTolerance         = 0.5
	MaxHDLToTCRatio         = 0.8
	WidePulseSystolic       = 180.0
	WidePulseDiastolic      = 90.0
	WidePulseDifference     = 100.0
	SevereObesityBMI        = 40.0
	VeryLowCholesterol      = 3.0
	FHSuspectAge            = 40.0
	FHSuspectTC             = 8.0
	FHSuspectTriglycerides  = 1.0
	TriglycerideToVLDLRatio = 2.2
)

// Ranges returns a copy of the per-field plausibility table.
func Ranges() []FieldRange {
	out := make([]FieldRange, len(fieldRanges))
	copy(out, fieldRanges[:])
	return out
}

// Compile-time check to ensure PlausibilityValidator implements PanelValidator
var _ interfaces.PanelValidator = (*PlausibilityValidator)(nil)

// PlausibilityValidator implements the interfaces.PanelValidator interface
type PlausibilityValidator struct{}

// NewPlausibilityValidator creates a new plausibility validator
func NewPlausibilityValidator() interfaces.PanelValidator {
	return &PlausibilityValidator{}
}

// Validate runs the per-field range checks followed by the cross-field
// rules. Issues are returned in that order.
func (v *PlausibilityValidator) Validate(p entities.NormalizedPanel) entities.ValidationResult {
	result := entities.ValidationResult{Issues: []entities.Issue{}}

	for _, fr := range fieldRanges {
		if issue, ok := v.checkRange(p, fr); ok {
			result.Issues = append(result.Issues, issue)
		}
	}

	// Cross-field rules see only values that passed the absolute checks
	usable := func(f entities.Field) (float64, bool) {
		val := p.Value(f)
		if val == nil || p.IsUnverified(f) || result.Blocked(f) {
			return 0, false
		}
		return *val, true
	}

	for _, rule := range combinationRules {
		if issue, ok := rule(usable); ok {
			result.Issues = append(result.Issues, issue)
		}
	}

	if issue, ok := checkStatinDose(p.Therapy); ok {
		result.Issues = append(result.Issues, issue)
	}

	return result
}

// checkRange classifies a single field. Unverified units cannot be range
// checked and yield a warning instead.
func (v *PlausibilityValidator) checkRange(p entities.NormalizedPanel, fr FieldRange) (entities.Issue, bool) {
	val := p.Value(fr.Field)
	if val == nil {
		return entities.Issue{}, false
	}

	if p.IsUnverified(fr.Field) {
		return entities.Issue{
			Fields:       []entities.Field{fr.Field},
			Code:         entities.CodeUnverifiedUnit,
			Severity:     entities.SeverityWarning,
			Message:      fmt.Sprintf("%s was entered in an unrecognised unit and could not be range checked", fr.Label),
			ClinicalNote: fmt.Sprintf("Re-enter the value in %s to include it in plausibility checks", fr.Unit),
		}, true
	}

	x := *val
	switch {
	case math.IsNaN(x) || math.IsInf(x, 0) || !fr.Absolute.Contains(x):
		return entities.Issue{
			Fields:   []entities.Field{fr.Field},
			Code:     entities.CodePhysiologicalRangeError,
			Severity: entities.SeverityError,
			Message: fmt.Sprintf("%s of %g %s is outside the physiologically plausible range (%g-%g %s)",
				fr.Label, x, fr.Unit, fr.Absolute.Min, fr.Absolute.Max, fr.Unit),
			ClinicalNote: "Value excluded from calculations; verify the measurement and its unit",
		}, true
	case !fr.Typical.Contains(x):
		return entities.Issue{
			Fields:   []entities.Field{fr.Field},
			Code:     entities.CodePhysiologicalRangeWarning,
			Severity: entities.SeverityWarning,
			Message: fmt.Sprintf("%s of %g %s is outside the typical range (%g-%g %s)",
				fr.Label, x, fr.Unit, fr.Typical.Min, fr.Typical.Max, fr.Unit),
			ClinicalNote: "Unusual but possible; confirm before acting on it",
		}, true
	}

	return entities.Issue{}, false
}

type lookup func(entities.Field) (float64, bool)

type combinationRule func(get lookup) (entities.Issue, bool)

var combinationRules = [...]combinationRule{
	totalBelowHDL,
	totalBelowLDL,
	friedewaldMismatch,
	nonHDLMismatch,
	hdlRatioHigh,
	systolicBelowDiastolic,
	widePulsePressure,
	obesityWithLowCholesterol,
	possibleFH,
}

func combination(severity entities.Severity, msg, note string, fields ...entities.Field) entities.Issue {
	return entities.Issue{
		Fields:       fields,
		Code:         entities.CodeImplausibleCombination,
		Severity:     severity,
		Message:      msg,
		ClinicalNote: note,
	}
}

func totalBelowHDL(get lookup) (entities.Issue, bool) {
	tc, ok1 := get(entities.FieldTotalCholesterol)
	hdl, ok2 := get(entities.FieldHDL)
	if !ok1 || !ok2 || tc >= hdl {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityError,
		"Total cholesterol cannot be less than HDL cholesterol",
		"HDL is a fraction of total cholesterol; check for transposed values or mixed units",
		entities.FieldTotalCholesterol, entities.FieldHDL), true
}

func totalBelowLDL(get lookup) (entities.Issue, bool) {
	tc, ok1 := get(entities.FieldTotalCholesterol)
	ldl, ok2 := get(entities.FieldLDL)
	if !ok1 || !ok2 || tc >= ldl {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityError,
		"Total cholesterol cannot be less than LDL cholesterol",
		"LDL is a fraction of total cholesterol; check for transposed values or mixed units",
		entities.FieldTotalCholesterol, entities.FieldLDL), true
}

func friedewaldMismatch(get lookup) (entities.Issue, bool) {
	tc, ok1 := get(entities.FieldTotalCholesterol)
	ldl, ok2 := get(entities.FieldLDL)
	hdl, ok3 := get(entities.FieldHDL)
	tg, ok4 := get(entities.FieldTriglycerides)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return entities.Issue{}, false
	}
	expected := ldl + hdl + tg/TriglycerideToVLDLRatio
	if math.Abs(tc-expected) <= FriedewaldTolerance {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityWarning,
		fmt.Sprintf("Total cholesterol %.2f mmol/L differs from LDL + HDL + TG/2.2 (%.2f mmol/L) by more than %.1f mmol/L",
			tc, expected, FriedewaldTolerance),
		"Fractions may come from different samples or assays; Friedewald estimation is unreliable when TG is high",
		entities.FieldTotalCholesterol, entities.FieldLDL, entities.FieldHDL, entities.FieldTriglycerides), true
}

func nonHDLMismatch(get lookup) (entities.Issue, bool) {
	tc, ok1 := get(entities.FieldTotalCholesterol)
	hdl, ok2 := get(entities.FieldHDL)
	nonHDL, ok3 := get(entities.FieldNonHDL)
	if !ok1 || !ok2 || !ok3 {
		return entities.Issue{}, false
	}
	if math.Abs(nonHDL-(tc-hdl)) <= NonHDLTolerance {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityWarning,
		fmt.Sprintf("Non-HDL cholesterol %.2f mmol/L does not match total minus HDL (%.2f mmol/L)", nonHDL, tc-hdl),
		"Non-HDL is defined as total cholesterol minus HDL cholesterol",
		entities.FieldNonHDL, entities.FieldTotalCholesterol, entities.FieldHDL), true
}

func hdlRatioHigh(get lookup) (entities.Issue, bool) {
	tc, ok1 := get(entities.FieldTotalCholesterol)
	hdl, ok2 := get(entities.FieldHDL)
	if !ok1 || !ok2 || tc <= 0 || hdl > tc || hdl/tc <= MaxHDLToTCRatio {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityWarning,
		fmt.Sprintf("HDL makes up %.0f%% of total cholesterol", hdl/tc*100),
		"An HDL/total cholesterol ratio above 0.8 is rarely physiological; confirm the values",
		entities.FieldHDL, entities.FieldTotalCholesterol), true
}

func systolicBelowDiastolic(get lookup) (entities.Issue, bool) {
	sbp, ok1 := get(entities.FieldSystolicBP)
	dbp, ok2 := get(entities.FieldDiastolicBP)
	if !ok1 || !ok2 || sbp >= dbp {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityError,
		"Systolic blood pressure cannot be less than diastolic",
		"Check whether systolic and diastolic values were swapped",
		entities.FieldSystolicBP, entities.FieldDiastolicBP), true
}

func widePulsePressure(get lookup) (entities.Issue, bool) {
	sbp, ok1 := get(entities.FieldSystolicBP)
	dbp, ok2 := get(entities.FieldDiastolicBP)
	if !ok1 || !ok2 || sbp <= WidePulseSystolic || dbp >= WidePulseDiastolic || sbp-dbp <= WidePulseDifference {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityWarning,
		fmt.Sprintf("Pulse pressure of %.0f mmHg is unusually wide", sbp-dbp),
		"Consider aortic regurgitation, arterial stiffness or measurement error",
		entities.FieldSystolicBP, entities.FieldDiastolicBP), true
}

func obesityWithLowCholesterol(get lookup) (entities.Issue, bool) {
	bmi, ok1 := get(entities.FieldBMI)
	tc, ok2 := get(entities.FieldTotalCholesterol)
	if !ok1 || !ok2 || bmi <= SevereObesityBMI || tc >= VeryLowCholesterol {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityWarning,
		"Severe obesity with very low total cholesterol is unusual",
		"Consider malabsorption, hyperthyroidism, liver disease or a data entry error",
		entities.FieldBMI, entities.FieldTotalCholesterol), true
}

func possibleFH(get lookup) (entities.Issue, bool) {
	age, ok1 := get(entities.FieldAge)
	tc, ok2 := get(entities.FieldTotalCholesterol)
	tg, ok3 := get(entities.FieldTriglycerides)
	if !ok1 || !ok2 || !ok3 || age >= FHSuspectAge || tc <= FHSuspectTC || tg >= FHSuspectTriglycerides {
		return entities.Issue{}, false
	}
	return combination(entities.SeverityWarning,
		"Very high total cholesterol with low triglycerides at a young age suggests familial hypercholesterolemia",
		"Assess with Dutch Lipid Clinic Network or Simon Broome criteria and consider genetic testing",
		entities.FieldAge, entities.FieldTotalCholesterol, entities.FieldTriglycerides), true
}

// checkStatinDose flags a missing or non-positive dose as an error and warns
// when the recorded dose exceeds the molecule's maximum.
func checkStatinDose(t entities.TherapyState) (entities.Issue, bool) {
	if !t.OnStatin() {
		return entities.Issue{}, false
	}
	if t.DoseMg <= 0 {
		return entities.Issue{
			Fields:       []entities.Field{entities.FieldStatinDose},
			Code:         entities.CodePhysiologicalRangeError,
			Severity:     entities.SeverityError,
			Message:      fmt.Sprintf("%s dose of %g mg is not a valid daily dose", t.Statin, t.DoseMg),
			ClinicalNote: "Dose excluded; intensification cannot be assessed until the prescribed dose is confirmed",
		}, true
	}

	maxDose, ok := gap.MaxDailyDose(t.Statin)
	if !ok || t.DoseMg <= maxDose {
		return entities.Issue{}, false
	}
	return entities.Issue{
		Fields:       []entities.Field{entities.FieldStatinDose},
		Code:         entities.CodePhysiologicalRangeWarning,
		Severity:     entities.SeverityWarning,
		Message:      fmt.Sprintf("%s dose of %g mg exceeds the maximum daily dose of %g mg", t.Statin, t.DoseMg, maxDose),
		ClinicalNote: "Treated as maximal dose; confirm the prescribed dose",
	}, true
}
