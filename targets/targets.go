// Package targets maps the prevention context, risk score and Lp(a) to a
// risk category and its lipid goals.
package targets

import (
	"math"
	"slices"

	"github.com/giygas/lipidcare-api/entities"
)

// Risk score thresholds (10-year %, closed lower bounds).
const (
	IntermediateRiskThreshold = 10.0
	HighRiskThreshold         = 20.0
)

// Lp(a) adjustment.
const (
	ElevatedLpaThreshold = 50.0 // mg/dL
	LpaLDLReduction      = 0.3
	LpaLDLFloor          = 1.4
)

// Rule is one row of the ordered target table.
type Rule struct {
	Name             string                `json:"name"`
	Condition        string                `json:"condition"`
	RiskCategory     entities.RiskCategory `json:"riskCategory"`
	LDL              float64               `json:"ldl"`
	NonHDL           float64               `json:"nonHdl"`
	ApoB             float64               `json:"apoB"`
	PercentReduction float64               `json:"percentReductionTarget"`
}

var table = [...]Rule{
	{"secondary-event", "secondary prevention after MI or multi-vessel disease",
		entities.RiskExtreme, 1.4, 2.2, 0.65, 50},
	{"secondary", "secondary prevention", entities.RiskVeryHigh, 1.8, 2.6, 0.8, 50},
	{"primary-high", "primary prevention, risk score >= 20%", entities.RiskHigh, 2.0, 2.6, 0.8, 50},
	{"primary-intermediate", "primary prevention, risk score 10-20%", entities.RiskIntermediate, 2.0, 2.6, 0.8, 30},
	{"primary-low", "primary prevention, risk score < 10% or unknown", entities.RiskLow, 3.5, 4.2, 1.0, 30},
}

// Table returns a copy of the ordered target table.
func Table() []Rule {
	return slices.Clone(table[:])
}

// match returns the index of the first rule that applies.
func match(risk entities.RiskContext) int {
	switch risk.Prevention {
	case entities.PreventionSecondary:
		switch risk.Event {
		case entities.EventMI, entities.EventMultiVessel:
			return 0
		case entities.EventNone:
			return 1
		}
		return 1
	case entities.PreventionPrimary:
	}

	score := risk.RiskScore
	switch {
	case score == nil || math.IsNaN(*score):
		return 4
	case *score >= HighRiskThreshold:
		return 2
	case *score >= IntermediateRiskThreshold:
		return 3
	}
	return 4
}

// Calculate returns the targets for a risk context. lpa is the Lp(a) in
// mg/dL, or nil when unknown. Always returns a category.
func Calculate(risk entities.RiskContext, lpa *float64) entities.TargetLevels {
	rule := table[match(risk)]

	t := entities.TargetLevels{
		RiskCategory:     rule.RiskCategory,
		LDL:              rule.LDL,
		NonHDL:           rule.NonHDL,
		ApoB:             rule.ApoB,
		PercentReduction: rule.PercentReduction,
		Rule:             rule.Name,
	}

	if lpa != nil && *lpa >= ElevatedLpaThreshold {
		adjusted := math.Round(math.Max(rule.LDL-LpaLDLReduction, LpaLDLFloor)*100) / 100
		t.LpaAdjustedLDL = &adjusted
		t.HasElevatedLpa = true
	}

	return t
}
