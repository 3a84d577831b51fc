// Package coverage evaluates the PCSK9 inhibitor coverage checklist. The
// outcome always lists which criteria were met and which were not.
package coverage

import (
	"fmt"
	"strings"

	"github.com/giygas/lipidcare-api/entities"
	"github.com/giygas/lipidcare-api/gap"
)

// Pathway LDL thresholds in mmol/L.
const (
	SecondaryLDL = 2.0
	PrimaryFHLDL = 3.5
)

// Criterion texts. Unmet criteria are reported with the matching
// requirement text.
const (
	CriterionPathway          = "Secondary prevention with LDL >= 2.0 mmol/L, or familial hypercholesterolemia with LDL >= 3.5 mmol/L"
	CriterionMaximalStatin    = "Maximally tolerated statin dose or documented complete statin intolerance"
	CriterionEzetimibe        = "Ezetimibe in combination, required regardless of statin intolerance"
	CriterionDuration         = "At least 3 months on maximum tolerated therapy"
	CriterionIntoleranceType  = "Statin intolerance type documented"
	noteIntoleranceNotApplies = "Intolerance documentation not applicable: no statin intolerance recorded"
)

// SustainedMaximumTherapy is maximum therapy held for at least three months.
// Unlike gap.OnMaximumTherapy it takes the duration band into account.
func SustainedMaximumTherapy(t entities.TherapyState) bool {
	return gap.OnMaximumTherapy(t) && t.MaxTherapyDuration.AtLeastThreeMonths()
}

// Pathway returns the qualifying coverage pathway, if any.
func Pathway(p entities.NormalizedPanel) entities.CoveragePathway {
	if p.LDL == nil {
		return entities.PathwayNone
	}
	ldl := *p.LDL

	switch p.Risk.Prevention {
	case entities.PreventionSecondary:
		if ldl >= SecondaryLDL {
			return entities.PathwaySecondary
		}
	case entities.PreventionPrimary:
		if ldl >= PrimaryFHLDL && p.FHStatus == entities.FHConfirmed {
			return entities.PathwayPrimaryFH
		}
	}
	return entities.PathwayNone
}

// Evaluate runs the checklist. blocked lists fields withheld by validation
// and is recorded in the notes.
func Evaluate(p entities.NormalizedPanel, g entities.GapAssessment, blocked []entities.Field) entities.CoverageAssessment {
	therapy := p.Therapy
	a := entities.CoverageAssessment{
		Pathway:        Pathway(p),
		CriteriaMet:    []string{},
		CriteriaNotMet: []string{},
		Notes:          []string{},
	}

	check := func(ok bool, met, unmet string) {
		if ok {
			a.CriteriaMet = append(a.CriteriaMet, met)
		} else {
			a.CriteriaNotMet = append(a.CriteriaNotMet, unmet)
		}
	}

	switch a.Pathway {
	case entities.PathwaySecondary:
		check(true, fmt.Sprintf("Secondary prevention with LDL %.2f mmol/L >= %.1f mmol/L", *p.LDL, SecondaryLDL), "")
	case entities.PathwayPrimaryFH:
		check(true, fmt.Sprintf("Familial hypercholesterolemia with LDL %.2f mmol/L >= %.1f mmol/L", *p.LDL, PrimaryFHLDL), "")
	case entities.PathwayNone:
		check(false, "", CriterionPathway)
	}

	check(g.MaxStatinReached || therapy.Intolerance == entities.IntoleranceComplete,
		maximalStatinText(therapy), CriterionMaximalStatin)

	check(therapy.Ezetimibe, "On ezetimibe in combination", CriterionEzetimibe)

	check(therapy.MaxTherapyDuration.AtLeastThreeMonths(),
		fmt.Sprintf("Maximum therapy duration %s", therapy.MaxTherapyDuration), CriterionDuration)

	if therapy.Intolerance == entities.IntoleranceNone {
		a.Notes = append(a.Notes, noteIntoleranceNotApplies)
	} else {
		check(therapy.IntoleranceType.Documented(),
			fmt.Sprintf("Statin intolerance documented (%s)", therapy.IntoleranceType), CriterionIntoleranceType)
	}

	if therapy.PCSK9 {
		a.Notes = append(a.Notes, "Already on a PCSK9 inhibitor; criteria assessed for renewal")
	}
	if p.LDL == nil {
		a.Notes = append(a.Notes, "LDL unavailable; pathway cannot be established")
	} else if g.AtLDLTarget != nil && *g.AtLDLTarget {
		a.Notes = append(a.Notes, fmt.Sprintf("LDL at target (%.2f mmol/L)", g.LDLTarget))
	}
	if len(blocked) > 0 {
		names := make([]string, len(blocked))
		for i, f := range blocked {
			names[i] = string(f)
		}
		a.Notes = append(a.Notes, "Excluded by validation: "+strings.Join(names, ", "))
	}
	if SustainedMaximumTherapy(therapy) {
		a.Notes = append(a.Notes, "Sustained maximum therapy for at least 3 months")
	}

	a.Eligible = len(a.CriteriaNotMet) == 0 && a.Pathway != entities.PathwayNone
	return a
}

func maximalStatinText(t entities.TherapyState) string {
	if t.Intolerance == entities.IntoleranceComplete {
		return "Complete statin intolerance documented"
	}
	return fmt.Sprintf("On maximal %s dose (%g mg)", t.Statin, t.DoseMg)
}
