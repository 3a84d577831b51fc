package coverage

import (
	"slices"
	"strings"
	"testing"

	"github.com/giygas/lipidcare-api/entities"
	"github.com/giygas/lipidcare-api/gap"
	"github.com/giygas/lipidcare-api/targets"
)

func ptr(v float64) *float64 { return &v }

func run(p entities.NormalizedPanel, blocked ...entities.Field) entities.CoverageAssessment {
	g := gap.Assess(p, targets.Calculate(p.Risk, p.Lpa))
	return Evaluate(p, g, blocked)
}

var secondary = entities.RiskContext{Prevention: entities.PreventionSecondary, Event: entities.EventMI}

func TestCompleteIntoleranceWithoutEzetimibe(t *testing.T) {
	therapy := entities.TherapyState{
		Intolerance:        entities.IntoleranceComplete,
		IntoleranceType:    entities.IntoleranceTypeMuscle,
		MaxTherapyDuration: entities.DurationOver6Months,
	}
	p := entities.NormalizedPanel{LDL: ptr(3.0), Risk: secondary, Therapy: therapy}

	if gap.OnMaximumTherapy(therapy) {
		t.Error("OnMaximumTherapy must require ezetimibe even with complete intolerance")
	}

	a := run(p)
	if a.Eligible {
		t.Error("should not be eligible without ezetimibe")
	}
	if !slices.Contains(a.CriteriaNotMet, CriterionEzetimibe) {
		t.Errorf("criteriaNotMet = %v, want ezetimibe requirement", a.CriteriaNotMet)
	}
	if a.Pathway != entities.PathwaySecondary {
		t.Errorf("pathway = %s", a.Pathway)
	}
}

func TestEligibleSecondary(t *testing.T) {
	p := entities.NormalizedPanel{
		LDL:  ptr(2.6),
		Risk: secondary,
		Therapy: entities.TherapyState{
			Statin: entities.StatinRosuvastatin, Intensity: entities.IntensityHigh, DoseMg: 40,
			Ezetimibe: true, MaxTherapyDuration: entities.Duration3To6Months,
		},
	}

	a := run(p)
	if !a.Eligible {
		t.Fatalf("expected eligible, unmet: %v", a.CriteriaNotMet)
	}
	if len(a.CriteriaNotMet) != 0 || len(a.CriteriaMet) != 4 {
		t.Errorf("met = %v, notMet = %v", a.CriteriaMet, a.CriteriaNotMet)
	}
	if !slices.Contains(a.Notes, noteIntoleranceNotApplies) {
		t.Errorf("notes = %v", a.Notes)
	}
}

func TestEligiblePrimaryFH(t *testing.T) {
	p := entities.NormalizedPanel{
		LDL:      ptr(4.2),
		FHStatus: entities.FHConfirmed,
		Therapy: entities.TherapyState{
			Statin: entities.StatinAtorvastatin, Intensity: entities.IntensityHigh, DoseMg: 80,
			Ezetimibe: true, MaxTherapyDuration: entities.DurationOver6Months,
		},
	}

	a := run(p)
	if !a.Eligible || a.Pathway != entities.PathwayPrimaryFH {
		t.Errorf("eligible = %v, pathway = %s, unmet = %v", a.Eligible, a.Pathway, a.CriteriaNotMet)
	}
}

func TestPathway(t *testing.T) {
	tests := []struct {
		name  string
		panel entities.NormalizedPanel
		want  entities.CoveragePathway
	}{
		{"secondary at 2.0", entities.NormalizedPanel{LDL: ptr(2.0), Risk: secondary}, entities.PathwaySecondary},
		{"secondary below 2.0", entities.NormalizedPanel{LDL: ptr(1.9), Risk: secondary}, entities.PathwayNone},
		{"primary FH at 3.5", entities.NormalizedPanel{LDL: ptr(3.5), FHStatus: entities.FHConfirmed}, entities.PathwayPrimaryFH},
		{"primary FH unknown", entities.NormalizedPanel{LDL: ptr(5.0)}, entities.PathwayNone},
		{"LDL unknown", entities.NormalizedPanel{Risk: secondary}, entities.PathwayNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pathway(tt.panel); got != tt.want {
				t.Errorf("Pathway = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnmetCriteria(t *testing.T) {
	p := entities.NormalizedPanel{
		LDL:  ptr(3.0),
		Risk: secondary,
		Therapy: entities.TherapyState{
			Statin: entities.StatinAtorvastatin, Intensity: entities.IntensityModerate, DoseMg: 20,
			Intolerance: entities.IntolerancePartial, MaxTherapyDuration: entities.DurationUnder3Months,
		},
	}

	a := run(p)
	for _, want := range []string{CriterionMaximalStatin, CriterionEzetimibe, CriterionDuration, CriterionIntoleranceType} {
		if !slices.Contains(a.CriteriaNotMet, want) {
			t.Errorf("criteriaNotMet missing %q: %v", want, a.CriteriaNotMet)
		}
	}
	if a.Eligible {
		t.Error("should not be eligible")
	}
}

func TestNotes(t *testing.T) {
	p := entities.NormalizedPanel{
		Risk:    secondary,
		Therapy: entities.TherapyState{PCSK9: true},
	}

	a := run(p, entities.FieldTotalCholesterol, entities.FieldHDL)
	joined := strings.Join(a.Notes, "\n")
	for _, want := range []string{"renewal", "LDL unavailable", "totalCholesterol, hdl"} {
		if !strings.Contains(joined, want) {
			t.Errorf("notes missing %q: %v", want, a.Notes)
		}
	}
	if !slices.Contains(a.CriteriaNotMet, CriterionPathway) {
		t.Errorf("pathway should be unmet without LDL: %v", a.CriteriaNotMet)
	}
}

func TestSustainedMaximumTherapy(t *testing.T) {
	base := entities.TherapyState{
		Statin: entities.StatinAtorvastatin, Intensity: entities.IntensityHigh, DoseMg: 80, Ezetimibe: true,
	}

	tests := []struct {
		duration entities.DurationBand
		want     bool
	}{
		{entities.DurationNone, false},
		{entities.DurationUnder3Months, false},
		{entities.Duration3To6Months, true},
		{entities.DurationOver6Months, true},
	}

	for _, tt := range tests {
		therapy := base
		therapy.MaxTherapyDuration = tt.duration
		if !gap.OnMaximumTherapy(therapy) {
			t.Fatal("base therapy should be maximum therapy")
		}
		if got := SustainedMaximumTherapy(therapy); got != tt.want {
			t.Errorf("%s: SustainedMaximumTherapy = %v, want %v", tt.duration, got, tt.want)
		}
	}

	noEze := base
	noEze.Ezetimibe = false
	noEze.MaxTherapyDuration = entities.DurationOver6Months
	if SustainedMaximumTherapy(noEze) {
		t.Error("duration alone is not sustained maximum therapy")
	}
}
