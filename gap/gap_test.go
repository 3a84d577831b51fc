package gap

import (
	"testing"

	"github.com/giygas/lipidcare-api/entities"
)

func ptr(v float64) *float64 { return &v }

func target(ldl float64) entities.TargetLevels {
	return entities.TargetLevels{RiskCategory: entities.RiskHigh, LDL: ldl, NonHDL: 2.6, ApoB: 0.8}
}

func TestMaxDailyDose(t *testing.T) {
	want := map[entities.Statin]float64{
		entities.StatinAtorvastatin: 80,
		entities.StatinRosuvastatin: 40,
		entities.StatinSimvastatin:  80,
		entities.StatinPravastatin:  80,
		entities.StatinLovastatin:   80,
		entities.StatinFluvastatin:  80,
		entities.StatinPitavastatin: 4,
	}

	for _, s := range entities.Statins() {
		got, ok := MaxDailyDose(s)
		if !ok {
			t.Errorf("%s missing from dose table", s)
			continue
		}
		if got != want[s] {
			t.Errorf("%s max = %v, want %v", s, got, want[s])
		}
	}

	if _, ok := MaxDailyDose(entities.StatinNone); ok {
		t.Error("StatinNone should have no maximum")
	}
	if len(MaxDoseTable()) != len(entities.Statins()) {
		t.Errorf("table has %d rows, want %d", len(MaxDoseTable()), len(entities.Statins()))
	}
}

func TestTherapyFlags(t *testing.T) {
	tests := []struct {
		name        string
		therapy     entities.TherapyState
		canIntens   bool
		maxReached  bool
		onMaxTherap bool
	}{
		{"no statin", entities.TherapyState{}, false, false, false},
		{"moderate below max", entities.TherapyState{Statin: entities.StatinAtorvastatin, Intensity: entities.IntensityModerate, DoseMg: 20},
			true, false, false},
		{"low below max", entities.TherapyState{Statin: entities.StatinPitavastatin, Intensity: entities.IntensityLow, DoseMg: 1},
			true, false, false},
		{"high below max cannot intensify", entities.TherapyState{Statin: entities.StatinAtorvastatin, Intensity: entities.IntensityHigh, DoseMg: 40},
			false, false, false},
		{"max without ezetimibe", entities.TherapyState{Statin: entities.StatinRosuvastatin, Intensity: entities.IntensityHigh, DoseMg: 40},
			false, true, false},
		{"max with ezetimibe", entities.TherapyState{Statin: entities.StatinRosuvastatin, Intensity: entities.IntensityHigh, DoseMg: 40, Ezetimibe: true},
			false, true, true},
		{"above max counts as max", entities.TherapyState{Statin: entities.StatinPitavastatin, Intensity: entities.IntensityModerate, DoseMg: 8, Ezetimibe: true},
			false, true, true},
		{"unknown dose cannot intensify", entities.TherapyState{Statin: entities.StatinAtorvastatin, Intensity: entities.IntensityModerate},
			false, false, false},
		{"negative dose cannot intensify", entities.TherapyState{Statin: entities.StatinAtorvastatin, Intensity: entities.IntensityModerate, DoseMg: -20},
			false, false, false},
		{"complete intolerance with ezetimibe", entities.TherapyState{Intolerance: entities.IntoleranceComplete, Ezetimibe: true},
			false, false, true},
		{"complete intolerance without ezetimibe", entities.TherapyState{Intolerance: entities.IntoleranceComplete},
			false, false, false},
		{"partial intolerance with ezetimibe", entities.TherapyState{Statin: entities.StatinRosuvastatin, Intensity: entities.IntensityLow, DoseMg: 5,
			Intolerance: entities.IntolerancePartial, Ezetimibe: true}, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanIntensifyStatin(tt.therapy); got != tt.canIntens {
				t.Errorf("CanIntensifyStatin = %v, want %v", got, tt.canIntens)
			}
			if got := MaxStatinReached(tt.therapy); got != tt.maxReached {
				t.Errorf("MaxStatinReached = %v, want %v", got, tt.maxReached)
			}
			if got := OnMaximumTherapy(tt.therapy); got != tt.onMaxTherap {
				t.Errorf("OnMaximumTherapy = %v, want %v", got, tt.onMaxTherap)
			}
		})
	}
}

func TestAssessGaps(t *testing.T) {
	panel := entities.NormalizedPanel{LDL: ptr(3.0), NonHDL: ptr(3.6), ApoB: ptr(0.7)}
	g := Assess(panel, target(2.0))

	if g.AtLDLTarget == nil || *g.AtLDLTarget {
		t.Fatalf("expected LDL above target, got %v", g.AtLDLTarget)
	}
	if *g.LDLGap != 1.0 {
		t.Errorf("LDL gap = %v, want 1.0", *g.LDLGap)
	}
	if *g.NonHDLGap != 1.0 || *g.AtNonHDLTarget {
		t.Errorf("non-HDL gap = %v at=%v", *g.NonHDLGap, *g.AtNonHDLTarget)
	}
	if *g.ApoBGap != -0.1 || !*g.AtApoBTarget {
		t.Errorf("apoB gap = %v at=%v", *g.ApoBGap, *g.AtApoBTarget)
	}
	if g.EstimatedAdditionalLDLReductionPercent != 33.3 {
		t.Errorf("reduction = %v, want 33.3", g.EstimatedAdditionalLDLReductionPercent)
	}
}

func TestAssessLDLEqualToTargetIsAtTarget(t *testing.T) {
	g := Assess(entities.NormalizedPanel{LDL: ptr(2.0)}, target(2.0))
	if g.AtLDLTarget == nil || !*g.AtLDLTarget {
		t.Errorf("LDL equal to target should be at target")
	}
	if *g.LDLGap != 0 || g.EstimatedAdditionalLDLReductionPercent != 0 {
		t.Errorf("gap = %v, reduction = %v", *g.LDLGap, g.EstimatedAdditionalLDLReductionPercent)
	}
}

func TestAssessUsesLpaAdjustedTarget(t *testing.T) {
	tl := target(2.0)
	adjusted := 1.7
	tl.LpaAdjustedLDL = &adjusted
	tl.HasElevatedLpa = true

	g := Assess(entities.NormalizedPanel{LDL: ptr(1.8)}, tl)
	if g.LDLTarget != 1.7 {
		t.Errorf("LDLTarget = %v, want 1.7", g.LDLTarget)
	}
	if *g.AtLDLTarget {
		t.Error("1.8 should be above the adjusted target")
	}
}

func TestAssessMissingValues(t *testing.T) {
	g := Assess(entities.NormalizedPanel{}, target(2.0))

	if g.AtLDLTarget != nil || g.LDLGap != nil || g.AtNonHDLTarget != nil || g.AtApoBTarget != nil {
		t.Errorf("expected nil comparisons, got %+v", g)
	}
	if g.LDLKnown() || g.AboveLDLTarget() {
		t.Error("LDL should be unknown")
	}
	if g.Hypertriglyceridemia || g.MixedDyslipidemia {
		t.Error("no triglyceride flags without triglycerides")
	}
}

func TestAssessTriglycerideFlags(t *testing.T) {
	tests := []struct {
		name   string
		panel  entities.NormalizedPanel
		hyper  bool
		severe bool
		mixed  bool
	}{
		{"normal", entities.NormalizedPanel{LDL: ptr(3.0), Triglycerides: ptr(1.5), HDL: ptr(0.9)}, false, false, false},
		{"exactly 2.0 is not high", entities.NormalizedPanel{LDL: ptr(3.0), Triglycerides: ptr(2.0), HDL: ptr(0.9)}, false, false, false},
		{"mixed", entities.NormalizedPanel{LDL: ptr(3.0), Triglycerides: ptr(3.0), HDL: ptr(0.9)}, true, false, true},
		{"high TG normal HDL", entities.NormalizedPanel{LDL: ptr(3.0), Triglycerides: ptr(3.0), HDL: ptr(1.2)}, true, false, false},
		{"high TG at LDL target", entities.NormalizedPanel{LDL: ptr(1.5), Triglycerides: ptr(3.0), HDL: ptr(0.9)}, true, false, false},
		{"severe", entities.NormalizedPanel{LDL: ptr(3.0), Triglycerides: ptr(6.0), HDL: ptr(0.8)}, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Assess(tt.panel, target(2.0))
			if g.Hypertriglyceridemia != tt.hyper || g.SevereTriglycerides != tt.severe || g.MixedDyslipidemia != tt.mixed {
				t.Errorf("flags hyper=%v severe=%v mixed=%v, want %v %v %v",
					g.Hypertriglyceridemia, g.SevereTriglycerides, g.MixedDyslipidemia, tt.hyper, tt.severe, tt.mixed)
			}
		})
	}
}
