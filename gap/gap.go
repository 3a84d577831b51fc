// Package gap compares the current lipid-lowering regimen and lab values
// against the risk-tiered targets. Assess is total: missing measurements
// leave the matching gap fields nil instead of failing.
package gap

import (
	"slices"

	"github.com/giygas/lipidcare-api/entities"
	"github.com/giygas/lipidcare-api/units"
)

// Triglyceride and HDL thresholds in mmol/L.
const (
	HypertriglyceridemiaThreshold = 2.0
	SevereTriglyceridesThreshold  = 5.0
	LowHDLThreshold               = 1.0
)

// DoseLimit is the maximum licensed daily dose of a statin molecule.
type DoseLimit struct {
	Statin     entities.Statin `json:"statin"`
	MaxDailyMg float64         `json:"maxDailyMg"`
}

var maxDoses = [...]DoseLimit{
	{entities.StatinAtorvastatin, 80},
	{entities.StatinRosuvastatin, 40},
	{entities.StatinSimvastatin, 80},
	{entities.StatinPravastatin, 80},
	{entities.StatinLovastatin, 80},
	{entities.StatinFluvastatin, 80},
	{entities.StatinPitavastatin, 4},
}

// MaxDoseTable returns a copy of the per-molecule maximum dose table.
func MaxDoseTable() []DoseLimit {
	return slices.Clone(maxDoses[:])
}

// MaxDailyDose returns the maximum daily dose for a statin. ok is false for
// StatinNone.
func MaxDailyDose(s entities.Statin) (mg float64, ok bool) {
	for _, d := range maxDoses {
		if d.Statin == s {
			return d.MaxDailyMg, true
		}
	}
	return 0, false
}

// MaxStatinReached reports whether the statin is at its maximum dose.
func MaxStatinReached(t entities.TherapyState) bool {
	maxDose, ok := MaxDailyDose(t.Statin)
	return ok && t.DoseMg >= maxDose
}

// CanIntensifyStatin reports whether a low or moderate intensity statin is
// below its maximum dose. An unknown dose cannot be intensified.
func CanIntensifyStatin(t entities.TherapyState) bool {
	maxDose, ok := MaxDailyDose(t.Statin)
	if !ok || t.DoseMg <= 0 {
		return false
	}
	switch t.Intensity {
	case entities.IntensityLow, entities.IntensityModerate:
		return t.DoseMg < maxDose
	case entities.IntensityNone, entities.IntensityHigh:
		return false
	}
	return false
}

// OnMaximumTherapy is (maximal statin or complete intolerance) and
// ezetimibe. Ezetimibe is required regardless of statin intolerance.
func OnMaximumTherapy(t entities.TherapyState) bool {
	return (MaxStatinReached(t) || t.Intolerance == entities.IntoleranceComplete) && t.Ezetimibe
}

// Assess derives the therapy flags and signed gaps for a panel.
func Assess(p entities.NormalizedPanel, targets entities.TargetLevels) entities.GapAssessment {
	ldlTarget := targets.EffectiveLDL()

	g := entities.GapAssessment{
		LDLTarget:          ldlTarget,
		CanIntensifyStatin: CanIntensifyStatin(p.Therapy),
		MaxStatinReached:   MaxStatinReached(p.Therapy),
		StatinIntolerance:  p.Therapy.Intolerance != entities.IntoleranceNone,
		OnMaximumTherapy:   OnMaximumTherapy(p.Therapy),
	}

	g.AtLDLTarget, g.LDLGap = compare(p.LDL, ldlTarget)
	g.AtNonHDLTarget, g.NonHDLGap = compare(p.NonHDL, targets.NonHDL)
	g.AtApoBTarget, g.ApoBGap = compare(p.ApoB, targets.ApoB)

	if p.Triglycerides != nil {
		tg := *p.Triglycerides
		g.Hypertriglyceridemia = tg > HypertriglyceridemiaThreshold
		g.SevereTriglycerides = tg > SevereTriglyceridesThreshold
		g.MixedDyslipidemia = g.AboveLDLTarget() && tg > HypertriglyceridemiaThreshold &&
			p.HDL != nil && *p.HDL < LowHDLThreshold
	}

	if g.LDLGap != nil && *g.LDLGap > 0 && *p.LDL > 0 {
		g.EstimatedAdditionalLDLReductionPercent = units.Round(*g.LDLGap / *p.LDL * 100, 1)
	}

	return g
}

// compare returns (current <= target, current - target), or nils when the
// current value is absent.
func compare(current *float64, target float64) (*bool, *float64) {
	if current == nil {
		return nil, nil
	}
	at := *current <= target
	diff := units.Round(*current-target, 2)
	return &at, &diff
}
