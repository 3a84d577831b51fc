// Package recommend turns a gap assessment into an ordered escalation plan.
// Each drug class selects exactly one outcome and every emitted item
// carries the condition that triggered it.
package recommend

import (
	"fmt"

	"github.com/giygas/lipidcare-api/entities"
)

// PCSK9 LDL thresholds in mmol/L.
const (
	PCSK9SecondaryLDL        = 2.5
	PCSK9SecondaryExtremeLDL = 2.0
	PCSK9PrimaryFHLDL        = 3.5
)

var lifestyle = [...]string{
	"Adopt a Mediterranean-style diet low in saturated fat",
	"Engage in at least 150 minutes of moderate aerobic activity per week",
	"Stop smoking and avoid second-hand smoke",
	"Maintain a healthy body weight and limit alcohol intake",
}

// Lifestyle returns the fixed lifestyle list.
func Lifestyle() []string {
	out := make([]string, len(lifestyle))
	copy(out, lifestyle[:])
	return out
}

// Generate builds the recommendation for a panel. The summary is ordered
// statin, ezetimibe, PCSK9, other therapies, lifestyle.
func Generate(p entities.NormalizedPanel, t entities.TargetLevels, g entities.GapAssessment) entities.Recommendation {
	rec := entities.Recommendation{
		Statin:         Statin(p, t, g),
		Ezetimibe:      Ezetimibe(p, g),
		PCSK9:          PCSK9(p, t, g),
		OtherTherapies: OtherTherapies(p, t, g),
		Lifestyle:      Lifestyle(),
	}

	rec.Summary = make([]string, 0, 3+len(rec.OtherTherapies)+len(rec.Lifestyle))
	rec.Summary = append(rec.Summary, rec.Statin.Text, rec.Ezetimibe.Text, rec.PCSK9.Text)
	for _, o := range rec.OtherTherapies {
		rec.Summary = append(rec.Summary, o.Text)
	}
	rec.Summary = append(rec.Summary, rec.Lifestyle...)

	return rec
}

func ldlText(p entities.NormalizedPanel, g entities.GapAssessment) string {
	if p.LDL == nil {
		return "LDL unavailable"
	}
	return fmt.Sprintf("LDL %.2f mmol/L vs target %.2f mmol/L", *p.LDL, g.LDLTarget)
}

// Statin selects the statin outcome.
func Statin(p entities.NormalizedPanel, t entities.TargetLevels, g entities.GapAssessment) entities.TherapyAdvice {
	therapy := p.Therapy

	switch {
	case !therapy.OnStatin() && therapy.Intolerance == entities.IntoleranceNone:
		return initiateStatin(t.RiskCategory)
	case therapy.Intolerance == entities.IntoleranceComplete:
		return entities.TherapyAdvice{
			Action:    entities.ActionAvoid,
			Text:      "Statin therapy is not feasible due to complete intolerance",
			Rationale: "Complete statin intolerance documented; use non-statin therapies",
		}
	case therapy.Intolerance == entities.IntolerancePartial && !therapy.OnStatin():
		return entities.TherapyAdvice{
			Action:    entities.ActionConsider,
			Text:      "Trial a low-dose or alternate-day statin as tolerated",
			Rationale: "Partial statin intolerance documented; not currently on a statin",
		}
	case therapy.Intolerance == entities.IntolerancePartial:
		return entities.TherapyAdvice{
			Action:    entities.ActionContinue,
			Text:      "Continue the maximally tolerated statin dose",
			Rationale: "Partial statin intolerance limits further intensification",
		}
	case !g.LDLKnown():
		return entities.TherapyAdvice{
			Action:    entities.ActionAssess,
			Text:      "Obtain a lipid panel to assess statin response",
			Rationale: "LDL unavailable; statin response cannot be assessed",
		}
	case !g.AboveLDLTarget():
		return entities.TherapyAdvice{
			Action:    entities.ActionContinue,
			Text:      fmt.Sprintf("Continue current %s therapy", therapy.Statin),
			Rationale: ldlText(p, g) + "; at target",
		}
	case therapy.DoseMg <= 0:
		return entities.TherapyAdvice{
			Action:    entities.ActionAssess,
			Text:      fmt.Sprintf("Confirm the prescribed %s dose", therapy.Statin),
			Rationale: ldlText(p, g) + "; statin dose unknown",
		}
	case !g.MaxStatinReached:
		return entities.TherapyAdvice{
			Action:    entities.ActionIntensify,
			Text:      fmt.Sprintf("Intensify %s toward high-intensity dosing", therapy.Statin),
			Rationale: fmt.Sprintf("%s; current dose %g mg is below the maximum", ldlText(p, g), therapy.DoseMg),
		}
	}

	return entities.TherapyAdvice{
		Action:    entities.ActionContinue,
		Text:      fmt.Sprintf("Continue maximal %s therapy", therapy.Statin),
		Rationale: ldlText(p, g) + "; statin already at maximum dose",
	}
}

func initiateStatin(category entities.RiskCategory) entities.TherapyAdvice {
	rationale := fmt.Sprintf("Not on a statin; %s risk category", category)

	switch category {
	case entities.RiskLow:
		return entities.TherapyAdvice{
			Action:    entities.ActionConsider,
			Text:      "Consider moderate-intensity statin therapy if LDL remains above target after lifestyle modification",
			Rationale: rationale,
		}
	case entities.RiskIntermediate:
		return entities.TherapyAdvice{
			Action:    entities.ActionInitiate,
			Text:      "Initiate moderate-intensity statin therapy",
			Rationale: rationale,
		}
	case entities.RiskHigh, entities.RiskVeryHigh, entities.RiskExtreme:
		return entities.TherapyAdvice{
			Action:    entities.ActionInitiate,
			Text:      "Initiate high-intensity statin therapy",
			Rationale: rationale,
		}
	}

	return entities.TherapyAdvice{
		Action:    entities.ActionInitiate,
		Text:      "Initiate high-intensity statin therapy",
		Rationale: rationale,
	}
}

// Ezetimibe selects the ezetimibe outcome.
func Ezetimibe(p entities.NormalizedPanel, g entities.GapAssessment) entities.TherapyAdvice {
	therapy := p.Therapy
	statinOrIntolerant := therapy.OnStatin() || therapy.Intolerance != entities.IntoleranceNone

	switch {
	case !g.LDLKnown():
		return entities.TherapyAdvice{
			Action:    entities.ActionAssess,
			Text:      "Reassess ezetimibe once an LDL result is available",
			Rationale: "LDL unavailable",
		}
	case therapy.Ezetimibe && !g.AboveLDLTarget():
		return entities.TherapyAdvice{
			Action:    entities.ActionContinue,
			Text:      "Continue ezetimibe",
			Rationale: ldlText(p, g) + "; at target",
		}
	case therapy.Ezetimibe:
		return entities.TherapyAdvice{
			Action:    entities.ActionContinue,
			Text:      "Continue ezetimibe; LDL remains above target",
			Rationale: ldlText(p, g),
		}
	case !g.AboveLDLTarget():
		return entities.TherapyAdvice{
			Action:    entities.ActionNotIndicated,
			Text:      "Ezetimibe not indicated",
			Rationale: ldlText(p, g) + "; at target",
		}
	case statinOrIntolerant:
		return entities.TherapyAdvice{
			Action:    entities.ActionAdd,
			Text:      "Add ezetimibe 10 mg daily",
			Rationale: ldlText(p, g) + "; above target on current regimen",
		}
	}

	return entities.TherapyAdvice{
		Action:    entities.ActionDefer,
		Text:      "Defer ezetimibe until statin therapy is initiated and response assessed",
		Rationale: "Not on a statin and no documented intolerance",
	}
}

// PCSK9 selects the PCSK9 inhibitor outcome.
func PCSK9(p entities.NormalizedPanel, t entities.TargetLevels, g entities.GapAssessment) entities.TherapyAdvice {
	therapy := p.Therapy

	if therapy.PCSK9 {
		return entities.TherapyAdvice{
			Action:    entities.ActionContinue,
			Text:      "Continue PCSK9 inhibitor therapy",
			Rationale: "Already on a PCSK9 inhibitor",
		}
	}

	notIndicated := func(reason string) entities.TherapyAdvice {
		return entities.TherapyAdvice{
			Action:    entities.ActionNotIndicated,
			Text:      "PCSK9 inhibitor not indicated",
			Rationale: reason,
		}
	}

	switch {
	case !g.LDLKnown():
		return notIndicated("LDL unavailable")
	case !g.AboveLDLTarget():
		return notIndicated(ldlText(p, g) + "; at target")
	case !therapy.Ezetimibe:
		return notIndicated("Not yet on ezetimibe")
	case !therapy.OnStatin() && therapy.Intolerance == entities.IntoleranceNone:
		return notIndicated("Not on a statin and no documented intolerance")
	case !t.RiskCategory.AtLeast(entities.RiskHigh):
		return notIndicated(fmt.Sprintf("%s risk category", t.RiskCategory))
	}

	ldl := *p.LDL
	switch p.Risk.Prevention {
	case entities.PreventionSecondary:
		threshold := PCSK9SecondaryLDL
		if t.RiskCategory == entities.RiskExtreme {
			threshold = PCSK9SecondaryExtremeLDL
		}
		if ldl < threshold {
			return notIndicated(fmt.Sprintf("LDL %.2f mmol/L below the %.1f mmol/L secondary prevention threshold", ldl, threshold))
		}
		return entities.TherapyAdvice{
			Action: entities.ActionConsider,
			Text:   "Consider adding a PCSK9 inhibitor",
			Rationale: fmt.Sprintf("Secondary prevention, %s risk; LDL %.2f mmol/L >= %.1f mmol/L despite statin/intolerance and ezetimibe",
				t.RiskCategory, ldl, threshold),
		}
	case entities.PreventionPrimary:
		if ldl < PCSK9PrimaryFHLDL {
			return notIndicated(fmt.Sprintf("LDL %.2f mmol/L below the %.1f mmol/L primary prevention threshold", ldl, PCSK9PrimaryFHLDL))
		}
		switch p.FHStatus {
		case entities.FHConfirmed:
			return entities.TherapyAdvice{
				Action:    entities.ActionConsider,
				Text:      "Consider adding a PCSK9 inhibitor",
				Rationale: fmt.Sprintf("Familial hypercholesterolemia with LDL %.2f mmol/L >= %.1f mmol/L", ldl, PCSK9PrimaryFHLDL),
			}
		case entities.FHUnknown:
			return entities.TherapyAdvice{
				Action:    entities.ActionConsider,
				Text:      "Consider a PCSK9 inhibitor if familial hypercholesterolemia is confirmed",
				Rationale: fmt.Sprintf("LDL %.2f mmol/L >= %.1f mmol/L; FH status not established", ldl, PCSK9PrimaryFHLDL),
			}
		case entities.FHExcluded:
			return notIndicated("Primary prevention without familial hypercholesterolemia")
		}
	}

	return notIndicated("No qualifying prevention pathway")
}

// OtherTherapies lists triglyceride and Lp(a) driven suggestions.
func OtherTherapies(p entities.NormalizedPanel, t entities.TargetLevels, g entities.GapAssessment) []entities.OtherTherapy {
	out := []entities.OtherTherapy{}

	tg := "triglycerides unavailable"
	if p.Triglycerides != nil {
		tg = fmt.Sprintf("triglycerides %.2f mmol/L", *p.Triglycerides)
	}

	if g.SevereTriglycerides {
		out = append(out, entities.OtherTherapy{
			Therapy:   "fibrate",
			Text:      "Start fibrate therapy to reduce pancreatitis risk",
			Rationale: "Severe hypertriglyceridemia: " + tg,
			Severity:  entities.AdviceHigh,
		})
	} else if g.Hypertriglyceridemia && g.MixedDyslipidemia {
		out = append(out, entities.OtherTherapy{
			Therapy:   "fenofibrate",
			Text:      "Consider fenofibrate add-on for mixed dyslipidemia",
			Rationale: "LDL above target with high triglycerides and low HDL: " + tg,
			Severity:  entities.AdviceModerate,
		})
	}

	if p.Risk.Prevention == entities.PreventionSecondary && p.Therapy.OnStatin() &&
		g.Hypertriglyceridemia && !g.SevereTriglycerides {
		out = append(out, entities.OtherTherapy{
			Therapy:   "icosapent ethyl",
			Text:      "Consider icosapent ethyl for residual cardiovascular risk",
			Rationale: "Secondary prevention on a statin with " + tg,
			Severity:  entities.AdviceModerate,
		})
	}

	if t.HasElevatedLpa {
		text := "Elevated Lp(a): apply the stricter LDL target and offer cascade screening of first-degree relatives"
		if t.LpaAdjustedLDL != nil {
			text = fmt.Sprintf("Elevated Lp(a): apply the stricter LDL target of %.1f mmol/L and offer cascade screening of first-degree relatives",
				*t.LpaAdjustedLDL)
		}
		rationale := "Lp(a) >= 50 mg/dL"
		if p.Lpa != nil {
			rationale = fmt.Sprintf("Lp(a) %.1f mg/dL >= 50 mg/dL", *p.Lpa)
		}
		out = append(out, entities.OtherTherapy{
			Therapy:   "lp(a)",
			Text:      text,
			Rationale: rationale,
			Severity:  entities.AdviceInfo,
		})
	}

	return out
}
