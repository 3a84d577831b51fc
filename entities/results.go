package entities

// TargetLevels are the lipid goals for a risk category. LDL <= NonHDL holds
// for every row of the target table.
type TargetLevels struct {
	RiskCategory     RiskCategory `json:"riskCategory"`
	LDL              float64      `json:"ldl"`
	NonHDL           float64      `json:"nonHdl"`
	ApoB             float64      `json:"apoB"`
	PercentReduction float64      `json:"percentReductionTarget"`
	LpaAdjustedLDL   *float64     `json:"lpaAdjustedLdl,omitempty"`
	HasElevatedLpa   bool         `json:"hasElevatedLpa"`
	Rule             string       `json:"rule"`
}

// EffectiveLDL is the LDL goal after any Lp(a) adjustment.
func (t TargetLevels) EffectiveLDL() float64 {
	if t.LpaAdjustedLDL != nil {
		return *t.LpaAdjustedLDL
	}
	return t.LDL
}

// GapAssessment compares the current regimen and labs against the targets.
// Gaps are signed (current - target, mmol/L or g/L for apoB); the at-target
// flags and gaps are nil when the measurement is unavailable.
type GapAssessment struct {
	LDLTarget      float64  `json:"ldlTarget"`
	AtLDLTarget    *bool    `json:"atLdlTarget,omitempty"`
	AtNonHDLTarget *bool    `json:"atNonHdlTarget,omitempty"`
	AtApoBTarget   *bool    `json:"atApoBTarget,omitempty"`
	LDLGap         *float64 `json:"ldlGap,omitempty"`
	NonHDLGap      *float64 `json:"nonHdlGap,omitempty"`
	ApoBGap        *float64 `json:"apoBGap,omitempty"`

	CanIntensifyStatin bool `json:"canIntensifyStatin"`
	MaxStatinReached   bool `json:"maxStatinReached"`
	StatinIntolerance  bool `json:"statinIntolerance"`
	OnMaximumTherapy   bool `json:"onMaximumTherapy"`

	Hypertriglyceridemia bool `json:"hypertriglyceridemia"`
	SevereTriglycerides  bool `json:"severeTriglycerides"`
	MixedDyslipidemia    bool `json:"mixedDyslipidemia"`

	EstimatedAdditionalLDLReductionPercent float64 `json:"estimatedAdditionalLdlReductionPercent"`
}

// LDLKnown reports whether an LDL value was available for the assessment.
func (g GapAssessment) LDLKnown() bool { return g.AtLDLTarget != nil }

// AboveLDLTarget is true only when LDL is known and above the goal.
func (g GapAssessment) AboveLDLTarget() bool {
	return g.AtLDLTarget != nil && !*g.AtLDLTarget
}

// Action is the kind of change proposed for a drug class.
type Action int

const (
	ActionNone Action = iota
	ActionInitiate
	ActionConsider
	ActionIntensify
	ActionContinue
	ActionAdd
	ActionAvoid
	ActionDefer
	ActionAssess
	ActionNotIndicated
)

var actionNames = []string{
	"none", "initiate", "consider", "intensify", "continue",
	"add", "avoid", "defer", "assess", "not_indicated",
}

func (a Action) String() string { return enumString(actionNames, a) }

func (a Action) MarshalText() ([]byte, error) {
	return marshalEnum("action", actionNames, a)
}

func (a *Action) UnmarshalText(text []byte) error {
	v, err := parseEnum[Action]("action", actionNames, text)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// AdviceSeverity tags other-therapy suggestions for display priority.
type AdviceSeverity int

const (
	AdviceInfo AdviceSeverity = iota
	AdviceModerate
	AdviceHigh
)

var adviceSeverityNames = []string{"info", "moderate", "high"}

func (s AdviceSeverity) String() string { return enumString(adviceSeverityNames, s) }

func (s AdviceSeverity) MarshalText() ([]byte, error) {
	return marshalEnum("advice severity", adviceSeverityNames, s)
}

func (s *AdviceSeverity) UnmarshalText(text []byte) error {
	v, err := parseEnum[AdviceSeverity]("advice severity", adviceSeverityNames, text)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TherapyAdvice is the single outcome selected for one drug class.
type TherapyAdvice struct {
	Action    Action `json:"action"`
	Text      string `json:"text"`
	Rationale string `json:"rationale"`
}

// OtherTherapy is a non-statin/ezetimibe/PCSK9 suggestion.
type OtherTherapy struct {
	Therapy   string         `json:"therapy"`
	Text      string         `json:"text"`
	Rationale string         `json:"rationale"`
	Severity  AdviceSeverity `json:"severity"`
}

// Recommendation is the ordered escalation plan. Summary order is fixed:
// statin, ezetimibe, PCSK9, other therapies, lifestyle.
type Recommendation struct {
	Summary        []string       `json:"summary"`
	Statin         TherapyAdvice  `json:"statin"`
	Ezetimibe      TherapyAdvice  `json:"ezetimibe"`
	PCSK9          TherapyAdvice  `json:"pcsk9"`
	OtherTherapies []OtherTherapy `json:"otherTherapies"`
	Lifestyle      []string       `json:"lifestyle"`
}

// CoveragePathway is the qualifying category/LDL combination, if any.
type CoveragePathway int

const (
	PathwayNone CoveragePathway = iota
	PathwaySecondary
	PathwayPrimaryFH
)

var pathwayNames = []string{"none", "secondary", "primary_fh"}

func (p CoveragePathway) String() string { return enumString(pathwayNames, p) }

func (p CoveragePathway) MarshalText() ([]byte, error) {
	return marshalEnum("coverage pathway", pathwayNames, p)
}

func (p *CoveragePathway) UnmarshalText(text []byte) error {
	v, err := parseEnum[CoveragePathway]("coverage pathway", pathwayNames, text)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// CoverageAssessment is the PCSK9 coverage checklist outcome. Both criteria
// lists are always present.
type CoverageAssessment struct {
	Eligible       bool            `json:"eligible"`
	Pathway        CoveragePathway `json:"pathway"`
	CriteriaMet    []string        `json:"criteriaMet"`
	CriteriaNotMet []string        `json:"criteriaNotMet"`
	Notes          []string        `json:"notes"`
}

// Evaluation is the full output of one pipeline run. Excluded lists the
// fields withheld from targets, gap, recommendation and coverage because
// validation blocked them or their unit was not recognised.
type Evaluation struct {
	EngineVersion        string             `json:"engineVersion"`
	LpaConversionVersion string             `json:"lpaConversionVersion"`
	Panel                NormalizedPanel    `json:"panel"`
	Validation           ValidationResult   `json:"validation"`
	Excluded             []Field            `json:"excluded"`
	Targets              TargetLevels       `json:"targets"`
	Gap                  GapAssessment      `json:"gap"`
	Recommendation       Recommendation     `json:"recommendation"`
	Coverage             CoverageAssessment `json:"coverage"`
}
