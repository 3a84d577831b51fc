package entities

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FoldLabel canonicalises a free-form label (unit or enum value) so that
// compatibility characters, case and surrounding space do not matter.
func FoldLabel(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	return cases.Fold().String(s)
}

func enumKey(s string) string {
	s = FoldLabel(s)
	s = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
	return s
}

func enumString[T ~int](names []string, v T) string {
	if int(v) < 0 || int(v) >= len(names) {
		return fmt.Sprintf("unknown(%d)", int(v))
	}
	return names[v]
}

func parseEnum[T ~int](kind string, names []string, text []byte) (T, error) {
	key := enumKey(string(text))
	for i, name := range names {
		if enumKey(name) == key {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q, expected one of %v", kind, string(text), names)
}

func marshalEnum[T ~int](kind string, names []string, v T) ([]byte, error) {
	if int(v) < 0 || int(v) >= len(names) {
		return nil, fmt.Errorf("invalid %s value %d", kind, int(v))
	}
	return []byte(names[v]), nil
}

// Prevention is the prevention context of the patient.
type Prevention int

const (
	PreventionPrimary Prevention = iota
	PreventionSecondary
)

var preventionNames = []string{"primary", "secondary"}

func (p Prevention) String() string { return enumString(preventionNames, p) }

func (p Prevention) MarshalText() ([]byte, error) {
	return marshalEnum("prevention", preventionNames, p)
}

func (p *Prevention) UnmarshalText(text []byte) error {
	v, err := parseEnum[Prevention]("prevention", preventionNames, text)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// SecondaryEvent details the qualifying event for secondary prevention.
type SecondaryEvent int

const (
	EventNone SecondaryEvent = iota
	EventMI
	EventMultiVessel
)

var eventNames = []string{"none", "mi", "multi_vessel"}

func (e SecondaryEvent) String() string { return enumString(eventNames, e) }

func (e SecondaryEvent) MarshalText() ([]byte, error) {
	return marshalEnum("event", eventNames, e)
}

func (e *SecondaryEvent) UnmarshalText(text []byte) error {
	v, err := parseEnum[SecondaryEvent]("event", eventNames, text)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// RiskCategory is totally ordered by severity: Low < Intermediate < High <
// VeryHigh < Extreme. Comparison operators on the underlying int are valid.
type RiskCategory int

const (
	RiskLow RiskCategory = iota
	RiskIntermediate
	RiskHigh
	RiskVeryHigh
	RiskExtreme
)

var riskCategoryNames = []string{"low", "intermediate", "high", "very_high", "extreme"}

func (c RiskCategory) String() string { return enumString(riskCategoryNames, c) }

func (c RiskCategory) MarshalText() ([]byte, error) {
	return marshalEnum("risk category", riskCategoryNames, c)
}

func (c *RiskCategory) UnmarshalText(text []byte) error {
	v, err := parseEnum[RiskCategory]("risk category", riskCategoryNames, text)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// AtLeast reports whether c is as severe as other or more.
func (c RiskCategory) AtLeast(other RiskCategory) bool { return c >= other }

// Statin identifies the statin molecule. StatinNone means no statin.
type Statin int

const (
	StatinNone Statin = iota
	StatinAtorvastatin
	StatinRosuvastatin
	StatinSimvastatin
	StatinPravastatin
	StatinLovastatin
	StatinFluvastatin
	StatinPitavastatin
)

var statinNames = []string{
	"none", "atorvastatin", "rosuvastatin", "simvastatin",
	"pravastatin", "lovastatin", "fluvastatin", "pitavastatin",
}

// Statins lists every statin molecule, excluding StatinNone.
func Statins() []Statin {
	return []Statin{
		StatinAtorvastatin, StatinRosuvastatin, StatinSimvastatin, StatinPravastatin,
		StatinLovastatin, StatinFluvastatin, StatinPitavastatin,
	}
}

func (s Statin) String() string { return enumString(statinNames, s) }

func (s Statin) MarshalText() ([]byte, error) {
	return marshalEnum("statin", statinNames, s)
}

func (s *Statin) UnmarshalText(text []byte) error {
	v, err := parseEnum[Statin]("statin", statinNames, text)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// StatinIntensity follows the usual low/moderate/high LDL-lowering bands.
type StatinIntensity int

const (
	IntensityNone StatinIntensity = iota
	IntensityLow
	IntensityModerate
	IntensityHigh
)

var intensityNames = []string{"none", "low", "moderate", "high"}

func (i StatinIntensity) String() string { return enumString(intensityNames, i) }

func (i StatinIntensity) MarshalText() ([]byte, error) {
	return marshalEnum("statin intensity", intensityNames, i)
}

func (i *StatinIntensity) UnmarshalText(text []byte) error {
	v, err := parseEnum[StatinIntensity]("statin intensity", intensityNames, text)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// Intolerance is the documented degree of statin intolerance.
type Intolerance int

const (
	IntoleranceNone Intolerance = iota
	IntolerancePartial
	IntoleranceComplete
)

var intoleranceNames = []string{"none", "partial", "complete"}

func (i Intolerance) String() string { return enumString(intoleranceNames, i) }

func (i Intolerance) MarshalText() ([]byte, error) {
	return marshalEnum("intolerance", intoleranceNames, i)
}

func (i *Intolerance) UnmarshalText(text []byte) error {
	v, err := parseEnum[Intolerance]("intolerance", intoleranceNames, text)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// IntoleranceType is the clinical manifestation recorded for an intolerance.
type IntoleranceType int

const (
	IntoleranceTypeUnspecified IntoleranceType = iota
	IntoleranceTypeMuscle
	IntoleranceTypeHepatic
	IntoleranceTypeRhabdomyolysis
	IntoleranceTypeOther
)

var intoleranceTypeNames = []string{"unspecified", "muscle", "hepatic", "rhabdomyolysis", "other"}

func (i IntoleranceType) String() string { return enumString(intoleranceTypeNames, i) }

// Documented reports whether a concrete intolerance type was recorded.
func (i IntoleranceType) Documented() bool { return i != IntoleranceTypeUnspecified }

func (i IntoleranceType) MarshalText() ([]byte, error) {
	return marshalEnum("intolerance type", intoleranceTypeNames, i)
}

func (i *IntoleranceType) UnmarshalText(text []byte) error {
	v, err := parseEnum[IntoleranceType]("intolerance type", intoleranceTypeNames, text)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// DurationBand is how long the patient has been on maximum therapy.
type DurationBand int

const (
	DurationNone DurationBand = iota
	DurationUnder3Months
	Duration3To6Months
	DurationOver6Months
)

var durationNames = []string{"none", "under_3_months", "3_to_6_months", "over_6_months"}

func (d DurationBand) String() string { return enumString(durationNames, d) }

// AtLeastThreeMonths reports whether the band covers three months or more.
func (d DurationBand) AtLeastThreeMonths() bool {
	switch d {
	case Duration3To6Months, DurationOver6Months:
		return true
	case DurationNone, DurationUnder3Months:
		return false
	}
	return false
}

func (d DurationBand) MarshalText() ([]byte, error) {
	return marshalEnum("duration band", durationNames, d)
}

func (d *DurationBand) UnmarshalText(text []byte) error {
	v, err := parseEnum[DurationBand]("duration band", durationNames, text)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// FHStatus records whether familial hypercholesterolemia has been confirmed.
type FHStatus int

const (
	FHUnknown FHStatus = iota
	FHConfirmed
	FHExcluded
)

var fhNames = []string{"unknown", "confirmed", "excluded"}

func (f FHStatus) String() string { return enumString(fhNames, f) }

func (f FHStatus) MarshalText() ([]byte, error) {
	return marshalEnum("FH status", fhNames, f)
}

func (f *FHStatus) UnmarshalText(text []byte) error {
	v, err := parseEnum[FHStatus]("FH status", fhNames, text)
	if err != nil {
		return err
	}
	*f = v
	return nil
}
