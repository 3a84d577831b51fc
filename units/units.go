// Package units converts declared input units into the canonical unit of
// each quantity. Normalization never fails: unrecognised units are carried
// through unconverted and flagged as unverified.
package units

import (
	"fmt"
	"math"

	"github.com/giygas/lipidcare-api/config"
	"github.com/giygas/lipidcare-api/entities"
)

// Conversion factors to canonical units.
const (
	CholesterolMgdlPerMmol  = 38.67
	TriglycerideMgdlPerMmol = 88.5
	ApoBMgdlPerGL           = 100.0
	CmPerInch               = 2.54
	CmPerFoot               = 30.48
	KgPerPound              = 0.45359237
)

// Canonical unit labels.
const (
	MmolPerL = "mmol/L"
	MgPerDL  = "mg/dL"
	GPerL    = "g/L"
	NmolPerL = "nmol/L"
	Cm       = "cm"
	Kg       = "kg"
)

// quantity groups fields that share a conversion.
type quantity int

const (
	quantityCholesterol quantity = iota
	quantityTriglycerides
	quantityApoB
	quantityLpa
	quantityHeight
	quantityWeight
)

// Normalizer converts PatientParameters into a NormalizedPanel. It is safe
// for concurrent use; it holds only the immutable Lp(a) conversion.
type Normalizer struct {
	lpa config.LpaConversion
}

// NewNormalizer creates a normalizer with the given Lp(a) conversion.
func NewNormalizer(lpa config.LpaConversion) *Normalizer {
	return &Normalizer{lpa: lpa}
}

// LpaConversion returns the conversion record in use.
func (n *Normalizer) LpaConversion() config.LpaConversion { return n.lpa }

// Normalize converts every present measurement to its canonical unit and
// derives non-HDL (TC - HDL) and BMI where possible.
func (n *Normalizer) Normalize(p entities.PatientParameters) entities.NormalizedPanel {
	panel := entities.NormalizedPanel{
		SystolicBP:  copyFloat(p.SystolicBP),
		DiastolicBP: copyFloat(p.DiastolicBP),
		Age:         copyFloat(p.Age),
		Risk:        p.Risk,
		Therapy:     p.Therapy,
		FHStatus:    p.FHStatus,
	}
	panel.Risk.RiskScore = copyFloat(p.Risk.RiskScore)

	panel.TotalCholesterol = n.convert(&panel, entities.FieldTotalCholesterol, quantityCholesterol, p.TotalCholesterol)
	panel.LDL = n.convert(&panel, entities.FieldLDL, quantityCholesterol, p.LDL)
	panel.HDL = n.convert(&panel, entities.FieldHDL, quantityCholesterol, p.HDL)
	panel.NonHDL = n.convert(&panel, entities.FieldNonHDL, quantityCholesterol, p.NonHDL)
	panel.Triglycerides = n.convert(&panel, entities.FieldTriglycerides, quantityTriglycerides, p.Triglycerides)
	panel.ApoB = n.convert(&panel, entities.FieldApoB, quantityApoB, p.ApoB)
	panel.Lpa = n.convert(&panel, entities.FieldLpa, quantityLpa, p.Lpa)
	panel.Height = n.convert(&panel, entities.FieldHeight, quantityHeight, p.Height)
	panel.Weight = n.convert(&panel, entities.FieldWeight, quantityWeight, p.Weight)

	if panel.Lpa != nil && !panel.IsUnverified(entities.FieldLpa) {
		nmol := n.MassToMolar(*panel.Lpa)
		panel.LpaNmol = &nmol
	}

	if panel.NonHDL == nil && panel.TotalCholesterol != nil && panel.HDL != nil &&
		!panel.IsUnverified(entities.FieldTotalCholesterol) && !panel.IsUnverified(entities.FieldHDL) {
		v := Round(*panel.TotalCholesterol-*panel.HDL, 2)
		panel.NonHDL = &v
		panel.NonHDLDerived = true
		panel.Notes = append(panel.Notes, "Non-HDL cholesterol derived as total cholesterol minus HDL")
	}

	if panel.Height != nil && panel.Weight != nil && *panel.Height > 0 &&
		!panel.IsUnverified(entities.FieldHeight) && !panel.IsUnverified(entities.FieldWeight) {
		m := *panel.Height / 100
		bmi := Round(*panel.Weight/(m*m), 1)
		panel.BMI = &bmi
	}

	return panel
}

func (n *Normalizer) convert(panel *entities.NormalizedPanel, field entities.Field, q quantity, m *entities.Measurement) *float64 {
	if m == nil {
		return nil
	}

	unit := entities.FoldLabel(m.Unit)
	value, ok := n.toCanonical(q, unit, m.Value)
	if m.Inches != nil {
		value, ok = feetAndInches(q, unit, m.Value, *m.Inches)
	}
	if !ok {
		panel.Unverified = append(panel.Unverified, field)
		panel.Notes = append(panel.Notes, fmt.Sprintf("Unit %q for %s not recognised; value carried through unverified", m.Unit, field))
		v := m.Value
		return &v
	}

	if q == quantityLpa && isMolar(unit) {
		panel.Notes = append(panel.Notes, fmt.Sprintf(
			"Lp(a) converted from nmol/L to mg/dL using factor %g (conversion %s); molar-to-mass conversion is approximate and isoform-dependent",
			n.lpa.MolarToMass, n.lpa.Version))
		if !n.lpa.Consistent() {
			panel.Notes = append(panel.Notes, fmt.Sprintf(
				"Lp(a) conversion %s is not reciprocal: %g x %g = %.3f; thresholds expressed in nmol/L may disagree with mg/dL thresholds",
				n.lpa.Version, n.lpa.MolarToMass, n.lpa.MassToMolar, n.lpa.MolarToMass*n.lpa.MassToMolar))
		}
	}

	return &value
}

// toCanonical converts a value in the folded unit label to the canonical
// unit of the quantity. ok is false for unrecognised units.
func (n *Normalizer) toCanonical(q quantity, unit string, v float64) (float64, bool) {
	switch q {
	case quantityCholesterol:
		switch {
		case isMmol(unit):
			return Round(v, 2), true
		case isMgdl(unit):
			return Round(v/CholesterolMgdlPerMmol, 2), true
		}
	case quantityTriglycerides:
		switch {
		case isMmol(unit):
			return Round(v, 2), true
		case isMgdl(unit):
			return Round(v/TriglycerideMgdlPerMmol, 2), true
		}
	case quantityApoB:
		switch {
		case isGL(unit):
			return Round(v, 2), true
		case isMgdl(unit):
			return Round(v/ApoBMgdlPerGL, 2), true
		}
	case quantityLpa:
		switch {
		case isMgdl(unit):
			return Round(v, 1), true
		case isMolar(unit):
			return Round(v*n.lpa.MolarToMass, 1), true
		}
	case quantityHeight:
		switch unit {
		case "cm":
			return Round(v, 1), true
		case "m":
			return Round(v*100, 1), true
		case "in", "inch", "inches", `"`:
			return Round(v*CmPerInch, 1), true
		case "ft", "feet", "foot", "'":
			return Round(v*CmPerFoot, 1), true
		}
	case quantityWeight:
		switch unit {
		case "kg":
			return Round(v, 1), true
		case "lb", "lbs", "pound", "pounds":
			return Round(v*KgPerPound, 1), true
		}
	}
	return 0, false
}

// feetAndInches converts a composite height. Inches on any other quantity
// or unit is not recognised.
func feetAndInches(q quantity, unit string, feet, inches float64) (float64, bool) {
	if q != quantityHeight || !isFeet(unit) {
		return 0, false
	}
	return FeetInchesToCm(feet, inches), true
}

// MassToMolar converts an Lp(a) value in mg/dL to nmol/L for reporting.
func (n *Normalizer) MassToMolar(mgdl float64) float64 {
	return Round(mgdl*n.lpa.MassToMolar, 1)
}

// FeetInchesToCm converts a height given as feet and inches.
func FeetInchesToCm(feet, inches float64) float64 {
	return Round(feet*CmPerFoot+inches*CmPerInch, 1)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func isMmol(unit string) bool {
	return unit == "mmol/l" || unit == "mmol"
}

func isMgdl(unit string) bool {
	return unit == "mg/dl" || unit == "mg%"
}

func isGL(unit string) bool {
	return unit == "g/l"
}

func isFeet(unit string) bool {
	return unit == "ft" || unit == "feet" || unit == "foot" || unit == "'"
}

func isMolar(unit string) bool {
	return unit == "nmol/l" || unit == "nmol"
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
