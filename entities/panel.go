package entities

import "slices"

// NormalizedPanel holds the patient's measurements in canonical units:
// lipids in mmol/L, apoB in g/L, Lp(a) in mg/dL, height in cm, weight in kg.
// LpaNmol reports the verified Lp(a) value back in nmol/L.
type NormalizedPanel struct {
	TotalCholesterol *float64 `json:"totalCholesterol,omitempty"`
	LDL              *float64 `json:"ldl,omitempty"`
	HDL              *float64 `json:"hdl,omitempty"`
	NonHDL           *float64 `json:"nonHdl,omitempty"`
	Triglycerides    *float64 `json:"triglycerides,omitempty"`
	ApoB             *float64 `json:"apoB,omitempty"`
	Lpa              *float64 `json:"lpa,omitempty"`
	LpaNmol          *float64 `json:"lpaNmol,omitempty"`
	Height           *float64 `json:"height,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	BMI              *float64 `json:"bmi,omitempty"`
	SystolicBP       *float64 `json:"systolicBp,omitempty"`
	DiastolicBP      *float64 `json:"diastolicBp,omitempty"`
	Age              *float64 `json:"age,omitempty"`

	Risk     RiskContext  `json:"risk"`
	Therapy  TherapyState `json:"therapy"`
	FHStatus FHStatus     `json:"fhStatus"`

	// NonHDLDerived is set when non-HDL was computed as TC - HDL.
	NonHDLDerived bool `json:"nonHdlDerived"`

	// Unverified lists fields whose declared unit was not recognised. Their
	// value is carried through unconverted.
	Unverified []Field  `json:"unverified,omitempty"`
	Notes      []string `json:"notes,omitempty"`
}

// Value returns the canonical value of a field, or nil when absent.
func (p NormalizedPanel) Value(f Field) *float64 {
	switch f {
	case FieldTotalCholesterol:
		return p.TotalCholesterol
	case FieldLDL:
		return p.LDL
	case FieldHDL:
		return p.HDL
	case FieldNonHDL:
		return p.NonHDL
	case FieldTriglycerides:
		return p.Triglycerides
	case FieldApoB:
		return p.ApoB
	case FieldLpa:
		return p.Lpa
	case FieldHeight:
		return p.Height
	case FieldWeight:
		return p.Weight
	case FieldBMI:
		return p.BMI
	case FieldSystolicBP:
		return p.SystolicBP
	case FieldDiastolicBP:
		return p.DiastolicBP
	case FieldAge:
		return p.Age
	case FieldRiskScore:
		return p.Risk.RiskScore
	case FieldStatinDose:
		if !p.Therapy.OnStatin() {
			return nil
		}
		dose := p.Therapy.DoseMg
		return &dose
	}
	return nil
}

// IsUnverified reports whether the field's unit was not recognised.
func (p NormalizedPanel) IsUnverified(f Field) bool {
	return slices.Contains(p.Unverified, f)
}

// Without returns a copy of the panel with the given fields removed. Derived
// values (non-HDL from TC - HDL, BMI) are removed with their sources.
func (p NormalizedPanel) Without(fields ...Field) NormalizedPanel {
	out := p
	out.Unverified = slices.Clone(p.Unverified)
	out.Notes = slices.Clone(p.Notes)

	for _, f := range fields {
		switch f {
		case FieldTotalCholesterol:
			out.TotalCholesterol = nil
		case FieldLDL:
			out.LDL = nil
		case FieldHDL:
			out.HDL = nil
		case FieldNonHDL:
			out.NonHDL = nil
		case FieldTriglycerides:
			out.Triglycerides = nil
		case FieldApoB:
			out.ApoB = nil
		case FieldLpa:
			out.Lpa = nil
			out.LpaNmol = nil
		case FieldHeight:
			out.Height = nil
		case FieldWeight:
			out.Weight = nil
		case FieldBMI:
			out.BMI = nil
		case FieldSystolicBP:
			out.SystolicBP = nil
		case FieldDiastolicBP:
			out.DiastolicBP = nil
		case FieldAge:
			out.Age = nil
		case FieldRiskScore:
			out.Risk.RiskScore = nil
		case FieldStatinDose:
			// The regimen stays; only the dose becomes unknown.
			out.Therapy.DoseMg = 0
		}
	}

	if out.NonHDLDerived && (out.TotalCholesterol == nil || out.HDL == nil) {
		out.NonHDL = nil
	}
	if out.Height == nil || out.Weight == nil {
		out.BMI = nil
	}

	return out
}
