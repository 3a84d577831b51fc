// Package entities holds the data model shared by every stage of the lipid
// decision pipeline. Values are created per evaluation and carry no identity.
package entities

// Field names a physiological quantity. The same names are used in
// validation issues and in JSON.
type Field string

const (
	FieldTotalCholesterol Field = "totalCholesterol"
	FieldLDL              Field = "ldl"
	FieldHDL              Field = "hdl"
	FieldNonHDL           Field = "nonHdl"
	FieldTriglycerides    Field = "triglycerides"
	FieldApoB             Field = "apoB"
	FieldLpa              Field = "lpa"
	FieldHeight           Field = "height"
	FieldWeight           Field = "weight"
	FieldBMI              Field = "bmi"
	FieldSystolicBP       Field = "systolicBp"
	FieldDiastolicBP      Field = "diastolicBp"
	FieldAge              Field = "age"
	FieldRiskScore        Field = "riskScore"
	FieldStatinDose       Field = "statinDose"
)

// Measurement is a raw value with the unit it was entered in. Inches is
// only meaningful for a height entered in feet, e.g. 5 ft 10 in.
type Measurement struct {
	Value  float64  `json:"value"`
	Unit   string   `json:"unit"`
	Inches *float64 `json:"inches,omitempty"`
}

// RiskContext carries the prevention category and the externally computed
// risk score (FRS or QRISK3 percentage).
type RiskContext struct {
	Prevention Prevention     `json:"prevention"`
	Event      SecondaryEvent `json:"event"`
	RiskScore  *float64       `json:"riskScore,omitempty"`
	Calculator string         `json:"calculator,omitempty"`
}

// TherapyState describes the current lipid-lowering regimen.
type TherapyState struct {
	Statin             Statin          `json:"statin"`
	Intensity          StatinIntensity `json:"intensity"`
	DoseMg             float64         `json:"doseMg"`
	Ezetimibe          bool            `json:"ezetimibe"`
	PCSK9              bool            `json:"pcsk9"`
	Intolerance        Intolerance     `json:"intolerance"`
	IntoleranceType    IntoleranceType `json:"intoleranceType"`
	MaxTherapyDuration DurationBand    `json:"maxTherapyDuration"`
}

// OnStatin reports whether a statin molecule is currently prescribed.
func (t TherapyState) OnStatin() bool { return t.Statin != StatinNone }

// PatientParameters is the syntactically validated input record supplied by
// the form layer. Every measurement is optional.
type PatientParameters struct {
	TotalCholesterol *Measurement `json:"totalCholesterol,omitempty"`
	LDL              *Measurement `json:"ldl,omitempty"`
	HDL              *Measurement `json:"hdl,omitempty"`
	NonHDL           *Measurement `json:"nonHdl,omitempty"`
	Triglycerides    *Measurement `json:"triglycerides,omitempty"`
	ApoB             *Measurement `json:"apoB,omitempty"`
	Lpa              *Measurement `json:"lpa,omitempty"`
	Height           *Measurement `json:"height,omitempty"`
	Weight           *Measurement `json:"weight,omitempty"`

	SystolicBP  *float64 `json:"systolicBp,omitempty"`
	DiastolicBP *float64 `json:"diastolicBp,omitempty"`
	Age         *float64 `json:"age,omitempty"`

	Risk     RiskContext  `json:"risk"`
	Therapy  TherapyState `json:"therapy"`
	FHStatus FHStatus     `json:"fhStatus"`
}
