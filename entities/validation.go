package entities

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Severity of a validation issue. Only errors block downstream rules.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

var severityNames = []string{"warning", "error"}

func (s Severity) String() string { return enumString(severityNames, s) }

func (s Severity) MarshalText() ([]byte, error) {
	return marshalEnum("severity", severityNames, s)
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := parseEnum[Severity]("severity", severityNames, text)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IssueCode classifies a validation issue.
type IssueCode int

const (
	CodePhysiologicalRangeError IssueCode = iota
	CodePhysiologicalRangeWarning
	CodeImplausibleCombination
	CodeUnverifiedUnit
)

var issueCodeNames = []string{
	"PhysiologicalRangeError", "PhysiologicalRangeWarning",
	"ImplausibleCombination", "UnverifiedUnit",
}

func (c IssueCode) String() string { return enumString(issueCodeNames, c) }

func (c IssueCode) MarshalText() ([]byte, error) {
	return marshalEnum("issue code", issueCodeNames, c)
}

func (c *IssueCode) UnmarshalText(text []byte) error {
	v, err := parseEnum[IssueCode]("issue code", issueCodeNames, text)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Issue is a single finding of the plausibility validator. Combination
// issues name every participating field.
type Issue struct {
	Fields       []Field   `json:"fields"`
	Code         IssueCode `json:"code"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	ClinicalNote string    `json:"clinicalNote,omitempty"`
}

// Error implements error so that blocking issues can be joined.
func (i Issue) Error() string {
	names := make([]string, len(i.Fields))
	for n, f := range i.Fields {
		names[n] = string(f)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Code, strings.Join(names, ","), i.Message)
}

// ValidationResult is the ordered list of issues found on a panel.
type ValidationResult struct {
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any blocking issue was found.
func (v ValidationResult) HasErrors() bool {
	for _, issue := range v.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the blocking issues.
func (v ValidationResult) Errors() []Issue {
	var out []Issue
	for _, issue := range v.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings returns only the non-blocking issues.
func (v ValidationResult) Warnings() []Issue {
	var out []Issue
	for _, issue := range v.Issues {
		if issue.Severity == SeverityWarning {
			out = append(out, issue)
		}
	}
	return out
}

// Blocked reports whether the field is named by a blocking issue.
func (v ValidationResult) Blocked(f Field) bool {
	for _, issue := range v.Issues {
		if issue.Severity == SeverityError && slices.Contains(issue.Fields, f) {
			return true
		}
	}
	return false
}

// BlockedFields returns the distinct fields named by blocking issues, in
// first-seen order.
func (v ValidationResult) BlockedFields() []Field {
	var out []Field
	for _, issue := range v.Issues {
		if issue.Severity != SeverityError {
			continue
		}
		for _, f := range issue.Fields {
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

// Err joins the blocking issues into a single error, or returns nil.
func (v ValidationResult) Err() error {
	var errs []error
	for _, issue := range v.Errors() {
		errs = append(errs, issue)
	}
	return errors.Join(errs...)
}
