// Package engine wires the decision stages into a single pipeline:
// normalize, validate, mask blocked fields, then targets, gap,
// recommendation and coverage.
package engine

import (
	"fmt"
	"slices"

	"github.com/giygas/lipidcare-api/config"
	"github.com/giygas/lipidcare-api/coverage"
	"github.com/giygas/lipidcare-api/entities"
	"github.com/giygas/lipidcare-api/gap"
	"github.com/giygas/lipidcare-api/interfaces"
	"github.com/giygas/lipidcare-api/recommend"
	"github.com/giygas/lipidcare-api/targets"
	"github.com/giygas/lipidcare-api/units"
	"github.com/giygas/lipidcare-api/validation"
)

// Version is reported with every evaluation.
const Version = "1.0.0"

// Compile-time check to ensure Engine implements Evaluator
var _ interfaces.Evaluator = (*Engine)(nil)

// Engine holds only immutable configuration and is safe for concurrent use.
type Engine struct {
	cfg        config.EngineConfig
	normalizer *units.Normalizer
	validator  interfaces.PanelValidator
}

// New creates an engine with the given configuration.
func New(cfg config.EngineConfig) (*Engine, error) {
	if err := config.ValidateLpaConversion(cfg.LpaConversion); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	return &Engine{
		cfg:        cfg,
		normalizer: units.NewNormalizer(cfg.LpaConversion),
		validator:  validation.NewPlausibilityValidator(),
	}, nil
}

// Version returns the engine version.
func (e *Engine) Version() string { return Version }

// LpaConversion returns the Lp(a) conversion in use.
func (e *Engine) LpaConversion() config.LpaConversion { return e.cfg.LpaConversion }

// Normalize converts the parameters to canonical units.
func (e *Engine) Normalize(params entities.PatientParameters) entities.NormalizedPanel {
	return e.normalizer.Normalize(params)
}

// Validate normalizes and validates the parameters.
func (e *Engine) Validate(params entities.PatientParameters) (entities.NormalizedPanel, entities.ValidationResult) {
	panel := e.normalizer.Normalize(params)
	return panel, e.validator.Validate(panel)
}

// Targets computes the target levels for a risk context and Lp(a) in mg/dL.
func (e *Engine) Targets(risk entities.RiskContext, lpa *float64) entities.TargetLevels {
	return targets.Calculate(risk, lpa)
}

// Evaluate runs the full pipeline. Blocked and unverified fields are
// withheld from every stage after validation; the returned panel is the
// unmasked one so callers can show what was entered.
func (e *Engine) Evaluate(params entities.PatientParameters) entities.Evaluation {
	panel, result := e.Validate(params)

	excluded := result.BlockedFields()
	for _, f := range panel.Unverified {
		if !slices.Contains(excluded, f) {
			excluded = append(excluded, f)
		}
	}
	if excluded == nil {
		excluded = []entities.Field{}
	}

	usable := panel.Without(excluded...)

	t := targets.Calculate(usable.Risk, usable.Lpa)
	g := gap.Assess(usable, t)

	return entities.Evaluation{
		EngineVersion:        Version,
		LpaConversionVersion: e.cfg.LpaConversion.Version,
		Panel:                panel,
		Validation:           result,
		Excluded:             excluded,
		Targets:              t,
		Gap:                  g,
		Recommendation:       recommend.Generate(usable, t, g),
		Coverage:             coverage.Evaluate(usable, g, excluded),
	}
}
