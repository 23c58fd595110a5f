package config

import "fmt"

// Validator validates a merged Config comprehensively, fail-fast, mirroring
// pkg/config/validator.go's Validator.ValidateAll chain.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator { return &Validator{cfg: cfg} }

// ValidateAll validates in dependency order: pacing before type-complexity
// before everything else, since a missing pacing row makes the creation-time
// estimate for that assessment type meaningless.
func (v *Validator) ValidateAll() error {
	if err := v.validatePacing(); err != nil {
		return fmt.Errorf("pacing validation failed: %w", err)
	}
	if err := v.validateTypeComplexity(); err != nil {
		return fmt.Errorf("type complexity validation failed: %w", err)
	}
	if err := v.validateCreationTime(); err != nil {
		return fmt.Errorf("creation time validation failed: %w", err)
	}
	if err := v.validateDefaultQuestionTypes(); err != nil {
		return fmt.Errorf("default question types validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validatePacing() error {
	if len(v.cfg.Pacing) == 0 {
		return NewValidationError("pacing", "", "", ErrMissingRequiredField)
	}
	for at, row := range v.cfg.Pacing {
		if row.AvgMinPerQ <= 0 {
			return NewValidationError("pacing", string(at), "avg_min_per_q", ErrInvalidValue)
		}
		if row.MinQCount < 1 {
			return NewValidationError("pacing", string(at), "min_q_count", ErrInvalidValue)
		}
		if row.MaxQCount < row.MinQCount {
			return NewValidationError("pacing", string(at), "max_q_count", ErrInvalidValue)
		}
	}
	return nil
}

func (v *Validator) validateTypeComplexity() error {
	for at, mult := range v.cfg.TypeComplexity {
		if mult < 0.5 || mult > 2.0 {
			return NewValidationError("type_complexity", string(at), "", ErrInvalidValue)
		}
	}
	return nil
}

func (v *Validator) validateCreationTime() error {
	if v.cfg.CreationTime.Base <= 0 {
		return NewValidationError("creation_time", "", "base", ErrInvalidValue)
	}
	if v.cfg.CreationTime.WriterSecPerQ <= 0 {
		return NewValidationError("creation_time", "", "writer_sec_per_q", ErrInvalidValue)
	}
	if v.cfg.CreationTime.InputPenaltyPer500Chars < 0 {
		return NewValidationError("creation_time", "", "input_penalty_per_500_chars", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateDefaultQuestionTypes() error {
	for at, types := range v.cfg.DefaultQuestionTypes {
		if len(types) == 0 {
			return NewValidationError("default_question_types", string(at), "", ErrMissingRequiredField)
		}
	}
	return nil
}
