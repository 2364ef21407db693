package rules

import (
	"errors"
	"fmt"
)

// RulesPerIndicator каждый индикатор имеет ровно три правила.
const RulesPerIndicator = 3

var (
	ErrRuleCount   = errors.New("indicator must have exactly 3 calculation rules")
	ErrInvalidMode = errors.New("invalid rule mode")
)

// ValidationError указывает поле набора правил, не прошедшее проверку.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

const (
	ModeSet        = "set"
	ModeAdditive   = "additive"
	ModeMinus      = "minus"
	ModeMultiplied = "multiplied"
)

// Rule is one ordered calculation rule of an indicator.
type Rule struct {
	Condition     Condition `json:"condition"`
	DescriptionKM string    `json:"description_km"`
	DescriptionEN string    `json:"description_en"`
	Mode          string    `json:"mode"`
	Value         float64   `json:"value"`
}

// Target applies the rule formula to a baseline without clamping.
func (r Rule) Target(baseline float64) float64 {
	switch r.Mode {
	case ModeAdditive:
		return baseline + r.Value
	case ModeMinus:
		return baseline - r.Value
	case ModeMultiplied:
		return baseline * r.Value
	default:
		return r.Value
	}
}

func ValidateSet(set []Rule) error {
	if len(set) != RulesPerIndicator {
		return &ValidationError{
			Field:  "calculation_rules",
			Reason: fmt.Sprintf("%s, got %d", ErrRuleCount, len(set)),
			Err:    ErrRuleCount,
		}
	}

	for i, r := range set {
		if err := r.Condition.Validate(); err != nil {
			return &ValidationError{
				Field:  fmt.Sprintf("calculation_rules[%d].condition", i),
				Reason: err.Error(),
				Err:    err,
			}
		}
		switch r.Mode {
		case ModeSet, ModeAdditive, ModeMinus, ModeMultiplied:
		default:
			return &ValidationError{
				Field:  fmt.Sprintf("calculation_rules[%d].mode", i),
				Reason: fmt.Sprintf("%s %q", ErrInvalidMode, r.Mode),
				Err:    ErrInvalidMode,
			}
		}
	}

	return nil
}
