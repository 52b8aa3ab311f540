package formulas

import (
	"errors"
	"fmt"
	"math"
)

// Validation error kinds. Every *ValidationError unwraps to exactly one of them.
var (
	ErrInvalidMeasurement = errors.New("invalid measurement")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidCombination = errors.New("invalid combination")
)

// ValidationError describes the precondition a formula input failed.
type ValidationError struct {
	Kind   error
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s (got %v)", e.Kind, e.Field, e.Reason, e.Value)
}

// Unwrap exposes the kind to errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func measurementError(field string, value float64, reason string) error {
	return &ValidationError{Kind: ErrInvalidMeasurement, Field: field, Value: value, Reason: reason}
}

func categoryError(field string, value any, reason string) error {
	return &ValidationError{Kind: ErrInvalidCategory, Field: field, Value: value, Reason: reason}
}

// firstError returns the first failed check so that no arithmetic runs on bad input.
func firstError(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return measurementError(field, v, "must be a finite number")
	}
	return nil
}

func positive(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return measurementError(field, v, "must be greater than zero")
	}
	return nil
}

// nonNegative only rejects non-finite values and negatives.
func nonNegative(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return measurementError(field, v, "must not be negative")
	}
	return nil
}

func validSex(s Sex) error {
	if !s.Valid() {
		return categoryError("sex", string(s), "must be one of male, female")
	}
	return nil
}
