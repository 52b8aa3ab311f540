// Package formulas implements the clinical anthropometric and energy equations
// used by the calculator. Every function is pure: it validates its inputs,
// selects the regression for the given categories and age band, and returns
// the raw number. Labels and thresholds for display live in classification.go.
package formulas

import (
	"encoding/json"
	"fmt"
)

// Sex discriminates almost every regression.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// Valid reports whether s is a known sex.
func (s Sex) Valid() bool {
	return s == Male || s == Female
}

// Ethnicity selects race-specific coefficients.
type Ethnicity string

const (
	White Ethnicity = "white"
	Black Ethnicity = "black"
)

// Valid reports whether e is a known ethnicity.
func (e Ethnicity) Valid() bool {
	return e == White || e == Black
}

// Condition selects the adjusted-weight branch.
type Condition string

const (
	Obesity      Condition = "obesity"
	Malnutrition Condition = "malnutrition"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	return c == Obesity || c == Malnutrition
}

// ActivityLevel is the physical activity grading for children with cerebral palsy aged 5-11.
type ActivityLevel string

const (
	MildModerate      ActivityLevel = "mild_moderate"
	RestrictedIntense ActivityLevel = "restricted_intense"
	SevereRestriction ActivityLevel = "severe_restriction"
)

// Valid reports whether a has an energy coefficient.
func (a ActivityLevel) Valid() bool {
	_, ok := activityKcalPerCm[a]
	return ok
}

// MotorCondition grades motor function for stable children with cerebral palsy.
type MotorCondition string

const (
	NoDysfunction MotorCondition = "no_dysfunction"
	Ambulatory    MotorCondition = "ambulatory"
	NonAmbulatory MotorCondition = "non_ambulatory"
)

// Valid reports whether m has an energy coefficient.
func (m MotorCondition) Valid() bool {
	_, ok := motorKcalPerCm[m]
	return ok
}

// Estimate is a result that may be absent. Formulas return an undefined
// Estimate when the age or category falls outside every supported band.
type Estimate struct {
	value   float64
	defined bool
}

// Defined wraps a computed value.
func Defined(v float64) Estimate {
	return Estimate{value: v, defined: true}
}

// Undefined is the "unsupported range" outcome.
func Undefined() Estimate {
	return Estimate{}
}

// Value returns the number and whether it is defined.
func (e Estimate) Value() (float64, bool) {
	return e.value, e.defined
}

// IsDefined reports whether the formula produced a value.
func (e Estimate) IsDefined() bool {
	return e.defined
}

// String formats the value with two decimals, or "undefined".
func (e Estimate) String() string {
	if !e.defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", e.value)
}

// MarshalJSON encodes an undefined estimate as null.
func (e Estimate) MarshalJSON() ([]byte, error) {
	if !e.defined {
		return []byte("null"), nil
	}
	return json.Marshal(e.value)
}

// UnmarshalJSON decodes null as an undefined estimate.
func (e *Estimate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = Defined(v)
	return nil
}
