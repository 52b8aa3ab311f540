// Package calculator dispatches a formula identifier and a bag of raw inputs
// to the matching function in package formulas, and describes every formula
// it knows for the catalog endpoints.
package calculator

import (
	"errors"
	"fmt"

	"github.com/giygas/nutricalc-api/formulas"
)

// ErrUnknownFormula is returned for identifiers not in the registry.
var ErrUnknownFormula = errors.New("unknown formula")

// FormulaID is the stable, kebab-case identifier of a formula.
type FormulaID string

// ParamKind tells clients how to render and send a parameter.
type ParamKind string

const (
	KindNumber   ParamKind = "number"
	KindCategory ParamKind = "category"
	KindStage    ParamKind = "integer"
)

// Param describes one input of a formula.
type Param struct {
	Name     string    `json:"name"`
	Kind     ParamKind `json:"kind"`
	Unit     string    `json:"unit,omitempty"`
	Optional bool      `json:"optional,omitempty"`
	Choices  []string  `json:"choices,omitempty"`
}

// Formula is a catalog entry.
type Formula struct {
	ID          FormulaID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Unit        string    `json:"unit"`
	Params      []Param   `json:"params"`

	eval func(r *reader) (Outcome, error)
}

// Outcome is the result of one calculation. Value is undefined when the
// inputs fall outside the populations the formula covers.
type Outcome struct {
	Formula        FormulaID          `json:"formula"`
	Value          formulas.Estimate  `json:"value"`
	Unit           string             `json:"unit"`
	Components     map[string]float64 `json:"components,omitempty"`
	Classification string             `json:"classification,omitempty"`
}

// Calculator is immutable after New and safe for concurrent use.
type Calculator struct {
	formulas map[FormulaID]Formula
	order    []FormulaID
}

// New builds a Calculator holding every registered formula.
func New() *Calculator {
	c := &Calculator{formulas: make(map[FormulaID]Formula, len(registry))}
	for _, f := range registry {
		if _, dup := c.formulas[f.ID]; dup {
			panic(fmt.Sprintf("calculator: formula %q registered twice", f.ID))
		}
		c.formulas[f.ID] = f
		c.order = append(c.order, f.ID)
	}
	return c
}

// Formulas returns the catalog in registration order.
func (c *Calculator) Formulas() []Formula {
	out := make([]Formula, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.formulas[id])
	}
	return out
}

// Lookup returns the catalog entry for id.
func (c *Calculator) Lookup(id FormulaID) (Formula, bool) {
	f, ok := c.formulas[id]
	return f, ok
}

// Calculate runs the formula id against in. Validation failures are
// *formulas.ValidationError values.
func (c *Calculator) Calculate(id FormulaID, in Inputs) (Outcome, error) {
	f, ok := c.formulas[id]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownFormula, id)
	}
	out, err := f.eval(&reader{in: in})
	if err != nil {
		return Outcome{}, err
	}
	out.Formula = f.ID
	out.Unit = f.Unit
	return out, nil
}
