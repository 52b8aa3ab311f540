package calculator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/giygas/nutricalc-api/formulas"
)

// Inputs holds the raw request values keyed by parameter name. Numbers may
// arrive as JSON numbers or strings, with either a dot or a comma as the
// decimal separator.
type Inputs map[string]any

// reader pulls typed values out of Inputs. The first failure is kept and every
// later read becomes a no-op, so a formula can read all its parameters and
// check r.err once.
type reader struct {
	in  Inputs
	err error
}

func (r *reader) fail(kind error, field string, value any, reason string) {
	if r.err != nil {
		return
	}
	r.err = &formulas.ValidationError{Kind: kind, Field: field, Value: value, Reason: reason}
}

func (r *reader) lookup(name string) (any, bool) {
	v, ok := r.in[name]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func (r *reader) number(name string) float64 {
	if r.err != nil {
		return 0
	}
	v, ok := r.lookup(name)
	if !ok {
		r.fail(formulas.ErrInvalidMeasurement, name, nil, "is required")
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(formulas.ErrInvalidMeasurement, name, v, "must be a number")
		return 0
	}
	return f
}

func (r *reader) optionalNumber(name string) *float64 {
	if r.err != nil {
		return nil
	}
	if _, ok := r.lookup(name); !ok {
		return nil
	}
	f := r.number(name)
	if r.err != nil {
		return nil
	}
	return &f
}

// stage reads a whole number category such as a Tanner stage.
func (r *reader) stage(name string) int {
	if r.err != nil {
		return 0
	}
	v, ok := r.lookup(name)
	if !ok {
		r.fail(formulas.ErrInvalidCategory, name, nil, "is required")
		return 0
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		r.fail(formulas.ErrInvalidCategory, name, v, "must be a whole number")
		return 0
	}
	return int(f)
}

func (r *reader) label(name string, required bool) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.lookup(name)
	if !ok {
		if required {
			r.fail(formulas.ErrInvalidCategory, name, nil, "is required")
		}
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		r.fail(formulas.ErrInvalidCategory, name, v, "must be a string")
		return "", false
	}
	return s, true
}

func category[T ~string](r *reader, name string, aliases map[string]T) T {
	s, ok := r.label(name, true)
	if !ok {
		return ""
	}
	return resolveLabel(aliases, s)
}

func optionalCategory[T ~string](r *reader, name string, aliases map[string]T) (T, bool) {
	s, ok := r.label(name, false)
	if !ok {
		return "", false
	}
	return resolveLabel(aliases, s), true
}

func (r *reader) sex() formulas.Sex {
	return category(r, "sex", sexLabels)
}

func (r *reader) missing(names ...string) error {
	return &formulas.ValidationError{
		Kind:   formulas.ErrInvalidMeasurement,
		Field:  strings.Join(names, ","),
		Reason: fmt.Sprintf("one of %s is required", strings.Join(names, " or ")),
	}
}
