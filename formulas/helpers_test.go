package formulas

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(b))
}

func ptr(f float64) *float64 {
	return &f
}

// assertKind fails the test unless err unwraps to kind.
func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %v error, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("Expected error kind %v, got %v", kind, err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if ve.Field == "" {
		t.Errorf("Expected failing field to be named, got empty field in %v", err)
	}
}

func assertValue(t *testing.T, got, want float64) {
	t.Helper()
	if !almostEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func assertDefined(t *testing.T, got Estimate, want float64) {
	t.Helper()
	v, ok := got.Value()
	if !ok {
		t.Fatalf("Expected defined estimate %v, got undefined", want)
	}
	assertValue(t, v, want)
}

func assertUndefined(t *testing.T, got Estimate) {
	t.Helper()
	if got.IsDefined() {
		v, _ := got.Value()
		t.Errorf("Expected undefined estimate, got %v", v)
	}
}
