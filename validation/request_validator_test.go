package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/giygas/nutricalc-api/calculator"
)

func TestNewRequestValidator(t *testing.T) {
	validator := NewRequestValidator()

	if validator == nil {
		t.Fatal("NewRequestValidator returned nil")
	}

	// Type assertion to verify it's the correct type
	if _, ok := validator.(*RequestValidatorImpl); !ok {
		t.Error("NewRequestValidator should return *RequestValidatorImpl")
	}
}

func TestValidateFormulaID_Valid(t *testing.T) {
	validator := NewRequestValidator()

	for _, input := range []string{"bmr", "cp-energy-motor", "stature-tibia", "harris-benedict"} {
		t.Run(input, func(t *testing.T) {
			id, err := validator.ValidateFormulaID(input)
			if err != nil {
				t.Fatalf("Expected no error for '%s', got: %v", input, err)
			}
			if string(id) != input {
				t.Errorf("Expected %s, got %s", input, id)
			}
		})
	}
}

func TestValidateFormulaID_Invalid(t *testing.T) {
	validator := NewRequestValidator()

	testCases := []struct {
		name          string
		input         string
		expectedError string
	}{
		{"empty", "", "formula id cannot be empty"},
		{"whitespace only", "   ", "formula id cannot be empty"},
		{"leading space", " bmr", "formula id contains invalid characters"},
		{"too short", "ab", "formula id must be between 3 and 64 characters"},
		{"too long", strings.Repeat("a", 65), "formula id must be between 3 and 64 characters"},
		{"uppercase", "BMR", "formula id contains invalid characters. Only lowercase letters, digits and hyphens are allowed"},
		{"double hyphen", "cp--energy", "formula id contains invalid characters. Only lowercase letters, digits and hyphens are allowed"},
		{"trailing hyphen", "bmr-", "formula id contains invalid characters. Only lowercase letters, digits and hyphens are allowed"},
		{"path traversal", "../etc", "formula id contains invalid characters. Only lowercase letters, digits and hyphens are allowed"},
		{"underscore", "cp_energy", "formula id contains invalid characters. Only lowercase letters, digits and hyphens are allowed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.ValidateFormulaID(tc.input)
			if err == nil {
				t.Fatalf("Expected error for '%s'", tc.input)
			}
			if err.Error() != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, err.Error())
			}
		})
	}
}

func TestValidateInputs_Valid(t *testing.T) {
	validator := NewRequestValidator()

	inputs := calculator.Inputs{
		"weight":          70.5,
		"height":          json.Number("175"),
		"age":             30,
		"sex":             "Feminino",
		"activity_level":  "leve a moderada",
		"motor_condition": "não deambular",
		"stress_factor":   "1,3",
		"ethnicity":       nil,
		"tanner_stage":    int64(3),
		"segment":         "antebraço",
	}

	if err := validator.ValidateInputs(inputs); err != nil {
		t.Errorf("Expected no error for valid inputs, got: %v", err)
	}

	if err := validator.ValidateInputs(nil); err != nil {
		t.Errorf("Expected no error for nil inputs, got: %v", err)
	}
}

func TestValidateInputs_ParameterNames(t *testing.T) {
	validator := NewRequestValidator()

	for _, name := range []string{"Weight", "1weight", "weight-kg", "", "$where", strings.Repeat("a", 41)} {
		t.Run("name_"+name, func(t *testing.T) {
			err := validator.ValidateInputs(calculator.Inputs{name: 1})
			if err == nil {
				t.Errorf("Expected error for parameter name '%s'", name)
			}
		})
	}
}

func TestValidateInputs_TooManyParameters(t *testing.T) {
	validator := NewRequestValidator()

	inputs := calculator.Inputs{}
	for i := 0; i <= maxParameters; i++ {
		inputs["p"+strings.Repeat("a", i%30)+string(rune('a'+i%26))] = 1
	}
	if len(inputs) <= maxParameters {
		t.Fatalf("Test setup produced only %d parameters", len(inputs))
	}

	err := validator.ValidateInputs(inputs)
	if err == nil {
		t.Fatal("Expected error for too many parameters")
	}
	if !strings.Contains(err.Error(), "too many parameters") {
		t.Errorf("Expected 'too many parameters' error, got '%s'", err.Error())
	}
}

func TestValidateInputs_NestedValues(t *testing.T) {
	validator := NewRequestValidator()

	for name, value := range map[string]any{
		"object": map[string]any{"$ne": 1},
		"array":  []any{1, 2},
	} {
		t.Run(name, func(t *testing.T) {
			err := validator.ValidateInputs(calculator.Inputs{"weight": value})
			if err == nil {
				t.Fatal("Expected error for nested value")
			}
			expectedError := "parameter weight must be a number or a string"
			if err.Error() != expectedError {
				t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
			}
		})
	}
}

func TestValidateInputs_DangerousPatterns(t *testing.T) {
	validator := NewRequestValidator()

	dangerousInputs := []string{
		"<script>alert('xss')</script>",
		"javascript:alert('xss')",
		"onload=alert('xss')",
		"eval('xss')",
		"male' or 1=1",
		"union select",
		"drop table",
		"male; rm",
		"$(whoami)",
		"../../etc",
		"{$ne: 1}",
		"SCRIPT>alert('xss')</SCRIPT>",
	}

	for _, input := range dangerousInputs {
		t.Run("dangerous_"+input, func(t *testing.T) {
			err := validator.ValidateInputs(calculator.Inputs{"sex": input})
			if err == nil {
				t.Fatalf("Expected error for dangerous input '%s'", input)
			}
			if !strings.Contains(err.Error(), "parameter sex") {
				t.Errorf("Expected error to name the parameter, got '%s'", err.Error())
			}
		})
	}
}

func TestValidateLabel(t *testing.T) {
	validator := &RequestValidatorImpl{}

	testCases := []struct {
		name          string
		input         string
		expectedError string
	}{
		{"blank is left to the calculator", "   ", ""},
		{"portuguese accents", "restrição física grave", ""},
		{"comma decimal", "1,25", ""},
		{"parenthesised label", "não deambular (caminhar)", ""},
		{"call syntax", "eval(1)", "value contains potentially dangerous content"},
		{"too long", strings.Repeat("ab", 26), "value too long: maximum 50 characters"},
		{"invalid characters", "male<>", "value contains invalid characters. Only letters, digits, spaces, hyphens, underscores, apostrophes, periods, commas, parentheses and plus sign are allowed"},
		{"emoji", "male 😀", "value contains invalid characters. Only letters, digits, spaces, hyphens, underscores, apostrophes, periods, commas, parentheses and plus sign are allowed"},
		{"repetition", "aaaaaaaaaaaa", "value contains excessive character repetition"},
		{"dangerous", "drop table", "value contains potentially dangerous content"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.validateLabel(tc.input)
			if tc.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error for '%s', got: %v", tc.input, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error for '%s'", tc.input)
			}
			if err.Error() != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, err.Error())
			}
		})
	}
}

func TestValidateLimit(t *testing.T) {
	validator := NewRequestValidator()

	testCases := []struct {
		name          string
		input         string
		expected      int
		expectedError string
	}{
		{"empty uses max", "", 100, ""},
		{"valid", "25", 25, ""},
		{"padded", " 25 ", 25, ""},
		{"max", "100", 100, ""},
		{"zero", "0", 0, "limit must be a positive integer"},
		{"negative", "-5", 0, "limit must be a positive integer"},
		{"not a number", "ten", 0, "limit must be a positive integer"},
		{"above max", "101", 0, "limit cannot exceed 100"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validator.ValidateLimit(tc.input, 100)
			if tc.expectedError != "" {
				if err == nil {
					t.Fatalf("Expected error for '%s'", tc.input)
				}
				if err.Error() != tc.expectedError {
					t.Errorf("Expected error '%s', got '%s'", tc.expectedError, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestValidateExportFormat(t *testing.T) {
	validator := NewRequestValidator()

	for input, expected := range map[string]string{"": "xlsx", "xlsx": "xlsx", "XLSX": "xlsx", " pdf ": "pdf", "PDF": "pdf"} {
		got, err := validator.ValidateExportFormat(input)
		if err != nil {
			t.Errorf("Expected no error for '%s', got: %v", input, err)
			continue
		}
		if got != expected {
			t.Errorf("Expected %s for '%s', got %s", expected, input, got)
		}
	}

	if _, err := validator.ValidateExportFormat("csv"); err == nil {
		t.Error("Expected error for csv")
	}
	_, err := validator.ValidateExportFormat(strings.Repeat("x", 40))
	if err == nil || !strings.Contains(err.Error(), "...") {
		t.Errorf("Expected truncated format in error, got %v", err)
	}
}

func TestHasExcessiveRepetition(t *testing.T) {
	validator := &RequestValidatorImpl{}

	testCases := []struct {
		input    string
		expected bool
	}{
		{"normal", false},
		{"aaaaaaaaaa", false},   // 10 identical characters
		{"aaaaaaaaaaa", true},   // 11 identical characters
		{"xaaaaaaaaaaax", true}, // run in the middle
		{"", false},
	}

	for _, tc := range testCases {
		if got := validator.hasExcessiveRepetition(tc.input); got != tc.expected {
			t.Errorf("hasExcessiveRepetition(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func BenchmarkValidateInputs(b *testing.B) {
	validator := NewRequestValidator()
	inputs := calculator.Inputs{"weight": 70.0, "height": 175.0, "age": 30.0, "sex": "female"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = validator.ValidateInputs(inputs)
	}
}
