// Package validation checks the user supplied parts of API requests before
// they reach the calculator.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/giygas/nutricalc-api/calculator"
	"github.com/giygas/nutricalc-api/interfaces"
	"github.com/giygas/nutricalc-api/logging"
)

const (
	maxParameters   = 32
	maxLabelLength  = 50
	minFormulaIDLen = 3
	maxFormulaIDLen = 64
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// kebab-case identifiers such as "cp-energy-motor"
	formulaIDRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	// snake_case parameter names such as "tibia_length"
	paramNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,39}$`)

	// Labels and numbers sent as text: letters in any script, digits and safe punctuation
	labelRegex = regexp.MustCompile(`^[\p{L}\p{M}0-9\s\-\.,\+'_()]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// LDAP injection patterns
		"*)(", "*|(", "*)%",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

// RequestValidatorImpl implements the interfaces.RequestValidator interface
type RequestValidatorImpl struct{}

var _ interfaces.RequestValidator = (*RequestValidatorImpl)(nil)

// NewRequestValidator creates a new request validator
func NewRequestValidator() interfaces.RequestValidator {
	return &RequestValidatorImpl{}
}

// ValidateFormulaID checks that input looks like a formula identifier. Whether
// the formula exists is up to the calculator.
func (v *RequestValidatorImpl) ValidateFormulaID(input string) (calculator.FormulaID, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return "", fmt.Errorf("formula id cannot be empty")
	}

	// Reject if original input contained whitespace (spaces, tabs, etc.)
	if len(input) != len(trimmedInput) {
		return "", fmt.Errorf("formula id contains invalid characters")
	}

	if len(input) < minFormulaIDLen || len(input) > maxFormulaIDLen {
		return "", fmt.Errorf("formula id must be between %d and %d characters", minFormulaIDLen, maxFormulaIDLen)
	}

	if !formulaIDRegex.MatchString(input) {
		return "", fmt.Errorf("formula id contains invalid characters. Only lowercase letters, digits and hyphens are allowed")
	}

	return calculator.FormulaID(input), nil
}

// ValidateInputs checks parameter names and every string value. Numbers are
// left to the formulas, which know their own ranges.
func (v *RequestValidatorImpl) ValidateInputs(in calculator.Inputs) error {
	if len(in) > maxParameters {
		return fmt.Errorf("too many parameters: maximum %d allowed", maxParameters)
	}

	for name, value := range in {
		if !paramNameRegex.MatchString(name) {
			return fmt.Errorf("invalid parameter name %q", truncate(name))
		}

		switch val := value.(type) {
		case nil, bool, float64, float32, int, int64, json.Number:
		case string:
			if err := v.validateLabel(val); err != nil {
				return fmt.Errorf("parameter %s: %w", name, err)
			}
		default:
			return fmt.Errorf("parameter %s must be a number or a string", name)
		}
	}
	return nil
}

// validateLabel applies the free text rules to a category label or a number
// sent as text
func (v *RequestValidatorImpl) validateLabel(input string) error {
	if strings.TrimSpace(input) == "" {
		// blank means missing, the calculator reports it
		return nil
	}

	if len(input) > maxLabelLength {
		return fmt.Errorf("value too long: maximum %d characters", maxLabelLength)
	}

	// Check for potentially dangerous patterns using string matching
	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			logging.Warn("Rejected parameter with dangerous content", "pattern", pattern)
			return fmt.Errorf("value contains potentially dangerous content")
		}
	}

	if !labelRegex.MatchString(input) {
		return fmt.Errorf("value contains invalid characters. Only letters, digits, spaces, hyphens, underscores, apostrophes, periods, commas, parentheses and plus sign are allowed")
	}

	// Additional checks for repeated characters (potential DoS)
	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("value contains excessive character repetition")
	}

	return nil
}

// ValidateLimit parses an optional limit query parameter. An empty input
// means max.
func (v *RequestValidatorImpl) ValidateLimit(input string, max int) (int, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return max, nil
	}

	// strconv.Atoi() validates that input contains only digits
	limit, err := strconv.Atoi(trimmedInput)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}

	if limit > max {
		return 0, fmt.Errorf("limit cannot exceed %d", max)
	}

	return limit, nil
}

// ValidateExportFormat normalizes the export format, defaulting to xlsx
func (v *RequestValidatorImpl) ValidateExportFormat(input string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(input)); format {
	case "", "xlsx":
		return "xlsx", nil
	case "pdf":
		return "pdf", nil
	default:
		return "", fmt.Errorf("unsupported export format %q: use xlsx or pdf", truncate(input))
	}
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *RequestValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

// truncate keeps user input echoed in errors short
func truncate(s string) string {
	if len(s) > 20 {
		return s[:20] + "..."
	}
	return s
}
