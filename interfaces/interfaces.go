// Package interfaces defines core abstractions for the nutricalc API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/nutricalc-api/calculator"
	"github.com/giygas/nutricalc-api/history"
)

// Calculator evaluates formulas by identifier. Implementations must be safe
// for concurrent use.
type Calculator interface {
	Calculate(id calculator.FormulaID, in calculator.Inputs) (calculator.Outcome, error)
	Formulas() []calculator.Formula
	Lookup(id calculator.FormulaID) (calculator.Formula, bool)
}

// HistoryStore keeps the most recent calculations in memory.
type HistoryStore interface {
	Record(out calculator.Outcome) history.Entry
	Recent(n int) []history.Entry
	Clear() int
	PruneOlderThan(d time.Duration) int
	Len() int
	Limit() int
	LastRecorded() time.Time
}

// Scheduler defines the contract for background jobs.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// Catalog
	ListFormulas(w http.ResponseWriter, r *http.Request)
	GetFormula(w http.ResponseWriter, r *http.Request)

	// Calculations
	Calculate(w http.ResponseWriter, r *http.Request)

	// History
	ListHistory(w http.ResponseWriter, r *http.Request)
	ClearHistory(w http.ResponseWriter, r *http.Request)
	ExportHistory(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status, the details to report and the HTTP code
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// RequestValidator checks the user supplied parts of a request before they
// reach the calculator.
type RequestValidator interface {
	// ValidateFormulaID checks the shape of a formula identifier
	ValidateFormulaID(input string) (calculator.FormulaID, error)

	// ValidateInputs checks parameter names and string values
	ValidateInputs(in calculator.Inputs) error

	// ValidateLimit parses an optional positive limit capped at max
	ValidateLimit(input string, max int) (int, error)

	// ValidateExportFormat accepts xlsx or pdf
	ValidateExportFormat(input string) (string, error)
}
