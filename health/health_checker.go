// Package health provides health checking functionality for the nutricalc API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/giygas/nutricalc-api/calculator"
	"github.com/giygas/nutricalc-api/interfaces"
)

// Known answer calculation run on every check: tibia 30 cm gives 128.6 cm.
const (
	canaryFormula   = calculator.StatureFromTibia
	canaryExpected  = 128.6
	canaryTolerance = 1e-6
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	calc      interfaces.Calculator
	history   interfaces.HistoryStore
	startTime time.Time
	now       func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(calc interfaces.Calculator, history interfaces.HistoryStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		calc:      calc,
		history:   history,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// HealthCheck returns HTTP-specific health data
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	now := h.now()
	catalog := h.calc.Formulas()
	canaryErr := h.runCanary()
	entries := h.history.Len()
	limit := h.history.Limit()
	lastCalculation := h.history.LastRecorded()

	switch {
	case len(catalog) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case canaryErr != "":
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	uptime := now.Sub(h.startTime)
	data = map[string]any{
		"formulas":        len(catalog),
		"history_entries": entries,
		"history_limit":   limit,
		"history_usage":   humanize.FtoaWithDigits(float64(entries)*100/float64(max(limit, 1)), 1) + "%",
		"started":         humanize.RelTime(h.startTime, now, "ago", "from now"),
		"uptime_seconds":  math.Round(uptime.Seconds()),
	}

	if lastCalculation.IsZero() {
		data["last_calculation"] = "never"
	} else {
		data["last_calculation"] = humanize.RelTime(lastCalculation, now, "ago", "from now")
	}

	if canaryErr != "" {
		data["self_test"] = canaryErr
	} else {
		data["self_test"] = "ok"
	}

	return status, data, httpStatus
}

// runCanary returns an empty string when the known answer calculation
// matches, a description of the failure otherwise
func (h *HealthCheckerImpl) runCanary() string {
	out, err := h.calc.Calculate(canaryFormula, calculator.Inputs{"tibia_length": 30.0})
	if err != nil {
		return err.Error()
	}
	v, ok := out.Value.Value()
	if !ok {
		return "self test returned an undefined value"
	}
	if math.Abs(v-canaryExpected) > canaryTolerance {
		return "self test returned " + humanize.Ftoa(v) + ", expected " + humanize.Ftoa(canaryExpected)
	}
	return ""
}
