// Package handlers provides HTTP request handlers for the nutricalc API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/giygas/nutricalc-api/calculator"
	"github.com/giygas/nutricalc-api/formulas"
	"github.com/giygas/nutricalc-api/history"
	"github.com/giygas/nutricalc-api/interfaces"
	"github.com/giygas/nutricalc-api/logging"
	"github.com/giygas/nutricalc-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// The catalog only changes with a new release
const catalogMaxAge = time.Hour

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	calc      interfaces.Calculator
	history   interfaces.HistoryStore
	validator interfaces.RequestValidator
	health    interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	calc interfaces.Calculator,
	history interfaces.HistoryStore,
	validator interfaces.RequestValidator,
	health interfaces.HealthChecker,
) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		calc:      calc,
		history:   history,
		validator: validator,
		health:    health,
	}
}

// calculationRequest is the body of POST /v1/calculations/{formulaId}
type calculationRequest struct {
	Inputs calculator.Inputs `json:"inputs"`
}

// CalculationResponse is an Outcome plus the history entry it produced.
// Supported is false when the inputs fall outside every population the
// formula covers, in which case value is null.
type CalculationResponse struct {
	calculator.Outcome
	Supported bool      `json:"supported"`
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is the body of GET /v1/history
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	RespondWithJSON(w, code, payload)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithError(w, code, message)
}

// respondWithValidationError writes a 400 carrying the failed input so that
// clients can highlight the right field
func (h *HTTPHandlerImpl) respondWithValidationError(w http.ResponseWriter, verr *formulas.ValidationError) {
	body := errorBody(http.StatusBadRequest, verr.Error())
	body["kind"] = kindName(verr.Kind)
	body["field"] = verr.Field
	body["reason"] = verr.Reason
	h.RespondWithJSON(w, http.StatusBadRequest, body)
}

func kindName(kind error) string {
	switch {
	case errors.Is(kind, formulas.ErrInvalidMeasurement):
		return "invalid_measurement"
	case errors.Is(kind, formulas.ErrInvalidCategory):
		return "invalid_category"
	case errors.Is(kind, formulas.ErrInvalidCombination):
		return "invalid_combination"
	default:
		return "invalid_input"
	}
}

// ListFormulas returns the formula catalog
func (h *HTTPHandlerImpl) ListFormulas(w http.ResponseWriter, r *http.Request) {
	catalog := h.calc.Formulas()
	RespondWithCachedJSON(w, r, map[string]any{
		"formulas": catalog,
		"count":    len(catalog),
	}, catalogMaxAge)
}

// GetFormula returns one catalog entry
func (h *HTTPHandlerImpl) GetFormula(w http.ResponseWriter, r *http.Request) {
	input := chi.URLParam(r, "formulaId")
	id, err := h.validator.ValidateFormulaID(input)
	if err != nil {
		logging.Warn("Unusual user input", "formula_id", input)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	formula, ok := h.calc.Lookup(id)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Formula %s not found", id))
		return
	}

	RespondWithCachedJSON(w, r, formula, catalogMaxAge)
}

// Calculate evaluates a formula and records the result in the history
func (h *HTTPHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	input := chi.URLParam(r, "formulaId")
	id, err := h.validator.ValidateFormulaID(input)
	if err != nil {
		logging.Warn("Unusual user input", "formula_id", input)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, status, err := decodeCalculationRequest(r.Body)
	if err != nil {
		h.RespondWithError(w, status, err.Error())
		return
	}

	if err := h.validator.ValidateInputs(req.Inputs); err != nil {
		logging.Warn("Rejected calculation inputs", "formula", id, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	out, err := h.calc.Calculate(id, req.Inputs)
	elapsed := time.Since(start)

	if err != nil {
		var verr *formulas.ValidationError
		switch {
		case errors.Is(err, calculator.ErrUnknownFormula):
			// not observed, unknown ids would grow the label set without bound
			h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Formula %s not found", id))
		case errors.As(err, &verr):
			metrics.ObserveCalculation(string(id), metrics.ResultInvalid, elapsed)
			logging.Debug("Calculation rejected", "formula", id, "field", verr.Field, "reason", verr.Reason)
			h.respondWithValidationError(w, verr)
		default:
			logging.Error("Calculation failed", "formula", id, "error", err)
			h.RespondWithError(w, http.StatusInternalServerError, "Calculation failed")
		}
		return
	}

	result := metrics.ResultDefined
	if !out.Value.IsDefined() {
		result = metrics.ResultUndefined
	}
	metrics.ObserveCalculation(string(id), result, elapsed)

	entry := h.history.Record(out)
	metrics.HistoryEntries.Set(float64(h.history.Len()))

	h.RespondWithJSON(w, http.StatusOK, CalculationResponse{
		Outcome:   out,
		Supported: out.Value.IsDefined(),
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
	})
}

// decodeCalculationRequest reads exactly one JSON object. Numbers are kept as
// json.Number so that the calculator sees what the client sent.
func decodeCalculationRequest(body io.Reader) (calculationRequest, int, error) {
	var req calculationRequest

	dec := json.NewDecoder(body)
	dec.UseNumber()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return req, http.StatusRequestEntityTooLarge, fmt.Errorf("request body too large: maximum %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return req, http.StatusBadRequest, errors.New("request body cannot be empty")
		default:
			return req, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err)
		}
	}

	if dec.More() {
		return req, http.StatusBadRequest, errors.New("request body must contain a single JSON object")
	}

	if req.Inputs == nil {
		return req, http.StatusBadRequest, errors.New(`request body must contain an "inputs" object`)
	}

	return req, 0, nil
}

// ListHistory returns the most recent calculations, newest last
func (h *HTTPHandlerImpl) ListHistory(w http.ResponseWriter, r *http.Request) {
	limitParam := r.URL.Query().Get("limit")
	limit, err := h.validator.ValidateLimit(limitParam, h.history.Limit())
	if err != nil {
		logging.Warn("Unusual user input", "limit", limitParam)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries := h.history.Recent(limit)
	h.RespondWithJSON(w, http.StatusOK, HistoryResponse{
		Entries: entries,
		Count:   len(entries),
		Total:   h.history.Len(),
		Limit:   h.history.Limit(),
	})
}

// ClearHistory removes every recorded calculation
func (h *HTTPHandlerImpl) ClearHistory(w http.ResponseWriter, r *http.Request) {
	removed := h.history.Clear()
	metrics.HistoryEntries.Set(0)

	logging.Info("History cleared", "removed", removed)
	h.RespondWithJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// ExportHistory streams the history as an xlsx workbook or a pdf table
func (h *HTTPHandlerImpl) ExportHistory(w http.ResponseWriter, r *http.Request) {
	formatParam := r.URL.Query().Get("format")
	format, err := h.validator.ValidateExportFormat(formatParam)
	if err != nil {
		logging.Warn("Unusual user input", "format", formatParam)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries := h.history.Recent(0)

	// Render fully before writing so that a failure can still become a JSON error
	var buf bytes.Buffer
	contentType := contentTypeXLSX
	switch format {
	case "pdf":
		contentType = contentTypePDF
		err = history.WritePDF(&buf, entries)
	default:
		err = history.WriteXLSX(&buf, entries)
	}
	if err != nil {
		logging.Error("Failed to export history", "format", format, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to export history")
		return
	}

	filename := fmt.Sprintf("nutricalc-history-%s.%s", time.Now().UTC().Format("20060102T150405Z"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	logging.Info("History exported", "format", format, "entries", len(entries), "size", humanize.Bytes(uint64(buf.Len())))
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.health.HealthCheck()

	// Get memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status: status,
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc":       humanize.IBytes(m.Alloc),
				"total_alloc": humanize.IBytes(m.TotalAlloc),
				"sys":         humanize.IBytes(m.Sys),
				"num_gc":      m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
