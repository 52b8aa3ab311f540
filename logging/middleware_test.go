package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newLoggedRouter mirrors the server layout closely enough for the route attrs
func newLoggedRouter(out *strings.Builder) http.Handler {
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(logger))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/calculations/{formulaId}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "formulaId") == "broken" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"value":128.6}`))
		})
		r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
	})
	return r
}

func lastRecord(t *testing.T, out *strings.Builder) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &rec); err != nil {
		t.Fatalf("Expected a JSON log record, got %q", out.String())
	}
	return rec
}

func TestLoggingMiddlewareSkipsProbes(t *testing.T) {
	var out strings.Builder
	router := newLoggedRouter(&out)

	for _, path := range []string{"/health", "/metrics"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if out.Len() != 0 {
		t.Errorf("Expected no logs for probes, got: %s", out.String())
	}
}

func TestLoggingMiddlewareRecord(t *testing.T) {
	var out strings.Builder
	router := newLoggedRouter(&out)

	req := httptest.NewRequest(http.MethodPost, "/v1/calculations/stature-tibia", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-789"))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rec := lastRecord(t, &out)
	expected := map[string]any{
		"msg":           "HTTP request",
		"level":         "INFO",
		"request_id":    "req-789",
		"method":        "POST",
		"path":          "/v1/calculations/stature-tibia",
		"route":         "/v1/calculations/{formulaId}",
		"formula":       "stature-tibia",
		"status_code":   float64(200),
		"bytes_written": float64(len(`{"value":128.6}`)),
	}
	for key, want := range expected {
		if rec[key] != want {
			t.Errorf("Expected %s=%v, got %v", key, want, rec[key])
		}
	}
	if _, ok := rec["query"]; ok {
		t.Error("query should only be logged when present")
	}
}

func TestLoggingMiddlewareOptionalAttrs(t *testing.T) {
	var out strings.Builder
	router := newLoggedRouter(&out)

	req := httptest.NewRequest(http.MethodGet, "/v1/history?limit=abc", nil)
	// a non string request id falls back to unknown
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, 12345))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rec := lastRecord(t, &out)
	if rec["query"] != "limit=abc" {
		t.Errorf("Expected query limit=abc, got %v", rec["query"])
	}
	if rec["request_id"] != "unknown" {
		t.Errorf("Expected request_id unknown, got %v", rec["request_id"])
	}
	if _, ok := rec["formula"]; ok {
		t.Error("formula should only be logged on calculation routes")
	}
}

func TestLoggingMiddlewareLevelByStatus(t *testing.T) {
	tests := []struct {
		method string
		path   string
		level  string
	}{
		{http.MethodPost, "/v1/calculations/bmr", "INFO"},
		{http.MethodGet, "/v1/history", "WARN"},
		{http.MethodGet, "/v1/unknown", "WARN"},
		{http.MethodPost, "/v1/calculations/broken", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var out strings.Builder
			newLoggedRouter(&out).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			if rec := lastRecord(t, &out); rec["level"] != tt.level {
				t.Errorf("Expected level %s, got %v", tt.level, rec["level"])
			}
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := map[int]slog.Level{
		http.StatusOK:                    slog.LevelInfo,
		http.StatusNotModified:           slog.LevelInfo,
		http.StatusTooManyRequests:       slog.LevelWarn,
		http.StatusRequestEntityTooLarge: slog.LevelWarn,
		http.StatusServiceUnavailable:    slog.LevelError,
	}
	for status, want := range tests {
		if got := levelFor(status); got != want {
			t.Errorf("levelFor(%d) = %v, want %v", status, got, want)
		}
	}
}

func BenchmarkLoggingMiddleware(b *testing.B) {
	var out strings.Builder
	router := newLoggedRouter(&out)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out.Reset()
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/calculations/bmr", nil))
	}
}
