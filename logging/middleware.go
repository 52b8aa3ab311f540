package logging

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// quietPaths are polled by probes and scrapers and would drown the log
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

var statusRecorderPool = sync.Pool{
	New: func() any { return &responseWriterWrapper{} },
}

// LoggingMiddleware logs one record per request. Client errors log at warn,
// server errors at error.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := statusRecorderPool.Get().(*responseWriterWrapper)
			*ww = responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				ww.ResponseWriter = nil
				statusRecorderPool.Put(ww)
			}()

			next.ServeHTTP(ww, r)

			logger.LogAttrs(r.Context(), levelFor(ww.statusCode), "HTTP request",
				requestAttrs(r, ww, time.Since(start))...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func requestAttrs(r *http.Request, ww *responseWriterWrapper, elapsed time.Duration) []slog.Attr {
	requestID, ok := r.Context().Value(middleware.RequestIDKey).(string)
	if !ok || requestID == "" {
		requestID = "unknown"
	}

	attrs := make([]slog.Attr, 0, 11)
	attrs = append(attrs,
		slog.String("request_id", requestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	// the route pattern groups /v1/calculations/{formulaId} across formulas
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			attrs = append(attrs, slog.String("route", pattern))
		}
		if formula := rctx.URLParam("formulaId"); formula != "" {
			attrs = append(attrs, slog.String("formula", formula))
		}
	}
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String("query", r.URL.RawQuery))
	}

	return append(attrs,
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("user_agent", r.UserAgent()),
		slog.Int("status_code", ww.statusCode),
		slog.Int("bytes_written", ww.bytesWritten),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
}

// responseWriterWrapper records the status code and body size
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	wroteHeader  bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(data)
	w.bytesWritten += n
	return n, err
}
