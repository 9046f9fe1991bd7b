package logging

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets long-poll handlers push headers early.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestObserver receives one call per finished request, e.g. for metrics.
type RequestObserver interface {
	ObserveRequest(route string, code int, elapsed time.Duration)
}

// RequestLogger is middleware that logs HTTP requests. obs may be nil.
func RequestLogger(obs RequestObserver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		if obs != nil {
			obs.ObserveRequest(Route(r.URL.Path), rw.status, duration)
		}

		// Skip noisy paths
		if r.URL.Path == "/health" || (r.URL.Query().Has("wait") && rw.status < 400) {
			return
		}

		level := slog.LevelInfo
		if rw.status >= 500 {
			level = slog.LevelError
		} else if rw.status >= 400 {
			level = slog.LevelWarn
		}

		slog.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", duration.String(),
			"ip", r.RemoteAddr,
		)
	})
}

// Route collapses ids out of a request path so it can be used as a metric
// label.
func Route(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 4 && parts[0] == "api" && parts[1] == "docs":
		return "/api/docs/{collection}/{id}"
	case len(parts) == 3 && parts[0] == "api" && parts[1] == "docs":
		return "/api/docs/{collection}"
	case len(parts) == 4 && parts[0] == "api" && parts[1] == "properties":
		return "/api/properties/{id}/" + parts[3]
	}
	return path
}
