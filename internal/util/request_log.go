package util

import (
	"net/http"
	"time"
)

// StatusRecorder captures the status code and body size written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
	Bytes  int
}

// WriteHeader records the status before delegating.
func (r *StatusRecorder) WriteHeader(statusCode int) {
	r.Status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *StatusRecorder) Write(b []byte) (int, error) {
	if r.Status == 0 {
		r.Status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.Bytes += n
	return n, err
}

// StatusCode returns the recorded status, defaulting to 200.
func (r *StatusRecorder) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

// WithRequestLog emits one structured "http_request" log line per request.
// Health and metrics probes are logged at debug level.
func WithRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &StatusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		logger := LoggerFromContext(r.Context())
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.StatusCode(),
			"bytes", rec.Bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			logger.Debug("http_request", attrs...)
			return
		}
		logger.Info("http_request", attrs...)
	})
}
