package server

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"moodflix/internal/ratelimit"
	"moodflix/internal/util"
)

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	ip := s.clientIP(r)
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", ip,
		"request_id", util.RequestIDFromContext(r.Context()),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)

	result, err := s.alerter.Observe(r.Context(), event, outcome, ip)
	if err != nil {
		slog.Warn("security alert check failed", "event", event, "err", err)
		return
	}
	if result.Triggered {
		slog.Error("security_alert",
			"event", event,
			"outcome", outcome,
			"ip", ip,
			"count", result.Count,
			"threshold", result.Threshold,
			"window", result.Window.String(),
		)
	}
}

// allowRate applies limiter per route and client IP. A nil limiter allows
// everything.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, event, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + s.clientIP(r)
	allowed, retryAfter := limiter.Allow(r.Context(), key)
	if allowed {
		return true
	}
	s.audit(r, event, "rate_limited")
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func (s *Server) clientIP(r *http.Request) string {
	return util.ClientIP(r, s.trusted)
}

func outcomeOf(err error) string {
	if err != nil {
		return "fail"
	}
	return "success"
}
