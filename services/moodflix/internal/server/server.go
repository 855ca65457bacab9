package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"moodflix/internal/metrics"
	"moodflix/internal/ratelimit"
	"moodflix/internal/util"
	"moodflix/internal/validation"
	"moodflix/pkg/domain"
	"moodflix/services/moodflix/internal/app"
	"moodflix/services/moodflix/internal/security"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App       *app.App
	Validator *validation.Validator
	Alerter   *security.AuditAlerter
	// ResetLimiter guards the reset-code mail endpoint; nil disables it.
	ResetLimiter   *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	CORSOrigins    []string
}

// Server exposes the MoodFlix JSON API.
type Server struct {
	app          *app.App
	validator    *validation.Validator
	alerter      *security.AuditAlerter
	resetLimiter *ratelimit.FixedWindowLimiter
	trusted      *util.TrustedProxies
	corsOrigins  []string
	mux          *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	v := cfg.Validator
	if v == nil {
		v = validation.New()
	}
	s := &Server{
		app:          cfg.App,
		validator:    v,
		alerter:      cfg.Alerter,
		resetLimiter: cfg.ResetLimiter,
		trusted:      cfg.TrustedProxies,
		corsOrigins:  cfg.CORSOrigins,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(
		util.WithCORS(s.corsOrigins,
			util.WithRequestID(
				util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.handle("/healthz", http.HandlerFunc(s.handleHealth))
	s.mux.Handle("/metrics", metrics.Handler())

	// auth
	s.handle("/api/auth/register", http.HandlerFunc(s.handleRegister))
	s.handle("/api/auth/login", http.HandlerFunc(s.handleLogin))
	s.handle("/api/auth/logout", s.authenticated(s.handleLogout))
	s.handle("/api/auth/me", s.authenticated(s.handleMe))

	// movies
	s.handle("/api/recommendations", s.authenticated(s.handleRecommend))
	s.handle("/api/movies/{id}", s.authenticated(s.handleMovie))
	s.handle("/api/movies/{id}/comments", s.authenticated(s.handleComments))
	s.handle("/api/favorites", s.authenticated(s.handleFavorites))
	s.handle("/api/favorites/{id}", s.authenticated(s.handleFavoriteByID))
	s.handle("/api/history", s.authenticated(s.handleHistory))

	// password reset
	s.handle("/api/password/forgot", http.HandlerFunc(s.handleForgotPassword))
	s.handle("/api/password/verify", http.HandlerFunc(s.handleVerifyResetCode))
	s.handle("/api/password/reset", http.HandlerFunc(s.handleResetPassword))
}

// handle registers h instrumented under its pattern.
func (s *Server) handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, metrics.Instrument(pattern, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.audit(r, "authorize", "fail", "reason", "missing_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok, err := s.app.UserFromToken(token)
		if err != nil {
			util.LoggerFromContext(r.Context()).Error("resolve session failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			s.audit(r, "authorize", "fail", "reason", "invalid_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		logger := util.LoggerFromContext(r.Context()).With("user_id", user.ID)
		next(w, r.WithContext(util.ContextWithLogger(r.Context(), logger)), user)
	})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
// normalizer is implemented by requests that clean their fields before
// validation.
type normalizer interface {
	normalize()
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if err := s.validator.Validate(dst); err != nil {
		writeAppError(w, r, err)
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		slog.Warn("empty bearer token", "path", r.URL.Path)
		return "", false
	}
	return token, true
}

func movieIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}
