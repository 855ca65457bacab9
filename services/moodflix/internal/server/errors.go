package server

import (
	"errors"
	"net/http"

	"moodflix/internal/util"
	"moodflix/internal/validation"
	"moodflix/pkg/auth"
	"moodflix/services/moodflix/internal/app"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{app.ErrUsernameEmailPasswordRequired, http.StatusBadRequest},
	{app.ErrInvalidEmail, http.StatusBadRequest},
	{app.ErrCredentialsRequired, http.StatusBadRequest},
	{app.ErrEmailRequired, http.StatusBadRequest},
	{app.ErrCommentRequired, http.StatusBadRequest},
	{app.ErrCommentTooLong, http.StatusBadRequest},
	{auth.ErrPasswordRequired, http.StatusBadRequest},
	{auth.ErrPasswordTooLong, http.StatusBadRequest},
	{app.ErrResetChallengeNeeded, http.StatusBadRequest},
	{app.ErrResetChallenge, http.StatusBadRequest},
	{app.ErrResetCodeRequired, http.StatusBadRequest},
	{app.ErrResetCodeInvalid, http.StatusBadRequest},
	{app.ErrResetCodeExpired, http.StatusBadRequest},
	{app.ErrResetTokenInvalid, http.StatusBadRequest},
	{app.ErrInvalidCredentials, http.StatusUnauthorized},
	{app.ErrMovieNotFound, http.StatusNotFound},
	{app.ErrEmailNotRegistered, http.StatusNotFound},
	{app.ErrUsernameOrEmailExists, http.StatusConflict},
	{app.ErrAlreadyFavorite, http.StatusConflict},
	{app.ErrNoHistory, http.StatusUnprocessableEntity},
	{app.ErrMoodNotUnderstood, http.StatusUnprocessableEntity},
	{app.ErrNoMoviesFound, http.StatusUnprocessableEntity},
	{app.ErrResetRateLimited, http.StatusTooManyRequests},
	{app.ErrCatalogUnavailable, http.StatusBadGateway},
}

// writeAppError maps app errors to statuses. Only sentinel messages reach
// the client; anything unmapped is logged and reported as 500.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}
	logger := util.LoggerFromContext(r.Context())
	for _, e := range errorStatuses {
		if !errors.Is(err, e.err) {
			continue
		}
		if e.status >= http.StatusInternalServerError {
			logger.Error("upstream failure", "err", err)
		}
		if e.status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "60")
		}
		writeError(w, e.status, e.err.Error())
		return
	}
	logger.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
