package server

import (
	"net/http"
	"strings"
)

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type verifyResetCodeRequest struct {
	ChallengeID string `json:"challengeId" validate:"required"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
}

func (r *forgotPasswordRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *verifyResetCodeRequest) normalize() {
	r.ChallengeID = strings.TrimSpace(r.ChallengeID)
	r.Email = strings.TrimSpace(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

type resetPasswordRequest struct {
	ResetToken string `json:"resetToken" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.resetLimiter, "password.forgot", "too many reset requests") {
		return
	}
	var req forgotPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	challenge, err := s.app.RequestPasswordReset(r.Context(), req.Email)
	s.audit(r, "password.forgot", outcomeOf(err))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, challenge)
}

func (s *Server) handleVerifyResetCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req verifyResetCodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	token, err := s.app.VerifyResetCode(r.Context(), req.ChallengeID, req.Email, req.Code)
	s.audit(r, "password.verify", outcomeOf(err))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"resetToken": token})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req resetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.app.ResetPassword(r.Context(), req.ResetToken, req.Password)
	s.audit(r, "password.reset", outcomeOf(err))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
