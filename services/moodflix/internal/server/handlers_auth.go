package server

import (
	"net/http"
	"strings"

	"moodflix/pkg/domain"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// loginRequest.Username also accepts an email address.
type loginRequest struct {
	Username string `json:"username" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

func (r *registerRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *loginRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	user, token, err := s.app.Register(req.Username, req.Email, req.Password)
	s.audit(r, "register", outcomeOf(err), "user_id", user.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	user, token, err := s.app.Login(req.Username, req.Password)
	s.audit(r, "login", outcomeOf(err), "user_id", user.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, _ := bearerToken(r)
	err := s.app.Logout(token)
	s.audit(r, "logout", outcomeOf(err), "user_id", user.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
