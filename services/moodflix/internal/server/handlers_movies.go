package server

import (
	"net/http"

	"moodflix/pkg/domain"
)

type recommendRequest struct {
	// Text may be blank to recommend from history.
	Text string `json:"text" validate:"max=2000"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req recommendRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.app.Recommend(r.Context(), user, req.Text)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, ok := movieIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	view, err := s.app.MovieDetail(r.Context(), user, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := movieIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	switch r.Method {
	case http.MethodGet:
		comments, err := s.app.ListComments(id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeList(w, comments)
	case http.MethodPost:
		var req commentRequest
		if !s.decode(w, r, &req) {
			return
		}
		comment, err := s.app.AddComment(r.Context(), user, id, req.Text)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	favs, err := s.app.ListFavorites(r.Context(), user)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeList(w, favs)
}

func (s *Server) handleFavoriteByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := movieIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	var err error
	switch r.Method {
	case http.MethodPut:
		err = s.app.AddFavorite(r.Context(), user, id)
	case http.MethodDelete:
		err = s.app.RemoveFavorite(user, id)
	default:
		methodNotAllowed(w)
		return
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	groups, err := s.app.History(user)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeList(w, groups)
}
