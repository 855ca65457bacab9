package store

import (
	"errors"
	"time"

	"moodflix/pkg/domain"
)

// ErrDuplicate is returned when a unique constraint (username, email) is violated.
var ErrDuplicate = errors.New("store: duplicate key")

// Store defines persistence operations for users, recommendations, comments
// and favorites. Lookups return (value, found, error).
type Store interface {
	// users
	CreateUser(domain.User) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	HasUsernameOrEmail(username, email string) (bool, error)
	UpdatePassword(userID, passwordHash string, at time.Time) error

	// recommendations, newest first
	SaveRecommendations(recs []domain.Recommendation) error
	ListRecommendations(userID string) ([]domain.Recommendation, error)

	// comments, newest first
	AddComment(domain.Comment) error
	ListComments(movieID int64) ([]domain.CommentView, error)

	// favorites; AddFavorite reports false when the pair already exists
	AddFavorite(domain.Favorite) (bool, error)
	RemoveFavorite(userID string, movieID int64) error
	IsFavorite(userID string, movieID int64) (bool, error)
	ListFavorites(userID string) ([]domain.Favorite, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}

// UserSessionRevoker is an optional capability that revokes every session
// issued for a user up to a cutoff time.
type UserSessionRevoker interface {
	RevokeUserSessions(userID string, since time.Time) error
}
