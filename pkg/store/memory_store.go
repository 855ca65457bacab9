package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"moodflix/pkg/domain"
)

var errUserNotFound = errors.New("user not found")

// MemoryStore keeps everything in-process. Used by tests and local runs
// without a database.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User // key: user ID
	byUsername map[string]string      // lower(username) -> user ID
	byEmail    map[string]string      // email -> user ID
	recs       []domain.Recommendation
	comments   []domain.Comment
	favorites  map[string]map[int64]domain.Favorite // user ID -> movie ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		favorites:  make(map[string]map[int64]domain.Favorite),
	}
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a user.
func (m *MemoryStore) CreateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUsername[usernameKey(u.Username)]; ok {
		return ErrDuplicate
	}
	if _, ok := m.byEmail[emailKey(u.Email)]; ok {
		return ErrDuplicate
	}
	m.users[u.ID] = u
	m.byUsername[usernameKey(u.Username)] = u.ID
	m.byEmail[emailKey(u.Email)] = u.ID
	return nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByUsername looks a user up case-insensitively.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byUsername[usernameKey(username)]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[emailKey(email)]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// HasUsernameOrEmail checks whether either identifier is taken.
func (m *MemoryStore) HasUsernameOrEmail(username, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, byName := m.byUsername[usernameKey(username)]
	_, byMail := m.byEmail[emailKey(email)]
	return byName || byMail, nil
}

// UpdatePassword replaces the stored hash.
func (m *MemoryStore) UpdatePassword(userID, passwordHash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = at.UTC()
	m.users[userID] = u
	return nil
}

// SaveRecommendations appends a batch.
func (m *MemoryStore) SaveRecommendations(recs []domain.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, recs...)
	return nil
}

// ListRecommendations returns a user's recommendations, newest first.
// Rows saved in the same batch keep their insertion order.
func (m *MemoryStore) ListRecommendations(userID string) ([]domain.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Recommendation
	for _, r := range m.recs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// AddComment records a comment.
func (m *MemoryStore) AddComment(c domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[c.UserID]; !ok {
		return errUserNotFound
	}
	m.comments = append(m.comments, c)
	return nil
}

// ListComments returns comments on a movie with author names, newest first.
func (m *MemoryStore) ListComments(movieID int64) ([]domain.CommentView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.CommentView
	for _, c := range m.comments {
		if c.MovieID != movieID {
			continue
		}
		out = append(out, domain.CommentView{
			ID:        c.ID,
			MovieID:   c.MovieID,
			AuthorID:  c.UserID,
			Username:  m.users[c.UserID].Username,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// AddFavorite inserts the pair unless it already exists.
func (m *MemoryStore) AddFavorite(f domain.Favorite) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	movies := m.favorites[f.UserID]
	if movies == nil {
		movies = make(map[int64]domain.Favorite)
		m.favorites[f.UserID] = movies
	}
	if _, ok := movies[f.MovieID]; ok {
		return false, nil
	}
	movies[f.MovieID] = f
	return true, nil
}

// RemoveFavorite deletes the pair.
func (m *MemoryStore) RemoveFavorite(userID string, movieID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.favorites[userID], movieID)
	return nil
}

// IsFavorite reports whether the pair exists.
func (m *MemoryStore) IsFavorite(userID string, movieID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.favorites[userID][movieID]
	return ok, nil
}

// ListFavorites returns a user's favorites, newest first.
func (m *MemoryStore) ListFavorites(userID string) ([]domain.Favorite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Favorite, 0, len(m.favorites[userID]))
	for _, f := range m.favorites[userID] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].MovieID < out[j].MovieID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
