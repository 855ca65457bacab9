package store

import (
	"errors"
	"testing"
	"time"

	"moodflix/pkg/domain"
)

func TestMemoryStoreUsersAreUniqueCaseInsensitive(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateUser(domain.User{ID: "u1", Username: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	err := s.CreateUser(domain.User{ID: "u2", Username: "alice", Email: "other@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	err = s.CreateUser(domain.User{ID: "u3", Username: "bob", Email: "ALICE@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	u, ok, err := s.GetUserByUsername("ALICE")
	if err != nil || !ok || u.ID != "u1" {
		t.Fatalf("lookup by username: ok=%v id=%q err=%v", ok, u.ID, err)
	}
	exists, err := s.HasUsernameOrEmail("carol", "alice@example.com")
	if err != nil || !exists {
		t.Fatalf("expected email to be taken, exists=%v err=%v", exists, err)
	}
}

func TestMemoryStoreUpdatePassword(t *testing.T) {
	s := NewMemoryStore()
	_ = s.CreateUser(domain.User{ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "old"})
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.UpdatePassword("u1", "new", at); err != nil {
		t.Fatalf("update password: %v", err)
	}
	u, _, _ := s.GetUserByID("u1")
	if u.PasswordHash != "new" || !u.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected user after update: %+v", u)
	}
	if err := s.UpdatePassword("missing", "x", at); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}

func TestMemoryStoreRecommendationsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.SaveRecommendations([]domain.Recommendation{
		{ID: "r1", UserID: "u1", Question: "sad", MovieTitle: "A", CreatedAt: base},
		{ID: "r2", UserID: "u1", Question: "sad", MovieTitle: "B", CreatedAt: base},
	})
	_ = s.SaveRecommendations([]domain.Recommendation{
		{ID: "r3", UserID: "u1", Question: "happy", MovieTitle: "C", CreatedAt: base.Add(time.Hour)},
		{ID: "r4", UserID: "u2", Question: "other", MovieTitle: "D", CreatedAt: base.Add(2 * time.Hour)},
	})

	recs, err := s.ListRecommendations("u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	if recs[0].ID != "r3" || recs[1].ID != "r1" || recs[2].ID != "r2" {
		t.Fatalf("unexpected order: %s %s %s", recs[0].ID, recs[1].ID, recs[2].ID)
	}
}

func TestMemoryStoreCommentsJoinAuthor(t *testing.T) {
	s := NewMemoryStore()
	_ = s.CreateUser(domain.User{ID: "u1", Username: "alice", Email: "a@example.com"})
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.AddComment(domain.Comment{ID: "c1", UserID: "u1", MovieID: 550, Text: "first", CreatedAt: base})
	_ = s.AddComment(domain.Comment{ID: "c2", UserID: "u1", MovieID: 550, Text: "second", CreatedAt: base.Add(time.Minute)})
	_ = s.AddComment(domain.Comment{ID: "c3", UserID: "u1", MovieID: 13, Text: "elsewhere", CreatedAt: base})

	if err := s.AddComment(domain.Comment{ID: "c4", UserID: "ghost", MovieID: 550, Text: "x"}); err == nil {
		t.Fatalf("expected comment from unknown user to fail")
	}

	views, err := s.ListComments(550)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(views) != 2 || views[0].ID != "c2" || views[1].ID != "c1" {
		t.Fatalf("unexpected comments: %+v", views)
	}
	if views[0].Username != "alice" || views[0].AuthorID != "u1" {
		t.Fatalf("expected author to be joined, got %+v", views[0])
	}
}

func TestMemoryStoreFavorites(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	added, err := s.AddFavorite(domain.Favorite{UserID: "u1", MovieID: 550, CreatedAt: base})
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = s.AddFavorite(domain.Favorite{UserID: "u1", MovieID: 550, CreatedAt: base.Add(time.Hour)})
	if err != nil || added {
		t.Fatalf("second add should be a no-op: added=%v err=%v", added, err)
	}
	_, _ = s.AddFavorite(domain.Favorite{UserID: "u1", MovieID: 13, CreatedAt: base.Add(time.Minute)})

	favs, _ := s.ListFavorites("u1")
	if len(favs) != 2 || favs[0].MovieID != 13 || favs[1].MovieID != 550 {
		t.Fatalf("unexpected favorites: %+v", favs)
	}

	if err := s.RemoveFavorite("u1", 550); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveFavorite("u1", 550); err != nil {
		t.Fatalf("second remove should be idempotent: %v", err)
	}
	if ok, _ := s.IsFavorite("u1", 550); ok {
		t.Fatalf("expected favorite to be removed")
	}
	if ok, _ := s.IsFavorite("u1", 13); !ok {
		t.Fatalf("expected other favorite to remain")
	}
}
