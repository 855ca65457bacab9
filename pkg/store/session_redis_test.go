package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisSessionStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, ttl), mr
}

func TestRedisSessionStoreLifecycle(t *testing.T) {
	s, _ := newTestRedisSessionStore(t, time.Hour)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok || userID != "user-1" {
		t.Fatalf("lookup: userID=%q ok=%v err=%v", userID, ok, err)
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); ok || err != nil {
		t.Fatalf("expected deleted token to be unknown, ok=%v err=%v", ok, err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("deleting twice should be a no-op: %v", err)
	}
}

func TestRedisSessionStoreExpires(t *testing.T) {
	s, mr := newTestRedisSessionStore(t, time.Minute)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected session to expire")
	}
}

func TestRedisSessionStoreRevokeUserSessions(t *testing.T) {
	s, _ := newTestRedisSessionStore(t, time.Hour)

	first, _ := s.NewSession("user-1")
	second, _ := s.NewSession("user-1")
	other, _ := s.NewSession("user-2")

	if err := s.RevokeUserSessions("user-1", time.Now()); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	for _, token := range []string{first, second} {
		if _, ok, _ := s.GetUserIDByToken(token); ok {
			t.Fatalf("expected token to be revoked")
		}
	}
	if _, ok, _ := s.GetUserIDByToken(other); !ok {
		t.Fatalf("expected other user's session to survive")
	}
}
