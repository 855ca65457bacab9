package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker tracks revoked token ids until expiry, plus a per-user cutoff:
// tokens issued at or before the cutoff are invalid.
type TokenRevoker interface {
	Revoke(tokenID string, ttl time.Duration) error
	IsRevoked(tokenID string) (bool, error)
	RevokeUser(userID string, since time.Time) error
	RevokedAfter(userID string) (time.Time, error)
}

// MemoryTokenRevoker keeps revocations in-memory (single instance only).
type MemoryTokenRevoker struct {
	mu      sync.Mutex
	tokens  map[string]time.Time
	cutoffs map[string]time.Time
}

// NewMemoryTokenRevoker builds an in-memory revoker.
func NewMemoryTokenRevoker() *MemoryTokenRevoker {
	return &MemoryTokenRevoker{
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
	}
}

// Revoke marks a token as revoked until its expiry.
func (r *MemoryTokenRevoker) Revoke(tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenID] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks if the token is revoked.
func (r *MemoryTokenRevoker) IsRevoked(tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.tokens[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(r.tokens, tokenID)
		return false, nil
	}
	return true, nil
}

// RevokeUser moves the user's cutoff forward; older cutoffs are ignored.
func (r *MemoryTokenRevoker) RevokeUser(userID string, since time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.cutoffs[userID]; ok && !since.After(current) {
		return nil
	}
	r.cutoffs[userID] = since.UTC()
	return nil
}

// RevokedAfter returns the user's cutoff, zero when none.
func (r *MemoryTokenRevoker) RevokedAfter(userID string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cutoffs[userID], nil
}

var userCutoffScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local next = tonumber(ARGV[1])
if next > current then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
end
return 1
`)

// RedisTokenRevoker stores revocations in Redis with TTL.
type RedisTokenRevoker struct {
	client    redis.UniversalClient
	cutoffTTL time.Duration
}

// NewRedisTokenRevoker builds a Redis-backed revoker. cutoffTTL should be at
// least the longest token lifetime.
func NewRedisTokenRevoker(client redis.UniversalClient, cutoffTTL time.Duration) *RedisTokenRevoker {
	if cutoffTTL <= 0 {
		cutoffTTL = 30 * 24 * time.Hour
	}
	return &RedisTokenRevoker{client: client, cutoffTTL: cutoffTTL}
}

// Revoke marks a token as revoked until expiry.
func (r *RedisTokenRevoker) Revoke(tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return r.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err()
}

// IsRevoked checks if the token is revoked.
func (r *RedisTokenRevoker) IsRevoked(tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	n, err := r.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeUser moves the user's cutoff forward atomically.
func (r *RedisTokenRevoker) RevokeUser(userID string, since time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return userCutoffScript.Run(ctx, r.client, []string{userCutoffKey(userID)},
		since.UTC().UnixNano(), r.cutoffTTL.Milliseconds()).Err()
}

// RevokedAfter returns the user's cutoff, zero when none.
func (r *RedisTokenRevoker) RevokedAfter(userID string) (time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	raw, err := r.client.Get(ctx, userCutoffKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos).UTC(), nil
}

func revocationKey(tokenID string) string {
	return "moodflix:revoked:" + tokenID
}

func userCutoffKey(userID string) string {
	return "moodflix:revoked-user:" + userID
}
