package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"moodflix/internal/util"
)

const defaultSessionPrefix = "moodflix:session"

// RedisSessionStore keeps opaque session tokens in Redis with TTL. Each user
// also has a set of live tokens so all of them can be revoked at once.
type RedisSessionStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisSessionStore builds a Redis-backed session store on a shared client.
func NewRedisSessionStore(client redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl, prefix: defaultSessionPrefix}
}

// NewSession writes a token -> userID mapping with TTL.
func (s *RedisSessionStore) NewSession(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id required")
	}
	token := util.NewToken(32)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(token), userID, s.ttl)
	pipe.SAdd(ctx, s.userKey(userID), token)
	pipe.Expire(ctx, s.userKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// GetUserIDByToken resolves token to user ID.
func (s *RedisSessionStore) GetUserIDByToken(token string) (string, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	val, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// DeleteSession removes a token mapping. Unknown tokens are ignored.
func (s *RedisSessionStore) DeleteSession(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	userID, err := s.client.GetDel(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.client.SRem(ctx, s.userKey(userID), token).Err()
}

// RevokeUserSessions drops every live token of the user. Opaque tokens carry no
// issue time, so since is ignored.
func (s *RedisSessionStore) RevokeUserSessions(userID string, _ time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tokens, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.tokenKey(token))
	}
	keys = append(keys, s.userKey(userID))
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisSessionStore) tokenKey(token string) string {
	return s.prefix + ":token:" + token
}

func (s *RedisSessionStore) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}
