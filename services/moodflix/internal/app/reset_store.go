package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"moodflix/internal/util"
)

var claimAttemptScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// ResetStore keeps password reset challenges and one-time reset tokens in
// Redis.
type ResetStore struct {
	client            redis.UniversalClient
	keyPrefix         string
	challengeTTL      time.Duration
	challengePersist  time.Duration
	resendAfter       time.Duration
	tokenTTL          time.Duration
	maxVerifyAttempts int
	opTimeout         time.Duration
	now               func() time.Time
}

// ResetChallenge is what the caller learns about a new challenge. Code is
// only ever mailed.
type ResetChallenge struct {
	ID          string `json:"challengeId"`
	Code        string `json:"-"`
	ExpiresIn   int    `json:"expiresIn"`
	ResendAfter int    `json:"resendAfter"`
}

type resetChallenge struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	CodeHash   string    `json:"codeHash"`
	ExpiresAt  time.Time `json:"expiresAt"`
	MaxAttempt int       `json:"maxAttempt"`
}

// NewResetStore uses a 5 minute code lifetime, one resend per minute, five
// verify attempts and 10 minute reset tokens.
func NewResetStore(client redis.UniversalClient) (*ResetStore, error) {
	if client == nil {
		return nil, errors.New("reset store redis client is required")
	}
	challengeTTL := 5 * time.Minute
	return &ResetStore{
		client:            client,
		keyPrefix:         "moodflix:reset",
		challengeTTL:      challengeTTL,
		challengePersist:  challengeTTL + time.Minute,
		resendAfter:       time.Minute,
		tokenTTL:          10 * time.Minute,
		maxVerifyAttempts: 5,
		opTimeout:         2 * time.Second,
		now:               time.Now,
	}, nil
}

// CreateChallenge issues a new code for email unless one was sent within the
// resend window.
func (s *ResetStore) CreateChallenge(ctx context.Context, email string) (ResetChallenge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	resendKey := s.resendKey(email)
	allowed, err := s.client.SetNX(ctx, resendKey, "1", s.resendAfter).Result()
	if err != nil {
		return ResetChallenge{}, fmt.Errorf("reserve reset resend: %w", err)
	}
	if !allowed {
		return ResetChallenge{}, ErrResetRateLimited
	}

	fail := func(err error) (ResetChallenge, error) {
		_ = s.client.Del(ctx, resendKey).Err()
		return ResetChallenge{}, err
	}
	code, err := generateNumericCode(6)
	if err != nil {
		return fail(fmt.Errorf("generate reset code: %w", err))
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hash reset code: %w", err))
	}
	challenge := resetChallenge{
		ID:         util.NewID(),
		Email:      email,
		CodeHash:   string(codeHash),
		ExpiresAt:  s.now().UTC().Add(s.challengeTTL),
		MaxAttempt: s.maxVerifyAttempts,
	}
	raw, err := json.Marshal(challenge)
	if err != nil {
		return fail(fmt.Errorf("marshal reset challenge: %w", err))
	}
	if err := s.client.Set(ctx, s.challengeKey(challenge.ID), raw, s.challengePersist).Err(); err != nil {
		return fail(fmt.Errorf("store reset challenge: %w", err))
	}
	return ResetChallenge{
		ID:          challenge.ID,
		Code:        code,
		ExpiresIn:   int(s.challengeTTL.Seconds()),
		ResendAfter: int(s.resendAfter.Seconds()),
	}, nil
}

// Discard drops a challenge and its resend guard, used when the code could
// not be delivered.
func (s *ResetStore) Discard(ctx context.Context, challengeID, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.client.Del(ctx, s.challengeKey(challengeID), s.attemptsKey(challengeID), s.resendKey(email)).Err()
}

// VerifyChallenge checks code and consumes the challenge on success. Every
// guess claims one attempt before the code is compared; once the attempts are
// used up the challenge is deleted.
func (s *ResetStore) VerifyChallenge(ctx context.Context, challengeID, email, code string) error {
	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return ErrResetChallengeNeeded
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrResetCodeRequired
	}
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	key := s.challengeKey(challengeID)
	attemptsKey := s.attemptsKey(challengeID)
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrResetChallenge
	}
	if err != nil {
		return fmt.Errorf("load reset challenge: %w", err)
	}
	var challenge resetChallenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return fmt.Errorf("unmarshal reset challenge: %w", err)
	}
	if challenge.ID == "" || challenge.Email != email {
		return ErrResetChallenge
	}
	if s.now().UTC().After(challenge.ExpiresAt) {
		_ = s.client.Del(ctx, key, attemptsKey).Err()
		return ErrResetCodeExpired
	}
	attempt, err := claimAttemptScript.Run(ctx, s.client, []string{attemptsKey}, s.challengePersist.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("claim reset attempt: %w", err)
	}
	if attempt > int64(challenge.MaxAttempt) {
		_ = s.client.Del(ctx, key, attemptsKey).Err()
		return ErrResetChallenge
	}
	if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)) != nil {
		if attempt >= int64(challenge.MaxAttempt) {
			_ = s.client.Del(ctx, key, attemptsKey).Err()
		}
		return ErrResetCodeInvalid
	}
	err = s.client.GetDel(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return ErrResetChallenge
	}
	if err != nil {
		return fmt.Errorf("consume reset challenge: %w", err)
	}
	_ = s.client.Del(ctx, attemptsKey).Err()
	return nil
}

// IssueToken stores a one-time reset token for email.
func (s *ResetStore) IssueToken(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	token := util.NewToken(32)
	if err := s.client.Set(ctx, s.tokenKey(token), email, s.tokenTTL).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// ConsumeToken returns the email bound to token and deletes it.
func (s *ResetStore) ConsumeToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrResetTokenInvalid
	}
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	email, err := s.client.GetDel(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrResetTokenInvalid
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return email, nil
}

func (s *ResetStore) challengeKey(challengeID string) string {
	return fmt.Sprintf("%s:challenge:%s", s.keyPrefix, challengeID)
}

func (s *ResetStore) attemptsKey(challengeID string) string {
	return fmt.Sprintf("%s:attempts:%s", s.keyPrefix, challengeID)
}

func (s *ResetStore) resendKey(email string) string {
	return fmt.Sprintf("%s:resend:%s", s.keyPrefix, email)
}

func (s *ResetStore) tokenKey(token string) string {
	return fmt.Sprintf("%s:token:%s", s.keyPrefix, token)
}

func generateNumericCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
