package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func TestJWTSessionStoreRoundTrip(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{})

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if !ok || userID != "user-1" {
		t.Fatalf("unexpected verify result: ok=%v userID=%q", ok, userID)
	}
}

func TestJWTSessionStoreRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTSessionStore("short", time.Minute, nil, JWTOptions{}); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}

func TestJWTSessionStoreEnforcesAudience(t *testing.T) {
	signing := newHSStore(t, nil, JWTOptions{Issuer: "issuer-a", Audience: "aud-a", Leeway: time.Second})
	verify := newHSStore(t, nil, JWTOptions{Issuer: "issuer-a", Audience: "aud-b", Leeway: time.Second})

	token, err := signing.NewSession("user-claim")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := verify.GetUserIDByToken(token); ok || err != nil {
		t.Fatalf("expected audience mismatch to fail, ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreRejectsOtherSecret(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{})
	other, err := NewJWTSessionStore("fedcba9876543210fedcba9876543210", time.Minute, nil, JWTOptions{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	token, err := other.NewSession("user-x")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected token signed with another secret to fail")
	}
}

func TestJWTSessionStoreRevokesByJTI(t *testing.T) {
	revoker := NewMemoryTokenRevoker()
	s := newHSStore(t, revoker, JWTOptions{})

	token, err := s.NewSession("user-revoke")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("expected revoked token to fail, ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreRevokesByUserCutoff(t *testing.T) {
	revoker := NewMemoryTokenRevoker()
	s := newHSStore(t, revoker, JWTOptions{})

	token, err := s.NewSession("user-cutoff")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.RevokeUserSessions("user-cutoff", time.Now().UTC().Add(time.Second)); err != nil {
		t.Fatalf("revoke user: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("expected user-revoked token to fail, ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionStoreAcceptsSessionIssuedRightAfterCutoff(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	revokers := map[string]TokenRevoker{
		"memory": NewMemoryTokenRevoker(),
		"redis":  NewRedisTokenRevoker(client, time.Hour),
	}
	for name, revoker := range revokers {
		s := newHSStore(t, revoker, JWTOptions{})
		for i := 0; i < 20; i++ {
			old, err := s.NewSession("user-reset")
			if err != nil {
				t.Fatalf("%s: new session: %v", name, err)
			}
			if err := s.RevokeUserSessions("user-reset", time.Now().UTC()); err != nil {
				t.Fatalf("%s: revoke user: %v", name, err)
			}
			fresh, err := s.NewSession("user-reset")
			if err != nil {
				t.Fatalf("%s: new session: %v", name, err)
			}
			if _, ok, err := s.GetUserIDByToken(old); err != nil || ok {
				t.Fatalf("%s: session issued before the cutoff must fail, ok=%v err=%v", name, ok, err)
			}
			if userID, ok, err := s.GetUserIDByToken(fresh); err != nil || !ok || userID != "user-reset" {
				t.Fatalf("%s: session issued after the cutoff must pass, ok=%v err=%v", name, ok, err)
			}
		}
	}
}

func TestJWTSessionStoreRejectsFutureIssuedAt(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{Leeway: time.Second})
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-future",
		Issuer:    defaultJWTIssuer,
		Audience:  jwt.ClaimStrings{defaultJWTAudience},
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(2 * time.Minute)),
		NotBefore: jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		ID:        "jti-future",
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(signed); ok {
		t.Fatalf("expected future iat token to fail")
	}
}

func TestJWTSessionStoreRequiresJTIClaim(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{})
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-missing-jti",
		Issuer:    defaultJWTIssuer,
		Audience:  jwt.ClaimStrings{defaultJWTAudience},
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		NotBefore: jwt.NewNumericDate(time.Now().UTC()),
		ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(5 * time.Minute)),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(signed); ok {
		t.Fatalf("expected missing jti token to fail")
	}
}

func TestJWTSessionStoreRejectsNoneAlgorithm(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{})
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-none",
		Issuer:    defaultJWTIssuer,
		Audience:  jwt.ClaimStrings{defaultJWTAudience},
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(5 * time.Minute)),
		ID:        "jti-none",
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(signed); ok {
		t.Fatalf("expected alg=none token to fail")
	}
}

func newHSStore(t *testing.T, revoker TokenRevoker, opts JWTOptions) *JWTSessionStore {
	t.Helper()
	s, err := NewJWTSessionStore(testJWTSecret, time.Minute, revoker, opts)
	if err != nil {
		t.Fatalf("new jwt store: %v", err)
	}
	return s
}
