package security

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestAlerter(t *testing.T) (*AuditAlerter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAuditAlerter(client, "test:alerts"), mr
}

func TestAuditAlerterObserveTriggers(t *testing.T) {
	alerter, _ := newTestAlerter(t)
	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		result, err := alerter.Observe(ctx, "login", "fail", "127.0.0.1")
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		if result.Count != int64(i) {
			t.Fatalf("expected count %d, got %d", i, result.Count)
		}
		if result.Triggered != (i == 10) {
			t.Fatalf("attempt %d: triggered=%v", i, result.Triggered)
		}
	}
	for i := 11; i <= 15; i++ {
		result, err := alerter.Observe(ctx, "login", "fail", "127.0.0.1")
		if err != nil {
			t.Fatalf("observe: %v", err)
		}
		if result.Triggered {
			t.Fatalf("attempt %d: alert must fire once per window", i)
		}
	}
	result, err := alerter.Observe(ctx, "login", "fail", "10.0.0.9")
	if err != nil || result.Count != 1 {
		t.Fatalf("other ips count separately: %+v (%v)", result, err)
	}
}

func TestAuditAlerterWindowRollsOver(t *testing.T) {
	alerter, _ := newTestAlerter(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	alerter.now = func() time.Time { return base }
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := alerter.Observe(ctx, "password.forgot", "rate_limited", "1.2.3.4"); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	alerter.now = func() time.Time { return base.Add(time.Minute) }
	result, err := alerter.Observe(ctx, "password.forgot", "rate_limited", "1.2.3.4")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if result.Count != 1 || result.Threshold != 20 || result.Window != time.Minute {
		t.Fatalf("expected a fresh window, got %+v", result)
	}
}

func TestAuditAlerterIgnoresUnknownRule(t *testing.T) {
	alerter, mr := newTestAlerter(t)
	result, err := alerter.Observe(context.Background(), "login", "success", "127.0.0.1")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if result.Triggered || result.Count != 0 {
		t.Fatalf("unexpected result for success outcome: %+v", result)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("success must not be counted, keys: %v", keys)
	}
}

func TestNilAuditAlerter(t *testing.T) {
	var alerter *AuditAlerter
	if NewAuditAlerter(nil, "") != nil {
		t.Fatalf("expected nil alerter without client")
	}
	if _, err := alerter.Observe(context.Background(), "login", "fail", "1.1.1.1"); err != nil {
		t.Fatalf("nil alerter must be a no-op: %v", err)
	}
}

func TestSanitizeSegment(t *testing.T) {
	if got := sanitizeSegment("::1"); got != "__1" {
		t.Fatalf("unexpected %q", got)
	}
	if got := sanitizeSegment(" "); got != "unknown" {
		t.Fatalf("unexpected %q", got)
	}
}
