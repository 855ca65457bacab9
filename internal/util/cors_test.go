package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithCORSAllowlist(t *testing.T) {
	called := false
	h := WithCORS([]string{"https://moodflix.app/"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Origin", "https://moodflix.app")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://moodflix.app" {
		t.Fatalf("allow origin = %q", got)
	}
	if !called {
		t.Fatal("expected handler to run")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin for foreign site: %q", got)
	}
}

func TestWithCORSPreflight(t *testing.T) {
	h := WithCORS(nil, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("preflight must not reach handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/favorites/550", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}
