package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"moodflix/internal/resilience"
)

func TestGeminiGeneratorSendsPromptAndJSONMode(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected api key in query")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"genres\":"},{"text":"[]}"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient("test-key", Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	gen := NewGeminiGenerator(client, Options{JSONOutput: true})
	text, err := gen.GenerateText(context.Background(), "system", "user text")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"genres":[]}` {
		t.Fatalf("expected joined parts, got %q", text)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "system" {
		t.Fatalf("expected system instruction, got %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 1 || got.Contents[0].Parts[0].Text != "user text" {
		t.Fatalf("unexpected contents: %+v", got.Contents)
	}
	if got.GenerationConfig == nil || got.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("expected json response mime type")
	}
}

func TestGeminiClientReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	client, _ := NewGeminiClient("bad", Options{BaseURL: srv.URL})
	_, err := NewGeminiGenerator(client, Options{}).GenerateText(context.Background(), "", "hi")
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("expected api error message, got %v", err)
	}
}

func TestGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient("  ", Options{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestOllamaGeneratorUsesChatEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3" || req.Format != "json" || req.Stream {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("expected system + user messages, got %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok"}}`))
	}))
	defer srv.Close()

	opts := Options{BaseURL: srv.URL, Model: "llama3", JSONOutput: true}
	text, err := NewOllamaGenerator(NewOllamaClient(opts), opts).GenerateText(context.Background(), "sys", "user")
	if err != nil || text != "ok" {
		t.Fatalf("unexpected result: text=%q err=%v", text, err)
	}
}

func TestOpenAICompatGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("expected bearer auth")
		}
		var req oaiChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response format")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {} "}}]}`))
	}))
	defer srv.Close()

	gen := NewOpenAICompatGenerator("sk-test", Options{BaseURL: srv.URL + "/v1/", Model: "gpt-4o-mini", JSONOutput: true})
	text, err := gen.GenerateText(context.Background(), "sys", "user")
	if err != nil || text != "{}" {
		t.Fatalf("unexpected result: text=%q err=%v", text, err)
	}
}

func TestNewTextGeneratorSelectsProvider(t *testing.T) {
	cases := []struct {
		cfg     ProviderConfig
		wantErr bool
		check   func(TextGenerator) bool
	}{
		{cfg: ProviderConfig{Provider: "gemini", APIKey: "k"}, check: func(g TextGenerator) bool { _, ok := g.(*GeminiGenerator); return ok }},
		{cfg: ProviderConfig{Provider: "gemini"}, wantErr: true},
		{cfg: ProviderConfig{Provider: "ollama", Model: "llama3"}, check: func(g TextGenerator) bool { _, ok := g.(*OllamaGenerator); return ok }},
		{cfg: ProviderConfig{Provider: "OpenAI", BaseURL: "http://x/v1", Model: "m"}, check: func(g TextGenerator) bool { _, ok := g.(*OpenAICompatGenerator); return ok }},
		{cfg: ProviderConfig{Provider: "claude"}, wantErr: true},
	}
	for _, tc := range cases {
		g, err := NewTextGenerator(tc.cfg)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%+v: expected error", tc.cfg)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%+v: unexpected error %v", tc.cfg, err)
		}
		if !tc.check(g) {
			t.Fatalf("%+v: unexpected generator type %T", tc.cfg, g)
		}
	}
}

type failingGenerator struct{ calls int }

func (f *failingGenerator) GenerateText(context.Context, string, string) (string, error) {
	f.calls++
	return "", errors.New("provider down")
}

func TestBreakerGeneratorFailsFast(t *testing.T) {
	inner := &failingGenerator{}
	gen := WithBreaker(inner, resilience.Settings{MinRequests: 2, FailureRatio: 0.5})

	for i := 0; i < 2; i++ {
		if _, err := gen.GenerateText(context.Background(), "", "x"); err == nil {
			t.Fatalf("expected provider error")
		}
	}
	_, err := gen.GenerateText(context.Background(), "", "x")
	if !resilience.IsRejected(err) {
		t.Fatalf("expected breaker rejection, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", inner.calls)
	}
}
