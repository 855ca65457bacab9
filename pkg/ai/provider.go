package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moodflix/internal/resilience"
)

// ProviderConfig selects and configures one LLM backend.
type ProviderConfig struct {
	Provider string // gemini | ollama | openai
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewTextGenerator builds the configured provider, asking for JSON output.
func NewTextGenerator(cfg ProviderConfig) (TextGenerator, error) {
	opts := Options{
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Timeout:    cfg.Timeout,
		JSONOutput: true,
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		client, err := NewGeminiClient(cfg.APIKey, opts)
		if err != nil {
			return nil, err
		}
		return NewGeminiGenerator(client, opts), nil
	case "ollama":
		return NewOllamaGenerator(NewOllamaClient(opts), opts), nil
	case "openai", "openai-compat":
		return NewOpenAICompatGenerator(cfg.APIKey, opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// BreakerGenerator fails fast once the provider keeps failing.
type BreakerGenerator struct {
	next    TextGenerator
	breaker *resilience.Breaker[string]
}

// WithBreaker wraps g in a circuit breaker.
func WithBreaker(g TextGenerator, s resilience.Settings) *BreakerGenerator {
	s.Expected = append(s.Expected, context.Canceled)
	return &BreakerGenerator{next: g, breaker: resilience.NewBreaker[string]("llm", s)}
}

// GenerateText implements TextGenerator.
func (b *BreakerGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return b.breaker.Execute("generate", func() (string, error) {
		return b.next.GenerateText(ctx, systemPrompt, userPrompt)
	})
}
