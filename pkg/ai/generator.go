package ai

import (
	"context"
	"time"
)

// TextGenerator generates text from a system prompt and user prompt.
// All LLM providers (Gemini, Ollama, OpenAI-compatible) implement this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options are shared by every provider client.
type Options struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	// JSONOutput asks the provider to answer with a single JSON object.
	JSONOutput bool
}

func (o Options) timeout(fallback time.Duration) time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return fallback
}
