package ai

import "context"

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiGenerator wraps GeminiClient with a fixed model for text generation.
type GeminiGenerator struct {
	client     *GeminiClient
	model      string
	jsonOutput bool
}

// NewGeminiGenerator builds a Gemini-based TextGenerator.
func NewGeminiGenerator(client *GeminiClient, opts Options) *GeminiGenerator {
	model := opts.Model
	if normalizeModel(model) == "" {
		model = defaultGeminiModel
	}
	return &GeminiGenerator{client: client, model: model, jsonOutput: opts.JSONOutput}
}

// GenerateText implements TextGenerator using Gemini.
func (g *GeminiGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.client.GenerateText(ctx, g.model, systemPrompt, userPrompt, g.jsonOutput)
}
