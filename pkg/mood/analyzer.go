// Package mood turns a free-text mood description into catalog genres and
// keywords using a language model.
package mood

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"moodflix/internal/util"
	"moodflix/pkg/ai"
	"moodflix/pkg/domain"
)

// AllowedGenres are the genre names the model may answer with.
var AllowedGenres = []string{"Action", "Comedy", "Drama", "Horror", "Science Fiction", "Romance", "Adventure"}

const systemPrompt = `You help a movie recommendation service. Read the user's description of what they feel like watching and answer with a single JSON object, nothing else.
The object must have exactly two keys:
- "genres": a list chosen only from: %s.
- "keywords": a list of short themes or topics that matter in the text.
Use empty lists when nothing fits.`

// Analyzer extracts a MoodAnalysis from text.
type Analyzer struct {
	gen    ai.TextGenerator
	prompt string
}

// NewAnalyzer builds an analyzer backed by gen.
func NewAnalyzer(gen ai.TextGenerator) *Analyzer {
	return &Analyzer{
		gen:    gen,
		prompt: fmt.Sprintf(systemPrompt, strings.Join(AllowedGenres, ", ")),
	}
}

// Analyze never fails: generator and parse errors are logged and yield an
// empty analysis.
func (a *Analyzer) Analyze(ctx context.Context, text string) domain.MoodAnalysis {
	logger := util.LoggerFromContext(ctx)
	raw, err := a.gen.GenerateText(ctx, a.prompt, "User input: "+strings.TrimSpace(text))
	if err != nil {
		logger.Warn("mood analysis failed", "err", err)
		return domain.MoodAnalysis{Genres: []string{}, Keywords: []string{}}
	}
	analysis, err := Parse(raw)
	if err != nil {
		logger.Warn("mood analysis unparseable", "err", err, "response", truncate(raw, 512))
		return domain.MoodAnalysis{Genres: []string{}, Keywords: []string{}}
	}
	logger.Debug("mood analysis", "genres", analysis.Genres, "keywords", analysis.Keywords)
	return analysis
}

var (
	errNotObject      = errors.New("response is not a json object")
	errMissingKeys    = errors.New("response lacks genres/keywords")
	errNotStringArray = errors.New("value is not a list of strings")
)

// key pairs accepted in model output; the second pair is the older Turkish one.
var keySets = [][2]string{
	{"genres", "keywords"},
	{"turler", "anahtar_kelimeler"},
}

// Parse decodes a model response. Markdown code fences are ignored.
func Parse(raw string) (domain.MoodAnalysis, error) {
	cleaned := stripFences(raw)
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return domain.MoodAnalysis{}, fmt.Errorf("%w: %v", errNotObject, err)
	}
	if obj == nil {
		return domain.MoodAnalysis{}, errNotObject
	}
	for _, keys := range keySets {
		genresRaw, okG := obj[keys[0]]
		keywordsRaw, okK := obj[keys[1]]
		if !okG || !okK {
			continue
		}
		genres, err := decodeStrings(genresRaw)
		if err != nil {
			return domain.MoodAnalysis{}, fmt.Errorf("%s: %w", keys[0], err)
		}
		keywords, err := decodeStrings(keywordsRaw)
		if err != nil {
			return domain.MoodAnalysis{}, fmt.Errorf("%s: %w", keys[1], err)
		}
		return domain.MoodAnalysis{Genres: genres, Keywords: keywords}, nil
	}
	return domain.MoodAnalysis{}, errMissingKeys
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "```") {
		return s
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// decodeStrings accepts a list of strings (or null) and returns the trimmed,
// non-empty, case-insensitively unique values in order.
func decodeStrings(raw json.RawMessage) ([]string, error) {
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errNotStringArray
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
