package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"moodflix/internal/metrics"
	"moodflix/internal/util"
	"moodflix/pkg/domain"
)

// RecommendResult is the answer to one mood description.
type RecommendResult struct {
	Top         domain.Movie        `json:"top"`
	Others      []domain.Movie      `json:"others"`
	Analysis    domain.MoodAnalysis `json:"analysis"`
	FromHistory bool                `json:"fromHistory"`
}

// Recommend analyzes text, or the user's past questions when text is blank,
// and discovers matching movies. Only explicit questions are saved to history.
func (a *App) Recommend(ctx context.Context, user domain.User, text string) (res RecommendResult, err error) {
	text = strings.TrimSpace(text)
	fromHistory := text == ""
	source := "input"
	if fromHistory {
		source = "history"
	}
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = recommendOutcome(err)
		}
		metrics.Recommendations.WithLabelValues(source, outcome).Inc()
	}()

	query := text
	if fromHistory {
		query, err = a.historyText(user.ID)
		if err != nil {
			return RecommendResult{}, err
		}
	}

	analysis := a.analyzer.Analyze(ctx, query)
	if analysis.Empty() {
		return RecommendResult{}, ErrMoodNotUnderstood
	}

	movies, err := a.catalog.Discover(ctx, analysis.Genres)
	if err != nil {
		return RecommendResult{}, fmt.Errorf("discover movies: %w: %w", ErrCatalogUnavailable, err)
	}
	if len(movies) == 0 {
		return RecommendResult{}, ErrNoMoviesFound
	}

	if !fromHistory {
		now := a.nowUTC()
		recs := make([]domain.Recommendation, 0, len(movies))
		for _, m := range movies {
			recs = append(recs, domain.Recommendation{
				ID:         util.NewID(),
				UserID:     user.ID,
				Question:   text,
				MovieTitle: m.Title,
				MovieID:    m.ID,
				Genres:     analysis.Genres,
				CreatedAt:  now,
			})
		}
		if err := a.store.SaveRecommendations(recs); err != nil {
			return RecommendResult{}, fmt.Errorf("save recommendations: %w", err)
		}
	}

	top := 0
	for i := 1; i < len(movies); i++ {
		if movies[i].VoteAverage > movies[top].VoteAverage {
			top = i
		}
	}
	others := make([]domain.Movie, 0, len(movies)-1)
	others = append(others, movies[:top]...)
	others = append(others, movies[top+1:]...)

	return RecommendResult{
		Top:         movies[top],
		Others:      others,
		Analysis:    analysis,
		FromHistory: fromHistory,
	}, nil
}

// historyText joins the user's distinct past questions, newest first.
func (a *App) historyText(userID string) (string, error) {
	recs, err := a.store.ListRecommendations(userID)
	if err != nil {
		return "", fmt.Errorf("list recommendations: %w", err)
	}
	seen := make(map[string]struct{}, len(recs))
	questions := make([]string, 0, len(recs))
	for _, r := range recs {
		q := strings.TrimSpace(r.Question)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return "", ErrNoHistory
	}
	return strings.Join(questions, " "), nil
}

func recommendOutcome(err error) string {
	switch {
	case errors.Is(err, ErrNoHistory):
		return "no_history"
	case errors.Is(err, ErrMoodNotUnderstood):
		return "not_understood"
	case errors.Is(err, ErrNoMoviesFound):
		return "no_movies"
	case errors.Is(err, ErrCatalogUnavailable):
		return "catalog_unavailable"
	default:
		return "error"
	}
}
