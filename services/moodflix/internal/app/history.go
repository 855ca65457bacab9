package app

import (
	"fmt"

	"moodflix/pkg/domain"
)

// History groups the user's recommendations by question. Groups and their
// entries are newest first.
func (a *App) History(user domain.User) ([]domain.HistoryGroup, error) {
	recs, err := a.store.ListRecommendations(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	groups := make([]domain.HistoryGroup, 0)
	index := make(map[string]int)
	for _, r := range recs {
		i, ok := index[r.Question]
		if !ok {
			i = len(groups)
			index[r.Question] = i
			groups = append(groups, domain.HistoryGroup{Question: r.Question, LatestAt: r.CreatedAt})
		}
		groups[i].Movies = append(groups[i].Movies, domain.HistoryEntry{
			Title:     r.MovieTitle,
			MovieID:   r.MovieID,
			Timestamp: r.CreatedAt,
		})
	}
	return groups, nil
}
