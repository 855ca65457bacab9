package store

import (
	"testing"
	"time"

	"moodflix/pkg/domain"
)

func TestRecommendationModelsKeepBatchOrder(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	recs := []domain.Recommendation{
		{ID: "f3", UserID: "u1", Question: "cozy", MovieTitle: "Gamma", MovieID: 3, CreatedAt: at},
		{ID: "0a", UserID: "u1", Question: "cozy", MovieTitle: "Alpha", MovieID: 1, CreatedAt: at},
		{ID: "9c", UserID: "u1", Question: "cozy", MovieTitle: "Beta", MovieID: 2, CreatedAt: at},
	}
	models := recommendationModels(recs)
	if len(models) != len(recs) {
		t.Fatalf("expected %d models, got %d", len(recs), len(models))
	}
	for i, m := range models {
		if m.Position != i || m.ID != recs[i].ID {
			t.Fatalf("model %d: got id=%s position=%d", i, m.ID, m.Position)
		}
		if !m.CreatedAt.Equal(at) {
			t.Fatalf("model %d: unexpected created_at %v", i, m.CreatedAt)
		}
	}
}
