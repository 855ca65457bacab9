package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"moodflix/pkg/domain"
)

type countingCatalog struct {
	details   int
	providers int
	discover  int
}

func (c *countingCatalog) Discover(context.Context, []string) ([]domain.Movie, error) {
	c.discover++
	return []domain.Movie{{ID: 1, Title: "A"}}, nil
}

func (c *countingCatalog) MovieDetails(_ context.Context, id int64) (domain.MovieDetail, error) {
	c.details++
	if id == 404 {
		return domain.MovieDetail{}, ErrNotFound
	}
	return domain.MovieDetail{
		Movie:     domain.Movie{ID: id, Title: "Fight Club", VoteAverage: 8.4},
		Directors: []string{"David Fincher"},
		Genres:    []domain.Genre{{ID: 18, Name: "Drama"}},
		Cast:      []domain.CastMember{{Name: "Edward Norton"}},
	}, nil
}

func (c *countingCatalog) WatchProviders(context.Context, int64) ([]domain.Provider, error) {
	c.providers++
	return []domain.Provider{{ID: 8, Name: "Netflix"}}, nil
}

func newTestCache(t *testing.T) (*RedisCache, *countingCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	next := &countingCatalog{}
	return NewRedisCache(next, client, time.Hour, "tr-TR:TR"), next, mr
}

func TestRedisCacheServesDetailsFromCache(t *testing.T) {
	cache, next, _ := newTestCache(t)
	ctx := context.Background()

	first, err := cache.MovieDetails(ctx, 550)
	if err != nil {
		t.Fatalf("first details: %v", err)
	}
	second, err := cache.MovieDetails(ctx, 550)
	if err != nil {
		t.Fatalf("second details: %v", err)
	}
	if next.details != 1 {
		t.Fatalf("expected one upstream call, got %d", next.details)
	}
	if second.Title != first.Title || second.ID != 550 || len(second.Directors) != 1 || second.Genres[0].Name != "Drama" {
		t.Fatalf("cached detail differs: %+v", second)
	}
}

func TestRedisCacheExpires(t *testing.T) {
	cache, next, mr := newTestCache(t)
	ctx := context.Background()

	_, _ = cache.WatchProviders(ctx, 550)
	_, _ = cache.WatchProviders(ctx, 550)
	if next.providers != 1 {
		t.Fatalf("expected one upstream call, got %d", next.providers)
	}
	mr.FastForward(2 * time.Hour)
	providers, err := cache.WatchProviders(ctx, 550)
	if err != nil || len(providers) != 1 {
		t.Fatalf("unexpected providers %v %v", providers, err)
	}
	if next.providers != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", next.providers)
	}
}

func TestRedisCacheDoesNotCacheErrorsOrDiscover(t *testing.T) {
	cache, next, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cache.MovieDetails(ctx, 404); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		_, _ = cache.Discover(ctx, []string{"drama"})
	}
	if next.details != 2 || next.discover != 2 {
		t.Fatalf("expected pass-through calls, got details=%d discover=%d", next.details, next.discover)
	}
}

func TestRedisCacheFallsBackWhenRedisDown(t *testing.T) {
	cache, next, mr := newTestCache(t)
	mr.Close()

	d, err := cache.MovieDetails(context.Background(), 550)
	if err != nil || d.ID != 550 {
		t.Fatalf("expected upstream result, got %+v %v", d, err)
	}
	if next.details != 1 {
		t.Fatalf("expected upstream call, got %d", next.details)
	}
}
