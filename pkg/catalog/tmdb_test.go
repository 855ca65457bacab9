package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moodflix/internal/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *TMDBClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewTMDBClient(Config{APIKey: "tmdb-key", BaseURL: srv.URL + "/3"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestDiscoverBuildsQueryAndMapsMovies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/discover/movie" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "tmdb-key" || q.Get("language") != "tr-TR" || q.Get("sort_by") != "popularity.desc" || q.Get("page") != "1" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("with_genres") != "35,10749" {
			t.Errorf("unexpected with_genres %q", q.Get("with_genres"))
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[
			{"id":1,"title":"A","overview":"o","poster_path":"/a.jpg","vote_average":7.1,"genre_ids":[35]},
			{"id":2,"title":"B","poster_path":null,"vote_average":8.4}
		]}`))
	})

	movies, err := c.Discover(context.Background(), []string{"Comedy", "romantik", "komedi", "Unknown"})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(movies))
	}
	if movies[0].PosterURL != "https://image.tmdb.org/t/p/w500/a.jpg" {
		t.Fatalf("unexpected poster url %q", movies[0].PosterURL)
	}
	if movies[1].PosterURL != "" || movies[1].VoteAverage != 8.4 {
		t.Fatalf("unexpected second movie %+v", movies[1])
	}
}

func TestDiscoverWithoutKnownGenresOmitsFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["with_genres"]; ok {
			t.Errorf("expected no with_genres parameter")
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	movies, err := c.Discover(context.Background(), []string{"nonsense"})
	if err != nil || len(movies) != 0 {
		t.Fatalf("unexpected result: %v %v", movies, err)
	}
}

func TestMovieDetailsMapsCredits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/movie/550" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("append_to_response") != "credits" {
			t.Errorf("expected credits to be appended")
		}
		_, _ = w.Write([]byte(`{"id":550,"title":"Fight Club","runtime":139,"vote_average":8.4,
			"genres":[{"id":18,"name":"Dram"}],
			"credits":{"cast":[{"name":"Edward Norton","character":"Narrator","profile_path":"/en.jpg"},{"name":"Brad Pitt","character":"Tyler"}],
			"crew":[{"name":"David Fincher","job":"Director"},{"name":"Jim Uhls","job":"Screenplay"}]}}`))
	})

	d, err := c.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.Title != "Fight Club" || d.Runtime != 139 {
		t.Fatalf("unexpected detail %+v", d)
	}
	if len(d.Directors) != 1 || d.Directors[0] != "David Fincher" {
		t.Fatalf("unexpected directors %v", d.Directors)
	}
	if len(d.Cast) != 2 || d.Cast[0].PhotoURL != "https://image.tmdb.org/t/p/w185/en.jpg" || d.Cast[1].PhotoURL != "" {
		t.Fatalf("unexpected cast %+v", d.Cast)
	}
	if len(d.GenreIDs) != 1 || d.GenreIDs[0] != 18 {
		t.Fatalf("unexpected genre ids %v", d.GenreIDs)
	}
}

func TestMovieDetailsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	})
	for i := 0; i < 10; i++ {
		if _, err := c.MovieDetails(context.Background(), 999); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
}

func TestWatchProvidersUsesRegionFlatrate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/movie/550/watch/providers" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":550,"results":{
			"TR":{"flatrate":[{"provider_id":8,"provider_name":"Netflix","logo_path":"/n.png"}],"rent":[{"provider_id":2,"provider_name":"Apple TV"}]},
			"US":{"flatrate":[{"provider_id":9,"provider_name":"Prime Video"}]}}}`))
	})
	providers, err := c.WatchProviders(context.Background(), 550)
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	if len(providers) != 1 || providers[0].Name != "Netflix" || providers[0].LogoURL != "https://image.tmdb.org/t/p/w92/n.png" {
		t.Fatalf("unexpected providers %+v", providers)
	}
}

func TestWatchProvidersMissingRegionIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"results":{}}`))
	})
	providers, err := c.WatchProviders(context.Background(), 1)
	if err != nil || len(providers) != 0 {
		t.Fatalf("unexpected result %v %v", providers, err)
	}
}

func TestUpstreamErrorsDoNotLeakKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_message":"Invalid API key"}`))
	})
	_, err := c.Discover(context.Background(), []string{"drama"})
	if err == nil || !strings.Contains(err.Error(), "Invalid API key") {
		t.Fatalf("expected api error, got %v", err)
	}
	if strings.Contains(err.Error(), "tmdb-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestBreakerOpensOnRepeatedFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c, err := NewTMDBClient(Config{APIKey: "k", BaseURL: srv.URL, Breaker: resilience.Settings{MinRequests: 2, FailureRatio: 0.5}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	for i := 0; i < 2; i++ {
		_, _ = c.Discover(context.Background(), []string{"drama"})
	}
	_, err = c.Discover(context.Background(), []string{"drama"})
	if !resilience.IsRejected(err) {
		t.Fatalf("expected breaker rejection, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls)
	}
}

func TestNewTMDBClientRequiresKey(t *testing.T) {
	if _, err := NewTMDBClient(Config{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
