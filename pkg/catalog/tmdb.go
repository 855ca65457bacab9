package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"moodflix/internal/resilience"
	"moodflix/pkg/domain"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultLanguage = "tr-TR"
	defaultRegion   = "TR"
	posterBaseURL   = "https://image.tmdb.org/t/p/w500"
	profileBaseURL  = "https://image.tmdb.org/t/p/w185"
	logoBaseURL     = "https://image.tmdb.org/t/p/w92"
	maxCast         = 10
)

// Config configures the TMDB client.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Region   string
	Timeout  time.Duration
	Breaker  resilience.Settings
}

// TMDBClient calls the TMDB v3 REST API with api_key query auth.
type TMDBClient struct {
	apiKey     string
	baseURL    string
	language   string
	region     string
	httpClient *http.Client
	breaker    *resilience.Breaker[[]byte]
}

// NewTMDBClient validates cfg and builds a client.
func NewTMDBClient(cfg Config) (*TMDBClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("tmdb api key required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = defaultLanguage
	}
	region := strings.ToUpper(strings.TrimSpace(cfg.Region))
	if region == "" {
		region = defaultRegion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	settings := cfg.Breaker
	settings.Expected = append(settings.Expected, ErrNotFound, context.Canceled)
	return &TMDBClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		language:   language,
		region:     region,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    resilience.NewBreaker[[]byte]("tmdb", settings),
	}, nil
}

// Language is the response language sent to TMDB.
func (c *TMDBClient) Language() string { return c.language }

// Discover queries /discover/movie sorted by popularity. Names that map to no
// genre are dropped; when none remain the query runs without a genre filter.
func (c *TMDBClient) Discover(ctx context.Context, genres []string) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("sort_by", "popularity.desc")
	q.Set("page", "1")
	if ids := GenreIDs(genres); len(ids) > 0 {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.Itoa(id)
		}
		q.Set("with_genres", strings.Join(parts, ","))
	}
	var resp discoverResponse
	if err := c.get(ctx, "discover", "/discover/movie", q, &resp); err != nil {
		return nil, err
	}
	movies := make([]domain.Movie, 0, len(resp.Results))
	for _, m := range resp.Results {
		movies = append(movies, m.toDomain())
	}
	return movies, nil
}

// MovieDetails fetches /movie/{id} with credits appended.
func (c *TMDBClient) MovieDetails(ctx context.Context, id int64) (domain.MovieDetail, error) {
	if id <= 0 {
		return domain.MovieDetail{}, ErrNotFound
	}
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("append_to_response", "credits")
	var resp detailResponse
	if err := c.get(ctx, "details", "/movie/"+strconv.FormatInt(id, 10), q, &resp); err != nil {
		return domain.MovieDetail{}, err
	}
	return resp.toDomain(), nil
}

// WatchProviders returns the flatrate (subscription) offers for the region.
func (c *TMDBClient) WatchProviders(ctx context.Context, id int64) ([]domain.Provider, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	var resp providersResponse
	if err := c.get(ctx, "providers", "/movie/"+strconv.FormatInt(id, 10)+"/watch/providers", url.Values{}, &resp); err != nil {
		return nil, err
	}
	offers := resp.Results[c.region].Flatrate
	out := make([]domain.Provider, 0, len(offers))
	for _, p := range offers {
		out = append(out, domain.Provider{
			ID:      p.ProviderID,
			Name:    p.ProviderName,
			LogoURL: imageURL(logoBaseURL, p.LogoPath),
		})
	}
	return out, nil
}

func (c *TMDBClient) get(ctx context.Context, operation, path string, q url.Values, out any) error {
	q.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + q.Encode()
	body, err := c.breaker.Execute(operation, func() ([]byte, error) {
		return c.fetch(ctx, endpoint)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tmdb %s decode: %w", operation, err)
	}
	return nil
}

func (c *TMDBClient) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// transport errors quote the URL, which carries the key
		return nil, fmt.Errorf("tmdb request: %s", strings.ReplaceAll(err.Error(), c.apiKey, "REDACTED"))
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var errResp tmdbError
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.StatusMessage != "" {
			return nil, fmt.Errorf("tmdb api error: %s (%s)", errResp.StatusMessage, resp.Status)
		}
		return nil, fmt.Errorf("tmdb api error: %s", resp.Status)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("tmdb read: %w", err)
	}
	return raw, nil
}

func imageURL(base, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return base + path
}

type tmdbError struct {
	StatusMessage string `json:"status_message"`
}

type movieResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids"`
}

func (m movieResult) toDomain() domain.Movie {
	return domain.Movie{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		PosterURL:   imageURL(posterBaseURL, m.PosterPath),
		VoteAverage: m.VoteAverage,
		VoteCount:   m.VoteCount,
		Popularity:  m.Popularity,
		GenreIDs:    m.GenreIDs,
	}
}

type discoverResponse struct {
	Results []movieResult `json:"results"`
}

type detailResponse struct {
	movieResult
	Tagline  string         `json:"tagline"`
	Runtime  int            `json:"runtime"`
	Homepage string         `json:"homepage"`
	Genres   []domain.Genre `json:"genres"`
	Credits  struct {
		Cast []struct {
			Name        string `json:"name"`
			Character   string `json:"character"`
			ProfilePath string `json:"profile_path"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

func (d detailResponse) toDomain() domain.MovieDetail {
	out := domain.MovieDetail{
		Movie:    d.movieResult.toDomain(),
		Tagline:  d.Tagline,
		Runtime:  d.Runtime,
		Homepage: d.Homepage,
		Genres:   d.Genres,
		Cast:     make([]domain.CastMember, 0, min(len(d.Credits.Cast), maxCast)),
	}
	if out.Genres == nil {
		out.Genres = []domain.Genre{}
	}
	out.GenreIDs = make([]int, 0, len(d.Genres))
	for _, g := range d.Genres {
		out.GenreIDs = append(out.GenreIDs, g.ID)
	}
	for i, c := range d.Credits.Cast {
		if i == maxCast {
			break
		}
		out.Cast = append(out.Cast, domain.CastMember{
			Name:      c.Name,
			Character: c.Character,
			PhotoURL:  imageURL(profileBaseURL, c.ProfilePath),
		})
	}
	for _, c := range d.Credits.Crew {
		if c.Job == "Director" {
			out.Directors = append(out.Directors, c.Name)
		}
	}
	return out
}

type providersResponse struct {
	Results map[string]struct {
		Flatrate []struct {
			ProviderID   int    `json:"provider_id"`
			ProviderName string `json:"provider_name"`
			LogoPath     string `json:"logo_path"`
		} `json:"flatrate"`
	} `json:"results"`
}
