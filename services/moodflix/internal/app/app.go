package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moodflix/pkg/catalog"
	"moodflix/pkg/domain"
	"moodflix/pkg/store"
)

// MoodAnalyzer turns free text into genres and keywords. It never fails; an
// empty analysis means the text was not understood.
type MoodAnalyzer interface {
	Analyze(ctx context.Context, text string) domain.MoodAnalysis
}

// Config holds runtime dependencies for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Sessions    store.SessionStore
	Catalog     catalog.Catalog
	Analyzer    MoodAnalyzer
	Resets      *ResetStore
	Mail        MailDispatcher
	// Location renders comment times; defaults to UTC.
	Location *time.Location
	// FetchConcurrency bounds parallel catalog calls; defaults to 4.
	FetchConcurrency int
	Now              func() time.Time
}

// App is the core application service wiring storage, the catalog and the
// mood analyzer together.
type App struct {
	store       store.Store
	sessions    store.SessionStore
	catalog     catalog.Catalog
	analyzer    MoodAnalyzer
	resets      *ResetStore
	mail        MailDispatcher
	location    *time.Location
	concurrency int
	now         func() time.Time
}

// New constructs the application. Without an injected store it connects to
// Postgres at DatabaseURL.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("mood analyzer required")
	}
	if cfg.Resets == nil {
		return nil, fmt.Errorf("reset store required")
	}
	if cfg.Mail == nil {
		return nil, fmt.Errorf("mail dispatcher required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	concurrency := cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		store:       dataStore,
		sessions:    cfg.Sessions,
		catalog:     cfg.Catalog,
		analyzer:    cfg.Analyzer,
		resets:      cfg.Resets,
		mail:        cfg.Mail,
		location:    loc,
		concurrency: concurrency,
		now:         now,
	}, nil
}

func (a *App) nowUTC() time.Time {
	return a.now().UTC()
}

// catalogError maps catalog failures to app errors.
func catalogError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return ErrMovieNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, ErrCatalogUnavailable, err)
}
