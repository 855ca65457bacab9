// Package catalog talks to the TMDB movie database.
package catalog

import (
	"context"
	"errors"

	"moodflix/pkg/domain"
)

// ErrNotFound is returned when the catalog has no movie with the given id.
var ErrNotFound = errors.New("catalog: movie not found")

// Catalog is the read side of the movie database.
type Catalog interface {
	// Discover returns popular movies for the genre names, catalog order.
	Discover(ctx context.Context, genres []string) ([]domain.Movie, error)
	MovieDetails(ctx context.Context, id int64) (domain.MovieDetail, error)
	// WatchProviders returns subscription offers in the configured region.
	WatchProviders(ctx context.Context, id int64) ([]domain.Provider, error)
}
