package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"moodflix/internal/util"
	"moodflix/pkg/domain"
)

// FavoriteMovie is a favorite joined with its catalog details.
type FavoriteMovie struct {
	domain.MovieDetail
	AddedAt time.Time `json:"addedAt"`
}

// AddFavorite marks an existing movie as a favorite.
func (a *App) AddFavorite(ctx context.Context, user domain.User, movieID int64) error {
	if _, err := a.catalog.MovieDetails(ctx, movieID); err != nil {
		return catalogError("fetch movie details", err)
	}
	added, err := a.store.AddFavorite(domain.Favorite{
		UserID:    user.ID,
		MovieID:   movieID,
		CreatedAt: a.nowUTC(),
	})
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	if !added {
		return ErrAlreadyFavorite
	}
	return nil
}

// RemoveFavorite is idempotent.
func (a *App) RemoveFavorite(user domain.User, movieID int64) error {
	if err := a.store.RemoveFavorite(user.ID, movieID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// ListFavorites returns favorites newest first with catalog details. Movies
// whose details cannot be fetched are skipped; a cancelled context aborts the
// listing.
func (a *App) ListFavorites(ctx context.Context, user domain.User) ([]FavoriteMovie, error) {
	favs, err := a.store.ListFavorites(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	logger := util.LoggerFromContext(ctx)
	slots := make([]*FavoriteMovie, len(favs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, fav := range favs {
		g.Go(func() error {
			detail, err := a.catalog.MovieDetails(gctx, fav.MovieID)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("skip favorite without details", "movie_id", fav.MovieID, "err", err)
				return nil
			}
			slots[i] = &FavoriteMovie{MovieDetail: detail, AddedAt: fav.CreatedAt}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]FavoriteMovie, 0, len(favs))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}
