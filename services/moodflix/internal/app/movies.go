package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"moodflix/internal/util"
	"moodflix/pkg/domain"
)

const commentTimeLayout = "02.01.2006 15:04"

// MovieView is everything the movie page shows.
type MovieView struct {
	Movie      domain.MovieDetail   `json:"movie"`
	Providers  []domain.Provider    `json:"providers"`
	Comments   []domain.CommentView `json:"comments"`
	IsFavorite bool                 `json:"isFavorite"`
}

// MovieDetail loads catalog details, watch providers, comments and the
// favorite flag concurrently. Provider lookup is best effort.
func (a *App) MovieDetail(ctx context.Context, user domain.User, movieID int64) (MovieView, error) {
	var (
		view      MovieView
		providers []domain.Provider
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	g.Go(func() error {
		detail, err := a.catalog.MovieDetails(gctx, movieID)
		if err != nil {
			return catalogError("fetch movie details", err)
		}
		view.Movie = detail
		return nil
	})
	g.Go(func() error {
		list, err := a.catalog.WatchProviders(gctx, movieID)
		if err != nil {
			util.LoggerFromContext(ctx).Warn("watch providers unavailable", "movie_id", movieID, "err", err)
			return nil
		}
		providers = list
		return nil
	})
	g.Go(func() error {
		comments, err := a.ListComments(movieID)
		if err != nil {
			return err
		}
		view.Comments = comments
		return nil
	})
	g.Go(func() error {
		fav, err := a.store.IsFavorite(user.ID, movieID)
		if err != nil {
			return fmt.Errorf("check favorite: %w", err)
		}
		view.IsFavorite = fav
		return nil
	})
	if err := g.Wait(); err != nil {
		return MovieView{}, err
	}
	if providers == nil {
		providers = []domain.Provider{}
	}
	view.Providers = providers
	return view, nil
}

// ListComments returns a movie's comments newest first with display times.
func (a *App) ListComments(movieID int64) ([]domain.CommentView, error) {
	comments, err := a.store.ListComments(movieID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out := make([]domain.CommentView, 0, len(comments))
	for _, c := range comments {
		c.DisplayAt = c.CreatedAt.In(a.location).Format(commentTimeLayout)
		out = append(out, c)
	}
	return out, nil
}

// AddComment stores a sanitized comment on an existing movie.
func (a *App) AddComment(ctx context.Context, user domain.User, movieID int64, text string) (domain.CommentView, error) {
	text, err := validateComment(text)
	if err != nil {
		return domain.CommentView{}, err
	}
	if _, err := a.catalog.MovieDetails(ctx, movieID); err != nil {
		return domain.CommentView{}, catalogError("fetch movie details", err)
	}
	c := domain.Comment{
		ID:        util.NewID(),
		UserID:    user.ID,
		MovieID:   movieID,
		Text:      text,
		CreatedAt: a.nowUTC(),
	}
	if err := a.store.AddComment(c); err != nil {
		return domain.CommentView{}, fmt.Errorf("add comment: %w", err)
	}
	return domain.CommentView{
		ID:        c.ID,
		MovieID:   c.MovieID,
		AuthorID:  user.ID,
		Username:  user.Username,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		DisplayAt: c.CreatedAt.In(a.location).Format(commentTimeLayout),
	}, nil
}
