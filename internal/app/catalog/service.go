package catalog

import (
	"context"
	"strings"

	"movielist/internal/store"
)

const (
	defaultPerGenre     = 5
	defaultTopLimit     = 50
	defaultSimilarCount = 4
)

// Store describes the persistence operations required by catalog workflows.
type Store interface {
	GroupedByGenre(ctx context.Context, perGenre int) ([]store.GenreMovies, error)
	MoviesByGenre(ctx context.Context, genreID int64) (store.Genre, []store.Movie, error)
	SearchByTitle(ctx context.Context, query string) ([]store.Movie, error)
	TopMovies(ctx context.Context, limit int) ([]store.Movie, error)
	SimilarMovies(ctx context.Context, movieID int64, limit int) ([]store.Movie, error)
	MovieByID(ctx context.Context, id int64) (store.MovieDetail, error)
}

// Service exposes the catalog browse and search workflows.
type Service interface {
	Home(ctx context.Context) ([]store.GenreMovies, error)
	Genre(ctx context.Context, genreID int64) (store.Genre, []store.Movie, error)
	Search(ctx context.Context, query string) ([]store.Movie, error)
	Top(ctx context.Context) ([]store.Movie, error)
	Movie(ctx context.Context, id int64) (store.MovieDetail, []store.Movie, error)
}

type service struct {
	store Store
}

// New constructs a catalog Service backed by the given store.
func New(st Store) Service {
	return &service{store: st}
}

func (s *service) Home(ctx context.Context) ([]store.GenreMovies, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GroupedByGenre(ctx, defaultPerGenre)
}

func (s *service) Genre(ctx context.Context, genreID int64) (store.Genre, []store.Movie, error) {
	if err := ctx.Err(); err != nil {
		return store.Genre{}, nil, err
	}
	return s.store.MoviesByGenre(ctx, genreID)
}

func (s *service) Search(ctx context.Context, query string) ([]store.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.SearchByTitle(ctx, strings.TrimSpace(query))
}

func (s *service) Top(ctx context.Context) ([]store.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.TopMovies(ctx, defaultTopLimit)
}

// Movie returns the detail view along with its similar-movies block.
func (s *service) Movie(ctx context.Context, id int64) (store.MovieDetail, []store.Movie, error) {
	if err := ctx.Err(); err != nil {
		return store.MovieDetail{}, nil, err
	}

	detail, err := s.store.MovieByID(ctx, id)
	if err != nil {
		return store.MovieDetail{}, nil, err
	}

	similar, err := s.store.SimilarMovies(ctx, id, defaultSimilarCount)
	if err != nil {
		return store.MovieDetail{}, nil, err
	}

	return detail, similar, nil
}
