package lists

import (
	"context"

	"movielist/internal/store"
)

// Store describes the persistence operations required by list workflows.
type Store interface {
	IsMember(ctx context.Context, kind store.ListKind, userID, movieID int64) (bool, error)
	Toggle(ctx context.Context, kind store.ListKind, userID, movieID int64) (store.ToggleResult, error)
	RemoveFromAllLists(ctx context.Context, userID, movieID int64) (bool, error)
	MovieStatuses(ctx context.Context, userID int64) (store.ListStatuses, error)
	Library(ctx context.Context, userID int64) (store.Library, error)
}

// Service exposes the per-user list workflows.
type Service interface {
	IsMember(ctx context.Context, kind store.ListKind, userID, movieID int64) (bool, error)
	Toggle(ctx context.Context, kind store.ListKind, userID, movieID int64) (store.ToggleResult, error)
	Remove(ctx context.Context, userID, movieID int64) (bool, error)
	Statuses(ctx context.Context, userID int64) (store.ListStatuses, error)
	Library(ctx context.Context, userID int64) (store.Library, error)
}

type service struct {
	store Store
}

// New constructs a lists Service backed by the given store.
func New(st Store) Service {
	return &service{store: st}
}

func (s *service) IsMember(ctx context.Context, kind store.ListKind, userID, movieID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.IsMember(ctx, kind, userID, movieID)
}

func (s *service) Toggle(ctx context.Context, kind store.ListKind, userID, movieID int64) (store.ToggleResult, error) {
	if err := ctx.Err(); err != nil {
		return store.ToggleResult{}, err
	}
	return s.store.Toggle(ctx, kind, userID, movieID)
}

func (s *service) Remove(ctx context.Context, userID, movieID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.RemoveFromAllLists(ctx, userID, movieID)
}

func (s *service) Statuses(ctx context.Context, userID int64) (store.ListStatuses, error) {
	if err := ctx.Err(); err != nil {
		return store.ListStatuses{}, err
	}
	return s.store.MovieStatuses(ctx, userID)
}

func (s *service) Library(ctx context.Context, userID int64) (store.Library, error) {
	if err := ctx.Err(); err != nil {
		return store.Library{}, err
	}
	return s.store.Library(ctx, userID)
}
