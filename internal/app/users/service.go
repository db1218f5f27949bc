package users

import (
	"context"

	"movielist/internal/store"
)

// Store describes the persistence operations required by the user service.
type Store interface {
	Register(ctx context.Context, username, email, password string) (store.User, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	UserByToken(ctx context.Context, token string) (store.User, error)
	DeleteSession(ctx context.Context, token string) error
	UserByID(ctx context.Context, id int64) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
}

// Service exposes account and session workflows.
type Service interface {
	Register(ctx context.Context, username, email, password string) (store.User, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	UserByToken(ctx context.Context, token string) (store.User, error)
	Signout(ctx context.Context, token string) error
	Profile(ctx context.Context, userID int64) (store.User, error)
	Community(ctx context.Context) ([]store.User, error)
}

type service struct {
	store Store
}

// New constructs a users Service backed by the given store.
func New(st Store) Service {
	return &service{store: st}
}

func (s *service) Register(ctx context.Context, username, email, password string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.Register(ctx, username, email, password)
}

func (s *service) Authenticate(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.store.Authenticate(ctx, email, password)
}

func (s *service) UserByToken(ctx context.Context, token string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.UserByToken(ctx, token)
}

func (s *service) Signout(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, token)
}

func (s *service) Profile(ctx context.Context, userID int64) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.UserByID(ctx, userID)
}

func (s *service) Community(ctx context.Context) ([]store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}
