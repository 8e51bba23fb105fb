// Package store implements the user, todo and todo list stores on top of
// any domain.Repository backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/query"
)

type UserStore struct {
	repo domain.Repository[domain.User]
}

var _ domain.UserStore = (*UserStore)(nil)

func NewUserStore(repo domain.Repository[domain.User]) *UserStore {
	return &UserStore{repo: repo}
}

func (s *UserStore) All(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx, nil)
}

func (s *UserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrEmptyUserID
	}
	user, err := s.repo.GetSingle(ctx, query.Eq("id", id))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound, id)
	}
	return user, nil
}

// GetByEmail looks the address up in its normalized form.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrInvalidEmail
	}
	user, err := s.repo.GetSingle(ctx, query.Eq("email", email))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound, email)
	}
	return user, nil
}

func (s *UserStore) SearchByKeyword(ctx context.Context, keyword string) ([]domain.User, error) {
	return s.repo.List(ctx, query.Or(
		query.ContainsFold("name", keyword),
		query.ContainsFold("email", keyword),
	))
}

func (s *UserStore) Add(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.InvalidArgument(fmt.Errorf("user is required"))
	}
	return emailTaken(s.repo.Add(ctx, user), user.Email)
}

func (s *UserStore) Update(ctx context.Context, id string, user *domain.User) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrEmptyUserID
	}
	if user == nil {
		return domain.InvalidArgument(fmt.Errorf("user is required"))
	}
	n, err := s.repo.Update(ctx, query.Eq("id", id), user)
	if err != nil {
		return emailTaken(err, user.Email)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrEmptyUserID
	}
	n, err := s.repo.Delete(ctx, query.Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	return nil
}

// emailTaken reports a backend uniqueness violation as a taken address.
func emailTaken(err error, email string) error {
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("%w: %s", domain.ErrEmailTaken, email)
	}
	return err
}

// notFound swaps a repository miss for the entity-specific error.
func notFound(err, specific error, key string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s", specific, key)
	}
	return err
}
