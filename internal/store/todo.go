package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/query"
)

type TodoStore struct {
	repo domain.Repository[domain.Todo]
}

var _ domain.TodoStore = (*TodoStore)(nil)

func NewTodoStore(repo domain.Repository[domain.Todo]) *TodoStore {
	return &TodoStore{repo: repo}
}

func (s *TodoStore) Add(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.InvalidArgument(fmt.Errorf("todo is required"))
	}
	return s.repo.Add(ctx, todo)
}

func (s *TodoStore) Get(ctx context.Context, id string) (*domain.Todo, error) {
	todo, err := s.repo.GetSingle(ctx, query.Eq("id", id))
	if err != nil {
		return nil, notFound(err, domain.ErrTodoNotFound, id)
	}
	return todo, nil
}

func (s *TodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.InvalidArgument(fmt.Errorf("todo is required"))
	}
	n, err := s.repo.Update(ctx, query.Eq("id", todo.ID), todo)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTodoNotFound, todo.ID)
	}
	return nil
}

func (s *TodoStore) Delete(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, query.Eq("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTodoNotFound, id)
	}
	return nil
}

func (s *TodoStore) All(ctx context.Context) ([]domain.Todo, error) {
	return s.repo.List(ctx, nil)
}

func (s *TodoStore) ListByList(ctx context.Context, listID string) ([]domain.Todo, error) {
	id, err := domain.ParseID(listID)
	if err != nil {
		return nil, domain.ErrInvalidListID
	}
	return s.repo.List(ctx, query.Eq("todolist_id", id))
}

func (s *TodoStore) DeleteByList(ctx context.Context, listID string) (int64, error) {
	id, err := domain.ParseID(listID)
	if err != nil {
		return 0, domain.ErrInvalidListID
	}
	return s.repo.Delete(ctx, query.Eq("todolist_id", id))
}

func (s *TodoStore) SearchByKeyword(ctx context.Context, keyword string) ([]domain.Todo, error) {
	return s.repo.List(ctx, query.And(
		query.Eq("completed", false),
		query.Or(
			query.ContainsFold("title", keyword),
			query.ContainsFold("description", keyword),
		),
	))
}

func (s *TodoStore) SearchByTag(ctx context.Context, tag string) ([]domain.Todo, error) {
	return s.repo.List(ctx, query.HasTagFold("tags", tag))
}

func (s *TodoStore) FilterByDeadline(ctx context.Context, deadline time.Time) ([]domain.Todo, error) {
	return s.repo.List(ctx, query.Le("deadline", deadline.UTC()))
}

func (s *TodoStore) Complete(ctx context.Context, id string) error {
	if err := domain.CheckContext(ctx); err != nil {
		return err
	}
	todo, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	todo.Complete()
	return s.Update(ctx, todo)
}

func (s *TodoStore) Completed(ctx context.Context) ([]domain.Todo, error) {
	return s.repo.List(ctx, query.Eq("completed", true))
}

// Reserve overwrites the owner even when the todo is already reserved.
func (s *TodoStore) Reserve(ctx context.Context, id, reserverID string) error {
	if err := domain.CheckContext(ctx); err != nil {
		return err
	}
	todo, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := todo.ReserveFor(reserverID); err != nil {
		return err
	}
	return s.Update(ctx, todo)
}

func (s *TodoStore) Reserved(ctx context.Context, userID string) ([]domain.Todo, error) {
	return s.repo.List(ctx, query.And(
		query.Eq("owner_id", userID),
		query.Eq("completed", false),
	))
}
