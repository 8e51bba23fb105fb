// Package app holds the presenters: the validation and orchestration layer
// front ends call into.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TodoListPresenter struct {
	lists  domain.TodoListStore
	todos  domain.TodoStore
	users  domain.UserStore
	logger *zap.Logger
	tracer trace.Tracer
}

func NewTodoListPresenter(lists domain.TodoListStore, todos domain.TodoStore, users domain.UserStore, logger *zap.Logger) *TodoListPresenter {
	return &TodoListPresenter{
		lists:  lists,
		todos:  todos,
		users:  users,
		logger: logger,
		tracer: otel.Tracer("todolist-presenter"),
	}
}

// LoadUserLists returns the user's lists with their todos. An unknown user
// is an invalid argument.
func (p *TodoListPresenter) LoadUserLists(ctx context.Context, userID string) ([]domain.TodoList, error) {
	ctx, span := p.tracer.Start(ctx, "LoadUserLists")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := p.resolveOwner(ctx, userID); err != nil {
		return nil, err
	}

	lists, err := p.lists.UserLists(ctx, userID)
	if err != nil {
		p.logger.Error("failed to load todo lists",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("failed to load lists of user %s: %w", userID, err)
	}
	return lists, nil
}

func (p *TodoListPresenter) AddList(ctx context.Context, title, description, ownerID string) (*domain.TodoList, error) {
	ctx, span := p.tracer.Start(ctx, "AddList")
	defer span.End()

	if err := p.resolveOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	list, err := domain.NewTodoList(title, description, ownerID)
	if err != nil {
		return nil, err
	}

	if err := p.lists.Add(ctx, list); err != nil {
		p.logger.Error("failed to persist todo list",
			zap.Error(err),
			zap.String("list_id", list.ID),
		)
		return nil, fmt.Errorf("failed to add list: %w", err)
	}

	p.logger.Info("todo list created",
		zap.String("list_id", list.ID),
		zap.String("user_id", ownerID),
	)

	list.Todos = []domain.Todo{}
	return list, nil
}

func (p *TodoListPresenter) GetList(ctx context.Context, id string) (*domain.TodoList, error) {
	ctx, span := p.tracer.Start(ctx, "GetList")
	defer span.End()

	listID, err := domain.ParseID(id)
	if err != nil {
		return nil, domain.ErrInvalidListID
	}
	list, err := p.lists.Get(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to load list: %w", err)
	}
	return list, nil
}

func (p *TodoListPresenter) UpdateList(ctx context.Context, id, title, description string) (*domain.TodoList, error) {
	ctx, span := p.tracer.Start(ctx, "UpdateList")
	defer span.End()

	list, err := p.GetList(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := list.Rename(title, description); err != nil {
		return nil, err
	}

	if err := p.lists.Update(ctx, list); err != nil {
		p.logger.Error("failed to update todo list",
			zap.Error(err),
			zap.String("list_id", list.ID),
		)
		return nil, fmt.Errorf("failed to update list: %w", err)
	}

	p.logger.Info("todo list updated", zap.String("list_id", list.ID))
	return list, nil
}

// DeleteList removes the list together with its todos.
func (p *TodoListPresenter) DeleteList(ctx context.Context, id string) error {
	ctx, span := p.tracer.Start(ctx, "DeleteList")
	defer span.End()
	span.SetAttributes(attribute.String("list.id", id))

	if err := p.lists.Delete(ctx, id); err != nil {
		if !isClientError(err) {
			p.logger.Error("failed to delete todo list",
				zap.Error(err),
				zap.String("list_id", id),
			)
		}
		return fmt.Errorf("failed to delete list: %w", err)
	}

	p.logger.Info("todo list deleted", zap.String("list_id", id))
	return nil
}

// FilterTodosByDeadline returns the todos of every list due at or before
// deadline.
func (p *TodoListPresenter) FilterTodosByDeadline(ctx context.Context, deadline time.Time) ([]domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "FilterTodosByDeadline")
	defer span.End()

	if deadline.IsZero() {
		return nil, domain.InvalidArgument(errors.New("deadline is required"))
	}

	todos, err := p.todos.FilterByDeadline(ctx, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to filter todos by deadline: %w", err)
	}
	return todos, nil
}

func (p *TodoListPresenter) resolveOwner(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrEmptyUserID
	}
	if _, err := p.users.Get(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.InvalidArgument(err)
		}
		return fmt.Errorf("failed to resolve user %s: %w", userID, err)
	}
	return nil
}
