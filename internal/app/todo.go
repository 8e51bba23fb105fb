package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TodoPresenter struct {
	todos  domain.TodoStore
	lists  domain.TodoListStore
	logger *zap.Logger
	tracer trace.Tracer
}

func NewTodoPresenter(todos domain.TodoStore, lists domain.TodoListStore, logger *zap.Logger) *TodoPresenter {
	return &TodoPresenter{
		todos:  todos,
		lists:  lists,
		logger: logger,
		tracer: otel.Tracer("todo-presenter"),
	}
}

// AddTodo creates a todo in an existing list.
func (p *TodoPresenter) AddTodo(ctx context.Context, title, description, ownerID, listID string, deadline time.Time, tags []string) (*domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "AddTodo")
	defer span.End()

	canonicalListID, err := domain.ParseID(listID)
	if err != nil {
		return nil, domain.ErrInvalidListID
	}
	span.SetAttributes(attribute.String("list.id", canonicalListID))

	todo, err := domain.NewTodo(title, description, ownerID, canonicalListID, deadline, tags)
	if err != nil {
		return nil, err
	}

	if _, err := p.lists.Get(ctx, canonicalListID); err != nil {
		return nil, fmt.Errorf("failed to add todo: %w", err)
	}

	if err := p.todos.Add(ctx, todo); err != nil {
		p.logger.Error("failed to persist todo",
			zap.Error(err),
			zap.String("todo_id", todo.ID),
		)
		return nil, fmt.Errorf("failed to add todo: %w", err)
	}

	p.logger.Info("todo created",
		zap.String("todo_id", todo.ID),
		zap.String("list_id", canonicalListID),
		zap.String("user_id", ownerID),
	)
	return todo, nil
}

func (p *TodoPresenter) GetTodo(ctx context.Context, id string) (*domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "GetTodo")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidTodoID
	}
	todo, err := p.todos.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load todo: %w", err)
	}
	return todo, nil
}

func (p *TodoPresenter) LoadListTodos(ctx context.Context, listID string) ([]domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "LoadListTodos")
	defer span.End()

	todos, err := p.todos.ListByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to load todos of list: %w", err)
	}
	return todos, nil
}

func (p *TodoPresenter) LoadReservedTodos(ctx context.Context, userID string) ([]domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "LoadReservedTodos")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrEmptyUserID
	}
	todos, err := p.todos.Reserved(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reserved todos: %w", err)
	}
	return todos, nil
}

func (p *TodoPresenter) DeleteTodo(ctx context.Context, id string) error {
	ctx, span := p.tracer.Start(ctx, "DeleteTodo")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidTodoID
	}
	if err := p.todos.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	p.logger.Info("todo deleted", zap.String("todo_id", id))
	return nil
}

// ReserveTodo hands the todo to reserverID, replacing any earlier owner.
func (p *TodoPresenter) ReserveTodo(ctx context.Context, id, reserverID string) error {
	ctx, span := p.tracer.Start(ctx, "ReserveTodo")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidTodoID
	}
	if strings.TrimSpace(reserverID) == "" {
		return domain.ErrEmptyReserverID
	}
	if err := p.todos.Reserve(ctx, id, reserverID); err != nil {
		return fmt.Errorf("failed to reserve todo: %w", err)
	}

	p.logger.Info("todo reserved",
		zap.String("todo_id", id),
		zap.String("user_id", reserverID),
	)
	return nil
}

// CompleteTodo marks the todo done and confirms the store reports it among
// the completed todos.
func (p *TodoPresenter) CompleteTodo(ctx context.Context, id string) error {
	ctx, span := p.tracer.Start(ctx, "CompleteTodo")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidTodoID
	}
	if err := p.todos.Complete(ctx, id); err != nil {
		return fmt.Errorf("failed to complete todo: %w", err)
	}

	completed, err := p.todos.Completed(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm completion: %w", err)
	}
	if !slices.ContainsFunc(completed, func(t domain.Todo) bool { return t.ID == id }) {
		p.logger.Error("completed todo missing from completed todos", zap.String("todo_id", id))
		return fmt.Errorf("%w: %s", domain.ErrCompletionMissing, id)
	}

	p.logger.Info("todo completed", zap.String("todo_id", id))
	return nil
}

func (p *TodoPresenter) CompletedTodos(ctx context.Context) ([]domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "CompletedTodos")
	defer span.End()

	todos, err := p.todos.Completed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed todos: %w", err)
	}
	return todos, nil
}

// SearchByTag returns nothing for a blank tag.
func (p *TodoPresenter) SearchByTag(ctx context.Context, tag string) ([]domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "SearchByTag")
	defer span.End()

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return []domain.Todo{}, nil
	}
	todos, err := p.todos.SearchByTag(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to search todos by tag: %w", err)
	}
	return todos, nil
}

// SearchByKeyword returns nothing for a blank keyword.
func (p *TodoPresenter) SearchByKeyword(ctx context.Context, keyword string) ([]domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "SearchByKeyword")
	defer span.End()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []domain.Todo{}, nil
	}
	todos, err := p.todos.SearchByKeyword(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search todos: %w", err)
	}
	return todos, nil
}

// AllTodosSortedByDeadline returns every todo, earliest deadline first.
func (p *TodoPresenter) AllTodosSortedByDeadline(ctx context.Context) ([]domain.Todo, error) {
	ctx, span := p.tracer.Start(ctx, "AllTodosSortedByDeadline")
	defer span.End()

	todos, err := p.todos.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load todos: %w", err)
	}
	slices.SortStableFunc(todos, func(a, b domain.Todo) int {
		return a.Deadline.Compare(b.Deadline)
	})
	return todos, nil
}

// isClientError reports failures caused by the caller rather than the backend.
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidArgument) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict)
}
