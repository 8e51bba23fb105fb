package domain

import (
	"context"
	"time"

	"github.com/dmehra2102/planner/internal/query"
)

// Repository defines the contract for persisting one collection of T.
// Implementations check ctx before any side effect and fail with
// ErrCanceled when it is already done.
type Repository[T any] interface {
	// GetSingle returns the first entity matching filter, or ErrNotFound.
	// A nil filter is rejected with ErrInvalidArgument.
	GetSingle(ctx context.Context, filter query.Expr) (*T, error)

	// List returns every entity matching filter; nil returns the whole collection.
	List(ctx context.Context, filter query.Expr) ([]T, error)

	// Add appends one entity. Uniqueness is the caller's concern.
	Add(ctx context.Context, entity *T) error

	// Delete removes every entity matching filter and reports how many.
	Delete(ctx context.Context, filter query.Expr) (int64, error)

	// Update replaces every entity matching filter with entity.
	Update(ctx context.Context, filter query.Expr, entity *T) (int64, error)
}

type UserStore interface {
	All(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SearchByKeyword(ctx context.Context, keyword string) ([]User, error)
	Add(ctx context.Context, user *User) error
	Update(ctx context.Context, id string, user *User) error
	Delete(ctx context.Context, id string) error
}

type TodoStore interface {
	Add(ctx context.Context, todo *Todo) error
	Get(ctx context.Context, id string) (*Todo, error)
	Update(ctx context.Context, todo *Todo) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]Todo, error)

	// ListByList returns the todos of one list; listID must be a UUID.
	ListByList(ctx context.Context, listID string) ([]Todo, error)

	// DeleteByList removes every todo of one list.
	DeleteByList(ctx context.Context, listID string) (int64, error)

	// SearchByKeyword matches title or description ignoring case, skipping
	// completed todos.
	SearchByKeyword(ctx context.Context, keyword string) ([]Todo, error)

	// SearchByTag matches todos carrying tag, ignoring case.
	SearchByTag(ctx context.Context, tag string) ([]Todo, error)

	// FilterByDeadline returns todos due at or before deadline.
	FilterByDeadline(ctx context.Context, deadline time.Time) ([]Todo, error)

	Complete(ctx context.Context, id string) error
	Completed(ctx context.Context) ([]Todo, error)

	// Reserve reassigns the todo to reserverID.
	Reserve(ctx context.Context, id, reserverID string) error

	// Reserved returns the open todos owned by userID.
	Reserved(ctx context.Context, userID string) ([]Todo, error)
}

type TodoListStore interface {
	// UserLists returns the lists owned by ownerID with their todos.
	UserLists(ctx context.Context, ownerID string) ([]TodoList, error)
	Get(ctx context.Context, id string) (*TodoList, error)
	Add(ctx context.Context, list *TodoList) error
	Update(ctx context.Context, list *TodoList) error

	// Delete removes the list's todos, then the list.
	Delete(ctx context.Context, id string) error
}
