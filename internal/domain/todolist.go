package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/planner/internal/query"
	"github.com/google/uuid"
)

// TodoList is a named collection of todos owned by a user. Todos is a read
// view filled by the store; it is never persisted with the list.
type TodoList struct {
	ID          string    `json:"id" bson:"id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Todos       []Todo    `json:"todos,omitempty" bson:"-"`
}

var TodoListSchema = query.NewSchema(
	query.String("id", func(l *TodoList) string { return l.ID }, func(l *TodoList, v string) { l.ID = v }),
	query.String("title", func(l *TodoList) string { return l.Title }, func(l *TodoList, v string) { l.Title = v }),
	query.String("description", func(l *TodoList) string { return l.Description }, func(l *TodoList, v string) { l.Description = v }),
	query.String("owner_id", func(l *TodoList) string { return l.OwnerID }, func(l *TodoList, v string) { l.OwnerID = v }),
	query.Time("created_at", func(l *TodoList) time.Time { return l.CreatedAt }, func(l *TodoList, v time.Time) { l.CreatedAt = v }),
)

func NewTodoList(title, description, ownerID string) (*TodoList, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidOwnerID
	}

	return &TodoList{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Rename updates title and description with validation.
func (l *TodoList) Rename(title, description string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}
	l.Title = title
	l.Description = description
	return nil
}
