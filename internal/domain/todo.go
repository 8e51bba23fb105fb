package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/planner/internal/query"
	"github.com/google/uuid"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxTags              = 20
)

type Todo struct {
	ID          string    `json:"id" bson:"id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Deadline    time.Time `json:"deadline" bson:"deadline"`
	Tags        []string  `json:"tags" bson:"tags"`
	Completed   bool      `json:"completed" bson:"completed"`
	TodoListID  string    `json:"todolist_id" bson:"todolist_id"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// TodoSchema maps Todo onto the "todos" collection.
var TodoSchema = query.NewSchema(
	query.String("id", func(t *Todo) string { return t.ID }, func(t *Todo, v string) { t.ID = v }),
	query.String("title", func(t *Todo) string { return t.Title }, func(t *Todo, v string) { t.Title = v }),
	query.String("description", func(t *Todo) string { return t.Description }, func(t *Todo, v string) { t.Description = v }),
	query.Time("deadline", func(t *Todo) time.Time { return t.Deadline }, func(t *Todo, v time.Time) { t.Deadline = v }),
	query.Strings("tags", func(t *Todo) []string { return t.Tags }, func(t *Todo, v []string) { t.Tags = v }),
	query.Bool("completed", func(t *Todo) bool { return t.Completed }, func(t *Todo, v bool) { t.Completed = v }),
	query.String("todolist_id", func(t *Todo) string { return t.TodoListID }, func(t *Todo, v string) { t.TodoListID = v }),
	query.String("owner_id", func(t *Todo) string { return t.OwnerID }, func(t *Todo, v string) { t.OwnerID = v }),
	query.Time("created_at", func(t *Todo) time.Time { return t.CreatedAt }, func(t *Todo, v time.Time) { t.CreatedAt = v }),
)

// NewTodo creates a new todo with validation
func NewTodo(title, description, ownerID, todoListID string, deadline time.Time, tags []string) (*Todo, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidOwnerID
	}
	listID, err := ParseID(todoListID)
	if err != nil {
		return nil, ErrInvalidListID
	}
	if len(tags) > maxTags {
		return nil, ErrTooManyTags
	}

	return &Todo{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Deadline:    deadline.UTC(),
		Tags:        append(make([]string, 0, len(tags)), tags...),
		TodoListID:  listID,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Complete marks the todo done. There is no way back.
func (t *Todo) Complete() {
	t.Completed = true
}

// ReserveFor hands the todo over to userID, whoever owned it before.
func (t *Todo) ReserveFor(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyReserverID
	}
	t.OwnerID = userID
	return nil
}

// ParseID checks that id is a UUID and returns its canonical form.
func ParseID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", InvalidArgument(err)
	}
	return parsed.String(), nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func validateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	if len(description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
