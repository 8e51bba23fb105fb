package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewTodo(t *testing.T) {
	listID := uuid.NewString()
	deadline := time.Date(2026, 5, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))

	todo, err := NewTodo("Milk", "2L", "user-1", listID, deadline, []string{"food"})
	require.NoError(t, err)
	require.NotEmpty(t, todo.ID)
	require.False(t, todo.Completed)
	require.Equal(t, listID, todo.TodoListID)
	require.Equal(t, time.UTC, todo.Deadline.Location())
	require.True(t, todo.Deadline.Equal(deadline))
	require.Equal(t, []string{"food"}, todo.Tags)
}

func TestNewTodoValidation(t *testing.T) {
	listID := uuid.NewString()
	tooMany := make([]string, 21)

	tests := []struct {
		name                     string
		title, desc, owner, list string
		tags                     []string
		want                     error
	}{
		{"blank title", "  ", "d", "u", listID, nil, ErrEmptyTitle},
		{"long title", strings.Repeat("x", 201), "d", "u", listID, nil, ErrTitleTooLong},
		{"blank description", "t", "", "u", listID, nil, ErrEmptyDescription},
		{"blank owner", "t", "d", "", listID, nil, ErrInvalidOwnerID},
		{"bad list id", "t", "d", "u", "not-a-uuid", nil, ErrInvalidListID},
		{"too many tags", "t", "d", "u", listID, tooMany, ErrTooManyTags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTodo(tt.title, tt.desc, tt.owner, tt.list, time.Now(), tt.tags)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestTodoTransitions(t *testing.T) {
	todo, err := NewTodo("t", "d", "alice", uuid.NewString(), time.Now(), nil)
	require.NoError(t, err)
	require.NotNil(t, todo.Tags)

	require.ErrorIs(t, todo.ReserveFor(" "), ErrInvalidArgument)
	require.NoError(t, todo.ReserveFor("bob"))
	require.NoError(t, todo.ReserveFor("carol"))
	require.Equal(t, "carol", todo.OwnerID)

	todo.Complete()
	require.True(t, todo.Completed)
}

func TestErrorKinds(t *testing.T) {
	require.ErrorIs(t, ErrTodoNotFound, ErrNotFound)
	require.ErrorIs(t, ErrEmailTaken, ErrConflict)
	require.ErrorIs(t, ErrPasswordMismatch, ErrUnauthorized)
	require.ErrorIs(t, ErrNoSession, ErrUnauthenticated)
	require.ErrorIs(t, ErrCompletionMissing, ErrInconsistentState)
	require.False(t, errors.Is(ErrTodoNotFound, ErrTodoListNotFound))

	_, err := ParseID("nope")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEmail(t *testing.T) {
	require.True(t, IsValidEmail("alice@x.com"))
	require.False(t, IsValidEmail("alice@x"))
	require.False(t, IsValidEmail("alice x@x.com"))
	require.Equal(t, "alice@x.com", NormalizeEmail("  Alice@X.com "))
}
