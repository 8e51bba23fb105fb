package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the stores, the authentication
// service and the presenters unwraps to one of these.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrInconsistentState = errors.New("inconsistent state")
	ErrCanceled          = errors.New("operation canceled")
)

var (
	// Validation Errors
	ErrEmptyTitle         = invalid("title cannot be empty")
	ErrTitleTooLong       = invalid("title exceeds 200 characters")
	ErrEmptyDescription   = invalid("description cannot be empty")
	ErrDescriptionTooLong = invalid("description exceeds 2000 characters")
	ErrInvalidOwnerID     = invalid("owner ID is required")
	ErrInvalidListID      = invalid("todo list ID must be a valid UUID")
	ErrInvalidTodoID      = invalid("todo ID must be a valid UUID")
	ErrTooManyTags        = invalid("maximum 20 tags allowed")
	ErrEmptyName          = invalid("name cannot be empty")
	ErrInvalidEmail       = invalid("invalid email format")
	ErrEmptyPassword      = invalid("password cannot be empty")
	ErrPasswordTooShort   = invalid("password must be at least 6 characters long")
	ErrEmptyUserID        = invalid("user ID is required")
	ErrEmptyReserverID    = invalid("reserver ID is required")
	ErrEmptyFilter        = invalid("filter cannot be empty")

	// Business logic errors
	ErrUserNotFound      = &kindError{kind: ErrNotFound, msg: "user not found"}
	ErrTodoNotFound      = &kindError{kind: ErrNotFound, msg: "todo not found"}
	ErrTodoListNotFound  = &kindError{kind: ErrNotFound, msg: "todo list not found"}
	ErrEmailTaken        = &kindError{kind: ErrConflict, msg: "a user with this email already exists"}
	ErrCompletionMissing = &kindError{kind: ErrInconsistentState, msg: "todo is missing from completed todos after completion"}

	// Authorization errors
	ErrPasswordMismatch = &kindError{kind: ErrUnauthorized, msg: "the password does not match"}
	ErrNoSession        = &kindError{kind: ErrUnauthenticated, msg: "no user is currently authenticated"}
	ErrNotOwner         = &kindError{kind: ErrForbidden, msg: "forbidden - not the owner"}
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func invalid(msg string) error {
	return &kindError{kind: ErrInvalidArgument, msg: msg}
}

// InvalidArgument marks err as an InvalidArgument failure.
func InvalidArgument(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}

// CheckContext reports ErrCanceled if ctx is already done.
func CheckContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return nil
}
