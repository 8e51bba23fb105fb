package auth

import (
	"context"

	"github.com/dmehra2102/planner/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user_context"

// UserContext identifies the caller of an authenticated request.
type UserContext struct {
	UserID    string
	Email     string
	SessionID string
}

// ContextWithUserContext adds user context to the context
func ContextWithUserContext(ctx context.Context, userCtx *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, userCtx)
}

// UserContextFromContext extracts user context from the context
func UserContextFromContext(ctx context.Context) (*UserContext, error) {
	userCtx, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || userCtx == nil {
		return nil, domain.ErrNoSession
	}
	return userCtx, nil
}

// Authorizer decides who may change lists, todos and accounts.
type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

func (a *Authorizer) CanModifyList(userCtx *UserContext, list *domain.TodoList) bool {
	return userCtx != nil && list != nil && list.OwnerID == userCtx.UserID
}

// CanModifyTodo allows the todo's current owner and the owner of the list
// it belongs to.
func (a *Authorizer) CanModifyTodo(userCtx *UserContext, todo *domain.Todo, list *domain.TodoList) bool {
	if userCtx == nil || todo == nil {
		return false
	}
	if todo.OwnerID == userCtx.UserID {
		return true
	}
	return list != nil && list.OwnerID == userCtx.UserID
}

// CanDeleteTodo allows only the owner of the todo's list. Reserving a todo
// moves its OwnerID, so the todo owner is not enough.
func (a *Authorizer) CanDeleteTodo(userCtx *UserContext, list *domain.TodoList) bool {
	return userCtx != nil && list != nil && list.OwnerID == userCtx.UserID
}

func (a *Authorizer) CanDeleteUser(userCtx *UserContext, userID string) bool {
	return userCtx != nil && userCtx.UserID == userID
}
