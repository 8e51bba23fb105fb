// Package httpapi exposes the presenters as a JSON web API.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmehra2102/planner/internal/app"
	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/middleware"
	"github.com/dmehra2102/planner/pkg/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	users  *app.UserPresenter
	todos  *app.TodoPresenter
	lists  *app.TodoListPresenter
	authz  *auth.Authorizer
	logger *zap.Logger
}

func NewHandler(users *app.UserPresenter, todos *app.TodoPresenter, lists *app.TodoListPresenter, authz *auth.Authorizer, logger *zap.Logger) *Handler {
	return &Handler{
		users:  users,
		todos:  todos,
		lists:  lists,
		authz:  authz,
		logger: logger,
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type listRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type todoRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TodoListID  string    `json:"todolist_id"`
	Deadline    time.Time `json:"deadline"`
	Tags        []string  `json:"tags"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	session, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      toUserResponse(session.User),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.BearerToken(r); ok {
		h.users.Logout(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerToken(r)
	user, err := h.users.CurrentUser(r.Context(), token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]userResponse, len(users))
	for i := range users {
		resp[i] = toUserResponse(&users[i])
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.caller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if !h.authz.CanDeleteUser(userCtx, id) {
		h.respondError(w, r, domain.ErrNotOwner)
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UserLists(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.caller(w, r)
	if !ok {
		return
	}

	lists, err := h.lists.LoadUserLists(r.Context(), userCtx.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, lists)
}

func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	list, err := h.lists.AddList(r.Context(), req.Title, req.Description, userCtx.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, list)
}

func (h *Handler) UpdateList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ownedList(w, r); !ok {
		return
	}

	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	list, err := h.lists.UpdateList(r.Context(), chi.URLParam(r, "id"), req.Title, req.Description)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handler) DeleteList(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	if err := h.lists.DeleteList(r.Context(), list.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.LoadListTodos(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, todos)
}

func (h *Handler) AllTodos(w http.ResponseWriter, r *http.Request) {
	if sort := r.URL.Query().Get("sort"); sort != "" && sort != "deadline" {
		h.respondError(w, r, domain.InvalidArgument(errors.New("unsupported sort order "+sort)))
		return
	}

	todos, err := h.todos.AllTodosSortedByDeadline(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, todos)
}

// CreateTodo adds a todo owned by the caller to one of the caller's lists.
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req todoRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	list, err := h.lists.GetList(r.Context(), req.TodoListID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !h.authz.CanModifyList(userCtx, list) {
		h.respondError(w, r, domain.ErrNotOwner)
		return
	}

	todo, err := h.todos.AddTodo(r.Context(), req.Title, req.Description, userCtx.UserID, list.ID, req.Deadline, req.Tags)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, todo)
}

func (h *Handler) CompletedTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.CompletedTodos(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, todos)
}

func (h *Handler) ReservedTodos(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.caller(w, r)
	if !ok {
		return
	}

	todos, err := h.todos.LoadReservedTodos(r.Context(), userCtx.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, todos)
}

func (h *Handler) SearchTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.SearchByKeyword(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, todos)
}

func (h *Handler) TodosByTag(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.SearchByTag(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, todos)
}

func (h *Handler) DueTodos(w http.ResponseWriter, r *http.Request) {
	before, err := time.Parse(time.RFC3339, r.URL.Query().Get("before"))
	if err != nil {
		h.respondError(w, r, domain.InvalidArgument(err))
		return
	}

	todos, err := h.lists.FilterTodosByDeadline(r.Context(), before)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, todos)
}

func (h *Handler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := h.permittedTodo(w, r, h.authz.CanModifyTodo)
	if !ok {
		return
	}

	if err := h.todos.CompleteTodo(r.Context(), todo.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	todo.Completed = true
	h.respondJSON(w, http.StatusOK, todo)
}

// ReserveTodo hands the todo to the caller.
func (h *Handler) ReserveTodo(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := h.caller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.todos.ReserveTodo(r.Context(), id, userCtx.UserID); err != nil {
		h.respondError(w, r, err)
		return
	}

	todo, err := h.todos.GetTodo(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, todo)
}

func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := h.permittedTodo(w, r, func(userCtx *auth.UserContext, _ *domain.Todo, list *domain.TodoList) bool {
		return h.authz.CanDeleteTodo(userCtx, list)
	})
	if !ok {
		return
	}

	if err := h.todos.DeleteTodo(r.Context(), todo.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*auth.UserContext, bool) {
	userCtx, err := auth.UserContextFromContext(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	return userCtx, true
}

// ownedList loads the {id} list and checks the caller owns it.
func (h *Handler) ownedList(w http.ResponseWriter, r *http.Request) (*domain.TodoList, bool) {
	userCtx, ok := h.caller(w, r)
	if !ok {
		return nil, false
	}

	list, err := h.lists.GetList(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	if !h.authz.CanModifyList(userCtx, list) {
		h.respondError(w, r, domain.ErrNotOwner)
		return nil, false
	}
	return list, true
}

// permittedTodo loads the {id} todo with its list and asks allowed whether
// the caller may act on it.
func (h *Handler) permittedTodo(w http.ResponseWriter, r *http.Request, allowed func(*auth.UserContext, *domain.Todo, *domain.TodoList) bool) (*domain.Todo, bool) {
	userCtx, ok := h.caller(w, r)
	if !ok {
		return nil, false
	}

	todo, err := h.todos.GetTodo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}

	list, err := h.lists.GetList(r.Context(), todo.TodoListID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.respondError(w, r, err)
		return nil, false
	}
	if !allowed(userCtx, todo, list) {
		h.respondError(w, r, domain.ErrNotOwner)
		return nil, false
	}
	return todo, true
}
