package app

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/infrastructure/jsonfile"
	"github.com/dmehra2102/planner/internal/store"
	"github.com/dmehra2102/planner/pkg/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type presenters struct {
	users *UserPresenter
	todos *TodoPresenter
	lists *TodoListPresenter
}

func setup(t *testing.T) presenters {
	t.Helper()
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	userRepo, err := jsonfile.NewRepository(dir, "users", domain.UserSchema)
	require.NoError(t, err)
	todoRepo, err := jsonfile.NewRepository(dir, "todos", domain.TodoSchema)
	require.NoError(t, err)
	listRepo, err := jsonfile.NewRepository(dir, "todolists", domain.TodoListSchema)
	require.NoError(t, err)

	users := store.NewUserStore(userRepo)
	todos := store.NewTodoStore(todoRepo)
	lists := store.NewTodoListStore(listRepo, todoRepo)

	authService, err := auth.NewService(users, "test-secret", time.Hour)
	require.NoError(t, err)

	return presenters{
		users: NewUserPresenter(users, authService, logger),
		todos: NewTodoPresenter(todos, lists, logger),
		lists: NewTodoListPresenter(lists, todos, users, logger),
	}
}

func TestAliceGroceriesScenario(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	alice, err := p.users.CreateUser(ctx, "Alice", "alice@x.com", "secret1")
	require.NoError(t, err)

	session, err := p.users.Authenticate(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)
	me, err := p.users.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, alice.ID, me.ID)

	groceries, err := p.lists.AddList(ctx, "Groceries", "desc", alice.ID)
	require.NoError(t, err)

	deadline := time.Now().Add(48 * time.Hour)
	milk, err := p.todos.AddTodo(ctx, "Milk", "2L", alice.ID, groceries.ID, deadline, []string{"food"})
	require.NoError(t, err)

	lists, err := p.lists.LoadUserLists(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	require.Len(t, lists[0].Todos, 1)
	require.Equal(t, milk.ID, lists[0].Todos[0].ID)

	tagged, err := p.todos.SearchByTag(ctx, "food")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	require.Equal(t, "Milk", tagged[0].Title)

	require.NoError(t, p.todos.CompleteTodo(ctx, milk.ID))
	completed, err := p.todos.CompletedTodos(ctx)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, milk.ID, completed[0].ID)

	p.users.Logout(session.Token)
	_, err = p.users.CurrentUser(ctx, session.Token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAddTodoValidation(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	alice, err := p.users.CreateUser(ctx, "Alice", "alice@x.com", "secret1")
	require.NoError(t, err)
	list, err := p.lists.AddList(ctx, "Work", "Office tasks", alice.ID)
	require.NoError(t, err)
	deadline := time.Now().Add(time.Hour)

	_, err = p.todos.AddTodo(ctx, "", "desc", alice.ID, list.ID, deadline, nil)
	require.ErrorIs(t, err, domain.ErrEmptyTitle)

	_, err = p.todos.AddTodo(ctx, "Title", " ", alice.ID, list.ID, deadline, nil)
	require.ErrorIs(t, err, domain.ErrEmptyDescription)

	_, err = p.todos.AddTodo(ctx, "Title", "desc", "", list.ID, deadline, nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = p.todos.AddTodo(ctx, "Title", "desc", alice.ID, "groceries", deadline, nil)
	require.ErrorIs(t, err, domain.ErrInvalidListID)

	_, err = p.todos.AddTodo(ctx, "Title", "desc", alice.ID, uuid.NewString(), deadline, nil)
	require.ErrorIs(t, err, domain.ErrTodoListNotFound)

	all, err := p.todos.AllTodosSortedByDeadline(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestLoadUserListsOfUnknownUser(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	_, err := p.lists.LoadUserLists(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = p.lists.LoadUserLists(ctx, "  ")
	require.ErrorIs(t, err, domain.ErrEmptyUserID)

	_, err = p.lists.AddList(ctx, "Work", "Office", uuid.NewString())
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDeleteListCascadesThroughPresenter(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	alice, err := p.users.CreateUser(ctx, "Alice", "alice@x.com", "secret1")
	require.NoError(t, err)
	list, err := p.lists.AddList(ctx, "Trip", "Packing", alice.ID)
	require.NoError(t, err)
	_, err = p.todos.AddTodo(ctx, "Passport", "Find it", alice.ID, list.ID, time.Now(), nil)
	require.NoError(t, err)

	require.NoError(t, p.lists.DeleteList(ctx, list.ID))

	todos, err := p.todos.LoadListTodos(ctx, list.ID)
	require.NoError(t, err)
	require.Empty(t, todos)

	err = p.lists.DeleteList(ctx, list.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateList(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	alice, err := p.users.CreateUser(ctx, "Alice", "alice@x.com", "secret1")
	require.NoError(t, err)
	list, err := p.lists.AddList(ctx, "Trip", "Packing", alice.ID)
	require.NoError(t, err)

	updated, err := p.lists.UpdateList(ctx, list.ID, "Holiday", "Summer packing")
	require.NoError(t, err)
	require.Equal(t, "Holiday", updated.Title)

	_, err = p.lists.UpdateList(ctx, list.ID, "", "Summer packing")
	require.ErrorIs(t, err, domain.ErrEmptyTitle)

	_, err = p.lists.UpdateList(ctx, uuid.NewString(), "Holiday", "Summer")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReserveAndSort(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	alice, err := p.users.CreateUser(ctx, "Alice", "alice@x.com", "secret1")
	require.NoError(t, err)
	bob, err := p.users.CreateUser(ctx, "Bob", "bob@x.com", "secret2")
	require.NoError(t, err)
	list, err := p.lists.AddList(ctx, "House", "Chores", alice.ID)
	require.NoError(t, err)

	now := time.Now()
	later, err := p.todos.AddTodo(ctx, "Paint", "Fence", alice.ID, list.ID, now.Add(72*time.Hour), nil)
	require.NoError(t, err)
	sooner, err := p.todos.AddTodo(ctx, "Sweep", "Porch", alice.ID, list.ID, now.Add(time.Hour), nil)
	require.NoError(t, err)

	err = p.todos.ReserveTodo(ctx, later.ID, " ")
	require.ErrorIs(t, err, domain.ErrEmptyReserverID)

	require.NoError(t, p.todos.ReserveTodo(ctx, later.ID, bob.ID))
	reserved, err := p.todos.LoadReservedTodos(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, reserved, 1)
	require.Equal(t, later.ID, reserved[0].ID)

	sorted, err := p.todos.AllTodosSortedByDeadline(ctx)
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	require.Equal(t, sooner.ID, sorted[0].ID)
	require.Equal(t, later.ID, sorted[1].ID)

	due, err := p.lists.FilterTodosByDeadline(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, sooner.ID, due[0].ID)

	found, err := p.todos.SearchByKeyword(ctx, "PORCH")
	require.NoError(t, err)
	require.Len(t, found, 1)

	none, err := p.todos.SearchByKeyword(ctx, "   ")
	require.NoError(t, err)
	require.Empty(t, none)

	require.NoError(t, p.todos.DeleteTodo(ctx, sooner.ID))
	require.ErrorIs(t, p.todos.DeleteTodo(ctx, sooner.ID), domain.ErrNotFound)
}

func TestUserLookups(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	alice, err := p.users.CreateUser(ctx, "Alice", "alice@x.com", "secret1")
	require.NoError(t, err)
	_, err = p.users.CreateUser(ctx, "Alice Again", "ALICE@x.com", "secret1")
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := p.users.UserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	found, err := p.users.SearchUsers(ctx, "ali")
	require.NoError(t, err)
	require.Len(t, found, 1)

	empty, err := p.users.SearchUsers(ctx, "")
	require.NoError(t, err)
	require.Empty(t, empty)

	session, err := p.users.Authenticate(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.users.DeleteUser(ctx, alice.ID))
	_, err = p.users.LoadUser(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, p.users.DeleteUser(ctx, alice.ID), domain.ErrNotFound)

	_, err = p.users.CurrentUser(ctx, session.Token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

// forgetfulStore completes todos but never reports them as completed.
type forgetfulStore struct {
	domain.TodoStore
}

func (forgetfulStore) Completed(context.Context) ([]domain.Todo, error) {
	return []domain.Todo{}, nil
}

func TestCompleteTodoDetectsInconsistentStore(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	alice, err := p.users.CreateUser(ctx, "Alice", "alice@x.com", "secret1")
	require.NoError(t, err)
	list, err := p.lists.AddList(ctx, "Work", "Office", alice.ID)
	require.NoError(t, err)
	todo, err := p.todos.AddTodo(ctx, "Report", "Quarterly", alice.ID, list.ID, time.Now(), nil)
	require.NoError(t, err)

	broken := NewTodoPresenter(forgetfulStore{TodoStore: p.todos.todos}, p.todos.lists, zaptest.NewLogger(t))
	err = broken.CompleteTodo(ctx, todo.ID)
	require.ErrorIs(t, err, domain.ErrCompletionMissing)
	require.ErrorIs(t, err, domain.ErrInconsistentState)

	err = p.todos.CompleteTodo(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
