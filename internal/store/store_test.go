package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/infrastructure/jsonfile"
	"github.com/dmehra2102/planner/internal/infrastructure/sqldb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stores struct {
	users *UserStore
	todos *TodoStore
	lists *TodoListStore
}

func newFileStores(t *testing.T) stores {
	t.Helper()
	dir := t.TempDir()

	users, err := jsonfile.NewRepository(dir, "users", domain.UserSchema)
	require.NoError(t, err)
	todos, err := jsonfile.NewRepository(dir, "todos", domain.TodoSchema)
	require.NoError(t, err)
	lists, err := jsonfile.NewRepository(dir, "todolists", domain.TodoListSchema)
	require.NoError(t, err)

	return stores{
		users: NewUserStore(users),
		todos: NewTodoStore(todos),
		lists: NewTodoListStore(lists, todos),
	}
}

func newSQLiteStores(t *testing.T) stores {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "planner.db")
	require.NoError(t, sqldb.Migrate(sqldb.SQLite{}, dsn))

	db, err := sqldb.Open(context.Background(), sqldb.SQLite{}, dsn, sqldb.PoolConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users, err := sqldb.NewRepository(db, sqldb.SQLite{}, "users", domain.UserSchema)
	require.NoError(t, err)
	todos, err := sqldb.NewRepository(db, sqldb.SQLite{}, "todos", domain.TodoSchema)
	require.NoError(t, err)
	lists, err := sqldb.NewRepository(db, sqldb.SQLite{}, "todolists", domain.TodoListSchema)
	require.NoError(t, err)

	return stores{
		users: NewUserStore(users),
		todos: NewTodoStore(todos),
		lists: NewTodoListStore(lists, todos),
	}
}

// forEachBackend runs fn against every backend that needs no external server.
func forEachBackend(t *testing.T, fn func(t *testing.T, s stores)) {
	backends := map[string]func(*testing.T) stores{
		"jsonfile": newFileStores,
		"sqlite":   newSQLiteStores,
	}
	for name, setup := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, setup(t))
		})
	}
}

func addList(t *testing.T, s stores, title, ownerID string) *domain.TodoList {
	t.Helper()
	list, err := domain.NewTodoList(title, title+" list", ownerID)
	require.NoError(t, err)
	require.NoError(t, s.lists.Add(context.Background(), list))
	return list
}

func addTodo(t *testing.T, s stores, list *domain.TodoList, title string, deadline time.Time, tags ...string) *domain.Todo {
	t.Helper()
	todo, err := domain.NewTodo(title, title+" details", list.OwnerID, list.ID, deadline, tags)
	require.NoError(t, err)
	require.NoError(t, s.todos.Add(context.Background(), todo))
	return todo
}

func todoIDs(todos []domain.Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.ID
	}
	return out
}

func TestUserStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()

		alice := &domain.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@x.com", PasswordHash: "h1"}
		bob := &domain.User{ID: uuid.NewString(), Name: "Bob", Email: "bob@y.org", PasswordHash: "h2"}
		require.NoError(t, s.users.Add(ctx, alice))
		require.NoError(t, s.users.Add(ctx, bob))

		got, err := s.users.GetByEmail(ctx, "  Alice@X.com ")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		found, err := s.users.SearchByKeyword(ctx, "Y.ORG")
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.Equal(t, "Bob", found[0].Name)

		bob.Name = "Robert"
		require.NoError(t, s.users.Update(ctx, bob.ID, bob))
		got, err = s.users.Get(ctx, bob.ID)
		require.NoError(t, err)
		require.Equal(t, "Robert", got.Name)

		require.NoError(t, s.users.Delete(ctx, bob.ID))
		_, err = s.users.Get(ctx, bob.ID)
		require.ErrorIs(t, err, domain.ErrUserNotFound)
		require.ErrorIs(t, err, domain.ErrNotFound)

		err = s.users.Delete(ctx, bob.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)

		_, err = s.users.Get(ctx, " ")
		require.ErrorIs(t, err, domain.ErrInvalidArgument)

		all, err := s.users.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})
}

func TestListScenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		owner := uuid.NewString()
		deadline := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

		groceries := addList(t, s, "Groceries", owner)
		milk := addTodo(t, s, groceries, "Milk", deadline, "dairy")

		lists, err := s.lists.UserLists(ctx, owner)
		require.NoError(t, err)
		require.Len(t, lists, 1)
		require.Equal(t, "Groceries", lists[0].Title)
		require.Equal(t, []string{milk.ID}, todoIDs(lists[0].Todos))

		byTag, err := s.todos.SearchByTag(ctx, "DAIRY")
		require.NoError(t, err)
		require.Equal(t, []string{milk.ID}, todoIDs(byTag))

		require.NoError(t, s.todos.Complete(ctx, milk.ID))
		completed, err := s.todos.Completed(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{milk.ID}, todoIDs(completed))

		open, err := s.todos.SearchByKeyword(ctx, "milk")
		require.NoError(t, err)
		require.Empty(t, open)
	})
}

func TestDeleteListCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		owner := uuid.NewString()
		deadline := time.Now().Add(24 * time.Hour)

		doomed := addList(t, s, "Doomed", owner)
		kept := addList(t, s, "Kept", owner)
		addTodo(t, s, doomed, "One", deadline)
		addTodo(t, s, doomed, "Two", deadline)
		survivor := addTodo(t, s, kept, "Three", deadline)

		require.NoError(t, s.lists.Delete(ctx, doomed.ID))

		_, err := s.lists.Get(ctx, doomed.ID)
		require.ErrorIs(t, err, domain.ErrTodoListNotFound)

		orphans, err := s.todos.ListByList(ctx, doomed.ID)
		require.NoError(t, err)
		require.Empty(t, orphans)

		all, err := s.todos.All(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{survivor.ID}, todoIDs(all))

		err = s.lists.Delete(ctx, doomed.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)

		err = s.lists.Delete(ctx, "not-a-uuid")
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestFilterByDeadlineIsInclusive(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		list := addList(t, s, "Work", uuid.NewString())
		boundary := time.Date(2031, 6, 1, 12, 0, 0, 0, time.UTC)

		early := addTodo(t, s, list, "Early", boundary.Add(-time.Hour))
		exact := addTodo(t, s, list, "Exact", boundary)
		addTodo(t, s, list, "Late", boundary.Add(time.Second))

		due, err := s.todos.FilterByDeadline(ctx, boundary)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{early.ID, exact.ID}, todoIDs(due))
	})
}

func TestReserve(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		list := addList(t, s, "Chores", uuid.NewString())
		todo := addTodo(t, s, list, "Dishes", time.Now().Add(time.Hour))
		done := addTodo(t, s, list, "Laundry", time.Now().Add(time.Hour))

		bob := uuid.NewString()
		require.NoError(t, s.todos.Reserve(ctx, todo.ID, bob))
		require.NoError(t, s.todos.Reserve(ctx, done.ID, bob))
		require.NoError(t, s.todos.Complete(ctx, done.ID))

		reserved, err := s.todos.Reserved(ctx, bob)
		require.NoError(t, err)
		require.Equal(t, []string{todo.ID}, todoIDs(reserved))

		carol := uuid.NewString()
		require.NoError(t, s.todos.Reserve(ctx, todo.ID, carol))
		got, err := s.todos.Get(ctx, todo.ID)
		require.NoError(t, err)
		require.Equal(t, carol, got.OwnerID)

		err = s.todos.Reserve(ctx, todo.ID, "")
		require.ErrorIs(t, err, domain.ErrInvalidArgument)

		err = s.todos.Reserve(ctx, uuid.NewString(), carol)
		require.ErrorIs(t, err, domain.ErrTodoNotFound)
	})
}

func TestTodoStoreMisses(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		missing := uuid.NewString()

		require.ErrorIs(t, s.todos.Complete(ctx, missing), domain.ErrNotFound)
		require.ErrorIs(t, s.todos.Delete(ctx, missing), domain.ErrNotFound)

		_, err := s.todos.ListByList(ctx, "groceries")
		require.ErrorIs(t, err, domain.ErrInvalidListID)

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = s.todos.All(canceled)
		require.ErrorIs(t, err, domain.ErrCanceled)
	})
}

func TestUpdateListKeepsTodosSeparate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		list := addList(t, s, "Trip", uuid.NewString())
		addTodo(t, s, list, "Tickets", time.Now().Add(time.Hour))

		got, err := s.lists.Get(ctx, list.ID)
		require.NoError(t, err)
		require.Len(t, got.Todos, 1)

		require.NoError(t, got.Rename("Holiday", "Summer holiday"))
		require.NoError(t, s.lists.Update(ctx, got))

		got, err = s.lists.Get(ctx, list.ID)
		require.NoError(t, err)
		require.Equal(t, "Holiday", got.Title)
		require.Len(t, got.Todos, 1)

		stray := *got
		stray.ID = uuid.NewString()
		require.ErrorIs(t, s.lists.Update(ctx, &stray), domain.ErrTodoListNotFound)
	})
}

func TestSearchFoldsNonASCII(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		list := addList(t, s, "Büro", uuid.NewString())
		todo := addTodo(t, s, list, "Ärger im Büro", time.Now().Add(time.Hour), "Übung")

		byTag, err := s.todos.SearchByTag(ctx, "übung")
		require.NoError(t, err)
		require.Equal(t, []string{todo.ID}, todoIDs(byTag))

		byKeyword, err := s.todos.SearchByKeyword(ctx, "ärger")
		require.NoError(t, err)
		require.Equal(t, []string{todo.ID}, todoIDs(byKeyword))

		byKeyword, err = s.todos.SearchByKeyword(ctx, "BÜRO")
		require.NoError(t, err)
		require.Equal(t, []string{todo.ID}, todoIDs(byKeyword))
	})
}

func TestUpdateRequiresEntity(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()

		require.ErrorIs(t, s.todos.Update(ctx, nil), domain.ErrInvalidArgument)
		require.ErrorIs(t, s.lists.Update(ctx, nil), domain.ErrInvalidArgument)
		require.ErrorIs(t, s.users.Add(ctx, nil), domain.ErrInvalidArgument)
		require.ErrorIs(t, s.users.Update(ctx, uuid.NewString(), nil), domain.ErrInvalidArgument)
	})
}

func TestSQLiteEnforcesUniqueEmail(t *testing.T) {
	s := newSQLiteStores(t)
	ctx := context.Background()

	alice := &domain.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@x.com", PasswordHash: "h1"}
	require.NoError(t, s.users.Add(ctx, alice))

	twin := &domain.User{ID: uuid.NewString(), Name: "Other Alice", Email: "alice@x.com", PasswordHash: "h2"}
	err := s.users.Add(ctx, twin)
	require.ErrorIs(t, err, domain.ErrEmailTaken)
	require.ErrorIs(t, err, domain.ErrConflict)

	bob := &domain.User{ID: uuid.NewString(), Name: "Bob", Email: "bob@x.com", PasswordHash: "h3"}
	require.NoError(t, s.users.Add(ctx, bob))
	bob.Email = alice.Email
	require.ErrorIs(t, s.users.Update(ctx, bob.ID, bob), domain.ErrEmailTaken)

	all, err := s.users.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
