package sqldb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/query"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "planner.db")

	require.NoError(t, Migrate(SQLite{}, dsn))

	db, err := Open(context.Background(), SQLite{}, dsn, PoolConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTodoRepo(t *testing.T, db *sql.DB) *Repository[domain.Todo] {
	t.Helper()
	repo, err := NewRepository(db, SQLite{}, "todos", domain.TodoSchema)
	require.NoError(t, err)
	return repo
}

func newTodo(t *testing.T, title string, deadline time.Time, tags ...string) *domain.Todo {
	t.Helper()
	todo, err := domain.NewTodo(title, title+" description", "owner", uuid.NewString(), deadline, tags)
	require.NoError(t, err)
	return todo
}

func TestSQLiteRoundTrip(t *testing.T) {
	repo := newTodoRepo(t, setupTestDB(t))
	ctx := context.Background()

	deadline := time.Date(2026, 10, 20, 8, 30, 0, 123456789, time.UTC)
	milk := newTodo(t, "Milk", deadline, "food", "Dairy")
	require.NoError(t, repo.Add(ctx, milk))

	got, err := repo.GetSingle(ctx, query.Eq("id", milk.ID))
	require.NoError(t, err)
	require.Equal(t, milk.Title, got.Title)
	require.Equal(t, milk.Description, got.Description)
	require.Equal(t, []string{"food", "Dairy"}, got.Tags)
	require.True(t, got.Deadline.Equal(deadline))
	require.False(t, got.Completed)
	require.Equal(t, milk.TodoListID, got.TodoListID)

	_, err = repo.GetSingle(ctx, query.Eq("id", uuid.NewString()))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteFilters(t *testing.T) {
	repo := newTodoRepo(t, setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	early := newTodo(t, "Early 100% done", base.Add(-time.Hour), "Work")
	exact := newTodo(t, "Exact", base, "workshop")
	late := newTodo(t, "Late", base.Add(time.Nanosecond))
	late.Completed = true
	for _, todo := range []*domain.Todo{early, exact, late} {
		require.NoError(t, repo.Add(ctx, todo))
	}

	due, err := repo.List(ctx, query.Le("deadline", base))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{early.ID, exact.ID}, ids(due))

	tagged, err := repo.List(ctx, query.HasTagFold("tags", "work"))
	require.NoError(t, err)
	require.Equal(t, []string{early.ID}, ids(tagged))

	percent, err := repo.List(ctx, query.ContainsFold("title", "100%"))
	require.NoError(t, err)
	require.Equal(t, []string{early.ID}, ids(percent))

	wildcard, err := repo.List(ctx, query.ContainsFold("title", "_"))
	require.NoError(t, err)
	require.Empty(t, wildcard)

	open, err := repo.List(ctx, query.And(query.Eq("completed", false), query.Or(
		query.ContainsFold("title", "EXACT"),
		query.ContainsFold("description", "early"),
	)))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{early.ID, exact.ID}, ids(open))

	notLate, err := repo.List(ctx, query.Not(query.Eq("completed", true)))
	require.NoError(t, err)
	require.Len(t, notLate, 2)
}

func TestSQLiteUpdateAndDelete(t *testing.T) {
	repo := newTodoRepo(t, setupTestDB(t))
	ctx := context.Background()

	a := newTodo(t, "A", time.Now())
	b := newTodo(t, "B", time.Now())
	b.TodoListID = a.TodoListID
	c := newTodo(t, "C", time.Now())
	for _, todo := range []*domain.Todo{a, b, c} {
		require.NoError(t, repo.Add(ctx, todo))
	}

	a.OwnerID = "bob"
	a.Tags = []string{"reserved"}
	n, err := repo.Update(ctx, query.Eq("id", a.ID), a)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := repo.GetSingle(ctx, query.Eq("id", a.ID))
	require.NoError(t, err)
	require.Equal(t, "bob", got.OwnerID)
	require.Equal(t, []string{"reserved"}, got.Tags)

	n, err = repo.Delete(ctx, query.Eq("todolist_id", a.TodoListID))
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	rest, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []string{c.ID}, ids(rest))
}

func TestSQLiteRejectsEmptyFilterAndUnknownColumns(t *testing.T) {
	repo := newTodoRepo(t, setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Delete(ctx, nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = repo.Update(ctx, nil, newTodo(t, "x", time.Now()))
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = repo.GetSingle(ctx, nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = repo.List(ctx, query.Eq("1=1 OR id", "x"))
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSQLiteCanceledContext(t *testing.T) {
	repo := newTodoRepo(t, setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, repo.Add(ctx, newTodo(t, "x", time.Now())), domain.ErrCanceled)

	all, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestNewRepositoryRejectsBadTableName(t *testing.T) {
	_, err := NewRepository(nil, SQLite{}, "todos; DROP TABLE users", domain.TodoSchema)
	require.Error(t, err)
}

func TestPostgresStatements(t *testing.T) {
	repo, err := NewRepository(nil, Postgres{}, "users", domain.UserSchema)
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4)", repo.insertQuery)
	require.Equal(t, "UPDATE users SET id = $1, name = $2, email = $3, password_hash = $4", repo.updateQuery)

	where, args, err := buildWhereClause(Postgres{}, domain.TodoSchema, query.And(
		query.Eq("owner_id", "u1"),
		query.HasTagFold("tags", "food"),
		query.ContainsFold("title", "a_b"),
	), []any{"already bound"})
	require.NoError(t, err)
	require.Equal(t, `(owner_id = $2 AND EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE lower(tag) = lower($3)) AND title ILIKE $4 ESCAPE '\')`, where)
	require.Equal(t, []any{"already bound", "u1", "food", `%a\_b%`}, args)
}

func ids(todos []domain.Todo) []string {
	out := make([]string, len(todos))
	for i, todo := range todos {
		out[i] = todo.ID
	}
	return out
}
