package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/infrastructure/config"
	"github.com/dmehra2102/planner/internal/infrastructure/jsonfile"
	"github.com/dmehra2102/planner/internal/infrastructure/mongodb"
	"github.com/dmehra2102/planner/internal/infrastructure/sqldb"
	"github.com/dmehra2102/planner/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type repositories struct {
	users domain.Repository[domain.User]
	todos domain.Repository[domain.Todo]
	lists domain.Repository[domain.TodoList]
	close func(context.Context) error
}

type stores struct {
	users *store.UserStore
	todos *store.TodoStore
	lists *store.TodoListStore
	close func(context.Context) error
}

// openStores builds the stores over the configured backend.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	var (
		repos *repositories
		err   error
	)
	switch cfg.StorageBackend {
	case config.BackendFile:
		repos, err = openFileRepositories(cfg.DataDir)
	case config.BackendPostgres:
		repos, err = openSQLRepositories(ctx, sqldb.Postgres{}, cfg.GetDatabaseConfig())
	case config.BackendSQLite:
		repos, err = openSQLRepositories(ctx, sqldb.SQLite{}, cfg.GetDatabaseConfig())
	case config.BackendMongo:
		repos, err = openMongoRepositories(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		err = fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("storage initialized", zap.String("backend", cfg.StorageBackend))

	return &stores{
		users: store.NewUserStore(repos.users),
		todos: store.NewTodoStore(repos.todos),
		lists: store.NewTodoListStore(repos.lists, repos.todos),
		close: repos.close,
	}, nil
}

func openFileRepositories(dir string) (*repositories, error) {
	users, err := jsonfile.NewRepository(dir, "users", domain.UserSchema)
	if err != nil {
		return nil, err
	}
	todos, err := jsonfile.NewRepository(dir, "todos", domain.TodoSchema)
	if err != nil {
		return nil, err
	}
	lists, err := jsonfile.NewRepository(dir, "todolists", domain.TodoListSchema)
	if err != nil {
		return nil, err
	}

	return &repositories{
		users: users,
		todos: todos,
		lists: lists,
		close: func(context.Context) error { return nil },
	}, nil
}

func openSQLRepositories(ctx context.Context, dialect sqldb.Dialect, dbCfg config.DatabaseConfig) (*repositories, error) {
	if _, ok := dialect.(sqldb.SQLite); ok {
		if err := os.MkdirAll(filepath.Dir(dbCfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	if err := sqldb.Migrate(dialect, dbCfg.DSN); err != nil {
		return nil, err
	}

	db, err := sqldb.Open(ctx, dialect, dbCfg.DSN, sqldb.PoolConfig{
		MaxOpenConns:    dbCfg.MaxOpenConns,
		MaxIdleConns:    dbCfg.MaxIdleConns,
		ConnMaxLifetime: dbCfg.ConnMaxLifetime,
		ConnMaxIdleTime: dbCfg.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}

	users, err := sqldb.NewRepository(db, dialect, "users", domain.UserSchema)
	if err != nil {
		db.Close()
		return nil, err
	}
	todos, err := sqldb.NewRepository(db, dialect, "todos", domain.TodoSchema)
	if err != nil {
		db.Close()
		return nil, err
	}
	lists, err := sqldb.NewRepository(db, dialect, "todolists", domain.TodoListSchema)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &repositories{
		users: users.WithTimeout(dbCfg.Timeout),
		todos: todos.WithTimeout(dbCfg.Timeout),
		lists: lists.WithTimeout(dbCfg.Timeout),
		close: func(context.Context) error { return db.Close() },
	}, nil
}

func openMongoRepositories(ctx context.Context, uri, database string) (*repositories, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	fail := func(err error) (*repositories, error) {
		client.Disconnect(ctx)
		return nil, err
	}

	users, err := mongodb.NewRepository(ctx, db, "users", domain.UserSchema,
		mongodb.Index{Field: "id", Unique: true},
		mongodb.Index{Field: "email", Unique: true},
	)
	if err != nil {
		return fail(err)
	}
	todos, err := mongodb.NewRepository(ctx, db, "todos", domain.TodoSchema,
		mongodb.Index{Field: "id", Unique: true},
		mongodb.Index{Field: "todolist_id"},
		mongodb.Index{Field: "owner_id"},
	)
	if err != nil {
		return fail(err)
	}
	lists, err := mongodb.NewRepository(ctx, db, "todolists", domain.TodoListSchema,
		mongodb.Index{Field: "id", Unique: true},
		mongodb.Index{Field: "owner_id"},
	)
	if err != nil {
		return fail(err)
	}

	return &repositories{
		users: users,
		todos: todos,
		lists: lists,
		close: client.Disconnect,
	}, nil
}
