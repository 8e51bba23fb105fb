// Package sqldb is the relational domain.Repository. Statements are built
// from an entity's static schema, one table per entity, with every value
// passed as a bind parameter.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultQueryTimeout = 5 * time.Second

var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type Repository[T any] struct {
	db      *sql.DB
	dialect Dialect
	table   string
	schema  *query.Schema[T]
	timeout time.Duration
	tracer  trace.Tracer

	selectQuery string
	insertQuery string
	updateQuery string
}

var _ domain.Repository[domain.Todo] = (*Repository[domain.Todo])(nil)

func NewRepository[T any](db *sql.DB, dialect Dialect, table string, schema *query.Schema[T]) (*Repository[T], error) {
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}

	names := schema.Names()
	placeholders := make([]string, len(names))
	assignments := make([]string, len(names))
	for i, name := range names {
		placeholders[i] = dialect.Placeholder(i + 1)
		assignments[i] = fmt.Sprintf("%s = %s", name, dialect.Placeholder(i+1))
	}
	columns := strings.Join(names, ", ")

	return &Repository[T]{
		db:          db,
		dialect:     dialect,
		table:       table,
		schema:      schema,
		timeout:     defaultQueryTimeout,
		tracer:      otel.Tracer("sql-repository"),
		selectQuery: fmt.Sprintf("SELECT %s FROM %s", columns, table),
		insertQuery: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, columns, strings.Join(placeholders, ", ")),
		updateQuery: fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(assignments, ", ")),
	}, nil
}

// WithTimeout sets the per-statement timeout.
func (r *Repository[T]) WithTimeout(d time.Duration) *Repository[T] {
	if d > 0 {
		r.timeout = d
	}
	return r
}

func (r *Repository[T]) GetSingle(ctx context.Context, filter query.Expr) (*T, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		return nil, domain.ErrEmptyFilter
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.GetSingle")
	defer span.End()

	where, args, err := buildWhereClause(r.dialect, r.schema, filter, nil)
	if err != nil {
		return nil, domain.InvalidArgument(err)
	}

	rows, err := r.db.QueryContext(ctx, r.selectQuery+" WHERE "+where+" LIMIT 1", args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get from %s: %w", r.table, err)
	}
	defer rows.Close()

	items, err := r.scanAll(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(items) == 0 {
		span.SetAttributes(attribute.Bool("not_found", true))
		return nil, domain.ErrNotFound
	}
	return &items[0], nil
}

func (r *Repository[T]) List(ctx context.Context, filter query.Expr) ([]T, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.List")
	defer span.End()

	q := r.selectQuery
	var args []any
	if filter != nil {
		where, whereArgs, err := buildWhereClause(r.dialect, r.schema, filter, nil)
		if err != nil {
			return nil, domain.InvalidArgument(err)
		}
		q += " WHERE " + where
		args = whereArgs
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	defer rows.Close()

	items, err := r.scanAll(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("returned_count", len(items)))
	return items, nil
}

func (r *Repository[T]) Add(ctx context.Context, entity *T) error {
	if err := domain.CheckContext(ctx); err != nil {
		return err
	}
	if entity == nil {
		return domain.InvalidArgument(errors.New("entity is required"))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.Add")
	defer span.End()

	args, err := r.values(entity)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, r.insertQuery, args...); err != nil {
		span.RecordError(err)
		if r.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate row in %s", domain.ErrConflict, r.table)
		}
		return fmt.Errorf("failed to insert into %s: %w", r.table, err)
	}
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, filter query.Expr) (int64, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return 0, err
	}
	if filter == nil {
		return 0, domain.ErrEmptyFilter
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.Delete")
	defer span.End()

	where, args, err := buildWhereClause(r.dialect, r.schema, filter, nil)
	if err != nil {
		return 0, domain.InvalidArgument(err)
	}

	result, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", r.table, where), args...)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to delete from %s: %w", r.table, err)
	}

	return r.rowsAffected(span, result)
}

func (r *Repository[T]) Update(ctx context.Context, filter query.Expr, entity *T) (int64, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return 0, err
	}
	if filter == nil {
		return 0, domain.ErrEmptyFilter
	}
	if entity == nil {
		return 0, domain.InvalidArgument(errors.New("entity is required"))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.Update")
	defer span.End()

	args, err := r.values(entity)
	if err != nil {
		return 0, err
	}

	where, args, err := buildWhereClause(r.dialect, r.schema, filter, args)
	if err != nil {
		return 0, domain.InvalidArgument(err)
	}

	result, err := r.db.ExecContext(ctx, r.updateQuery+" WHERE "+where, args...)
	if err != nil {
		span.RecordError(err)
		if r.dialect.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: duplicate row in %s", domain.ErrConflict, r.table)
		}
		return 0, fmt.Errorf("failed to update %s: %w", r.table, err)
	}

	return r.rowsAffected(span, result)
}

func (r *Repository[T]) start(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := r.tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", r.dialect.Driver()),
		attribute.String("db.table", r.table),
	)
	return ctx, span
}

// values binds every column of entity in schema order.
func (r *Repository[T]) values(entity *T) ([]any, error) {
	columns := r.schema.Columns()
	args := make([]any, len(columns))
	for i, col := range columns {
		v, err := r.dialect.Bind(col.Kind, col.Get(entity))
		if err != nil {
			return nil, fmt.Errorf("failed to bind %s.%s: %w", r.table, col.Name, err)
		}
		args[i] = v
	}
	return args, nil
}

func (r *Repository[T]) scanAll(rows *sql.Rows) ([]T, error) {
	columns := r.schema.Columns()
	items := make([]T, 0)

	for rows.Next() {
		dests := make([]any, len(columns))
		decoders := make([]func() (any, error), len(columns))
		for i, col := range columns {
			dests[i], decoders[i] = r.dialect.ScanTarget(col.Kind)
		}

		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.table, err)
		}

		var item T
		for i, col := range columns {
			v, err := decoders[i]()
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s.%s: %w", r.table, col.Name, err)
			}
			if err := col.Set(&item, v); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", r.table, err)
	}
	return items, nil
}

func (r *Repository[T]) rowsAffected(span trace.Span, result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	span.SetAttributes(attribute.Int64("rows_affected", n))
	return n, nil
}
