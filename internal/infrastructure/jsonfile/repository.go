// Package jsonfile stores each collection as one JSON document on disk.
// Every call loads the whole document, applies the change and writes it back.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Repository is a file-backed domain.Repository. The mutex only serializes
// callers sharing this instance; other processes writing the same file can
// still lose updates.
type Repository[T any] struct {
	path       string
	collection string
	schema     *query.Schema[T]
	mu         sync.Mutex
	tracer     trace.Tracer
}

var _ domain.Repository[domain.Todo] = (*Repository[domain.Todo])(nil)

// NewRepository stores collection in dir/<collection>.json.
func NewRepository[T any](dir, collection string, schema *query.Schema[T]) (*Repository[T], error) {
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Repository[T]{
		path:       filepath.Join(dir, collection+".json"),
		collection: collection,
		schema:     schema,
		tracer:     otel.Tracer("jsonfile-repository"),
	}, nil
}

// Path returns the backing document.
func (r *Repository[T]) Path() string {
	return r.path
}

func (r *Repository[T]) GetSingle(ctx context.Context, filter query.Expr) (*T, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return nil, err
	}
	_, span := r.start(ctx, "repository.GetSingle")
	defer span.End()

	if filter == nil {
		return nil, domain.ErrEmptyFilter
	}
	if err := r.schema.Validate(filter); err != nil {
		return nil, domain.InvalidArgument(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for i := range items {
		ok, err := r.schema.Match(filter, &items[i])
		if err != nil {
			return nil, domain.InvalidArgument(err)
		}
		if ok {
			return &items[i], nil
		}
	}

	span.SetAttributes(attribute.Bool("not_found", true))
	return nil, domain.ErrNotFound
}

func (r *Repository[T]) List(ctx context.Context, filter query.Expr) ([]T, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return nil, err
	}
	_, span := r.start(ctx, "repository.List")
	defer span.End()

	if err := r.schema.Validate(filter); err != nil {
		return nil, domain.InvalidArgument(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	matched := make([]T, 0, len(items))
	for i := range items {
		ok, err := r.schema.Match(filter, &items[i])
		if err != nil {
			return nil, domain.InvalidArgument(err)
		}
		if ok {
			matched = append(matched, items[i])
		}
	}

	span.SetAttributes(attribute.Int("returned_count", len(matched)))
	return matched, nil
}

func (r *Repository[T]) Add(ctx context.Context, entity *T) error {
	if err := domain.CheckContext(ctx); err != nil {
		return err
	}
	_, span := r.start(ctx, "repository.Add")
	defer span.End()

	if entity == nil {
		return domain.InvalidArgument(errors.New("entity is required"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load()
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := r.save(append(items, *entity)); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, filter query.Expr) (int64, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return 0, err
	}
	_, span := r.start(ctx, "repository.Delete")
	defer span.End()

	if filter == nil {
		return 0, domain.ErrEmptyFilter
	}
	if err := r.schema.Validate(filter); err != nil {
		return 0, domain.InvalidArgument(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	kept := items[:0]
	var removed int64
	for i := range items {
		ok, err := r.schema.Match(filter, &items[i])
		if err != nil {
			return 0, domain.InvalidArgument(err)
		}
		if ok {
			removed++
			continue
		}
		kept = append(kept, items[i])
	}

	if removed > 0 {
		if err := r.save(kept); err != nil {
			span.RecordError(err)
			return 0, err
		}
	}

	span.SetAttributes(attribute.Int64("rows_affected", removed))
	return removed, nil
}

func (r *Repository[T]) Update(ctx context.Context, filter query.Expr, entity *T) (int64, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return 0, err
	}
	_, span := r.start(ctx, "repository.Update")
	defer span.End()

	if filter == nil {
		return 0, domain.ErrEmptyFilter
	}
	if entity == nil {
		return 0, domain.InvalidArgument(errors.New("entity is required"))
	}
	if err := r.schema.Validate(filter); err != nil {
		return 0, domain.InvalidArgument(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	var updated int64
	for i := range items {
		ok, err := r.schema.Match(filter, &items[i])
		if err != nil {
			return 0, domain.InvalidArgument(err)
		}
		if ok {
			items[i] = *entity
			updated++
		}
	}

	if updated > 0 {
		if err := r.save(items); err != nil {
			span.RecordError(err)
			return 0, err
		}
	}

	span.SetAttributes(attribute.Int64("rows_affected", updated))
	return updated, nil
}

func (r *Repository[T]) start(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := r.tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("collection", r.collection))
	return ctx, span
}

// load reads the collection; a missing file is an empty collection.
func (r *Repository[T]) load() ([]T, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.collection, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	doc := map[string][]T{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.collection, err)
	}
	items := doc[r.collection]
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// save replaces the document through a temp file and rename.
func (r *Repository[T]) save(items []T) error {
	data, err := json.MarshalIndent(map[string][]T{r.collection: items}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.collection, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+r.collection+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", r.collection, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", r.collection, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.collection, err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.collection, err)
	}
	return nil
}
