// Package mongodb is a domain.Repository over a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const queryTimeout = 5 * time.Second

type Repository[T any] struct {
	collection *mongo.Collection
	schema     *query.Schema[T]
	tracer     trace.Tracer
}

var _ domain.Repository[domain.Todo] = (*Repository[domain.Todo])(nil)

// Index describes a single-field index created by NewRepository.
type Index struct {
	Field  string
	Unique bool
}

// NewRepository wraps the named collection and creates the given indexes.
func NewRepository[T any](ctx context.Context, db *mongo.Database, name string, schema *query.Schema[T], indexes ...Index) (*Repository[T], error) {
	collection := db.Collection(name)

	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		if _, ok := schema.Column(idx.Field); !ok {
			return nil, fmt.Errorf("cannot index unknown field %q", idx.Field)
		}
		model := mongo.IndexModel{Keys: bson.D{{Key: idx.Field, Value: 1}}}
		if idx.Unique {
			model.Options = options.Index().SetUnique(true)
		}
		models = append(models, model)
	}
	if len(models) > 0 {
		if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
			return nil, fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}

	return &Repository[T]{
		collection: collection,
		schema:     schema,
		tracer:     otel.Tracer("mongodb-repository"),
	}, nil
}

func (r *Repository[T]) GetSingle(ctx context.Context, filter query.Expr) (*T, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		return nil, domain.ErrEmptyFilter
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.GetSingle")
	defer span.End()

	doc, err := buildFilter(r.schema, filter)
	if err != nil {
		return nil, domain.InvalidArgument(err)
	}

	var item T
	if err := r.collection.FindOne(ctx, doc).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			span.SetAttributes(attribute.Bool("not_found", true))
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get from %s: %w", r.collection.Name(), err)
	}
	return &item, nil
}

func (r *Repository[T]) List(ctx context.Context, filter query.Expr) ([]T, error) {
	if err := domain.CheckContext(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.List")
	defer span.End()

	doc, err := buildFilter(r.schema, filter)
	if err != nil {
		return nil, domain.InvalidArgument(err)
	}

	cursor, err := r.collection.Find(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list %s: %w", r.collection.Name(), err)
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode %s: %w", r.collection.Name(), err)
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

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.Add")
	defer span.End()

	if _, err := r.collection.InsertOne(ctx, entity); err != nil {
		span.RecordError(err)
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: duplicate document in %s", domain.ErrConflict, r.collection.Name())
		}
		return fmt.Errorf("failed to insert into %s: %w", r.collection.Name(), err)
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

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.Delete")
	defer span.End()

	doc, err := buildFilter(r.schema, filter)
	if err != nil {
		return 0, domain.InvalidArgument(err)
	}

	result, err := r.collection.DeleteMany(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to delete from %s: %w", r.collection.Name(), err)
	}

	span.SetAttributes(attribute.Int64("rows_affected", result.DeletedCount))
	return result.DeletedCount, nil
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

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.start(ctx, "repository.Update")
	defer span.End()

	doc, err := buildFilter(r.schema, filter)
	if err != nil {
		return 0, domain.InvalidArgument(err)
	}

	result, err := r.collection.UpdateMany(ctx, doc, bson.D{{Key: "$set", Value: setDocument(r.schema, entity)}})
	if err != nil {
		span.RecordError(err)
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: duplicate document in %s", domain.ErrConflict, r.collection.Name())
		}
		return 0, fmt.Errorf("failed to update %s: %w", r.collection.Name(), err)
	}

	span.SetAttributes(attribute.Int64("rows_affected", result.MatchedCount))
	return result.MatchedCount, nil
}

func (r *Repository[T]) start(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := r.tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("db.collection", r.collection.Name()),
	)
	return ctx, span
}

// setDocument lists every schema field of entity, in declaration order.
func setDocument[T any](schema *query.Schema[T], entity *T) bson.D {
	doc := make(bson.D, 0, len(schema.Columns()))
	for _, col := range schema.Columns() {
		v := col.Get(entity)
		if tags, ok := v.([]string); ok && tags == nil {
			v = []string{}
		}
		doc = append(doc, bson.E{Key: col.Name, Value: v})
	}
	return doc
}
