package sqldb

import (
	"fmt"
	"strings"

	"github.com/dmehra2102/planner/internal/query"
)

// buildWhereClause renders e as a SQL condition. Column names come from the
// schema only and every value is bound, continuing after the args already
// collected.
func buildWhereClause[T any](d Dialect, schema *query.Schema[T], e query.Expr, args []any) (string, []any, error) {
	if err := schema.Validate(e); err != nil {
		return "", nil, err
	}
	b := &whereBuilder[T]{dialect: d, schema: schema, args: args}
	clause, err := b.build(e)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

type whereBuilder[T any] struct {
	dialect Dialect
	schema  *query.Schema[T]
	args    []any
}

func (b *whereBuilder[T]) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *whereBuilder[T]) build(e query.Expr) (string, error) {
	switch x := e.(type) {
	case query.Cond:
		return b.cond(x)
	case query.AndExpr:
		return b.group(x.Exprs, " AND ")
	case query.OrExpr:
		return b.group(x.Exprs, " OR ")
	case query.NotExpr:
		inner, err := b.build(x.Expr)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	default:
		return "", fmt.Errorf("%w: unsupported expression %T", query.ErrInvalidExpr, e)
	}
}

func (b *whereBuilder[T]) group(exprs []query.Expr, sep string) (string, error) {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		part, err := b.build(e)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (b *whereBuilder[T]) cond(c query.Cond) (string, error) {
	col, _ := b.schema.Column(c.Field)

	switch c.Op {
	case query.OpContainsFold:
		return b.dialect.ContainsFold(col.Name, b.bind(likePattern(c.Value.(string)))), nil
	case query.OpHasTagFold:
		return b.dialect.HasTagFold(col.Name, b.bind(c.Value)), nil
	}

	v, err := b.dialect.Bind(col.Kind, c.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", col.Name, sqlOperator(c.Op), b.bind(v)), nil
}

func sqlOperator(op query.Op) string {
	switch op {
	case query.OpNe:
		return "<>"
	case query.OpLt:
		return "<"
	case query.OpLe:
		return "<="
	case query.OpGt:
		return ">"
	case query.OpGe:
		return ">="
	default:
		return "="
	}
}
