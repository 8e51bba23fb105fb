package mongodb

import (
	"fmt"
	"regexp"

	"github.com/dmehra2102/planner/internal/query"
	"go.mongodb.org/mongo-driver/bson"
)

// buildFilter translates e into a BSON filter. Regex operands are quoted so
// user text never acts as a pattern.
func buildFilter[T any](schema *query.Schema[T], e query.Expr) (bson.D, error) {
	if e == nil {
		return bson.D{}, nil
	}
	if err := schema.Validate(e); err != nil {
		return nil, err
	}
	return translate(e)
}

func translate(e query.Expr) (bson.D, error) {
	switch x := e.(type) {
	case query.Cond:
		return condition(x), nil
	case query.AndExpr:
		return group("$and", x.Exprs)
	case query.OrExpr:
		return group("$or", x.Exprs)
	case query.NotExpr:
		return group("$nor", []query.Expr{x.Expr})
	default:
		return nil, fmt.Errorf("%w: unsupported expression %T", query.ErrInvalidExpr, e)
	}
}

func group(op string, exprs []query.Expr) (bson.D, error) {
	parts := make(bson.A, 0, len(exprs))
	for _, e := range exprs {
		doc, err := translate(e)
		if err != nil {
			return nil, err
		}
		parts = append(parts, doc)
	}
	return bson.D{{Key: op, Value: parts}}, nil
}

func condition(c query.Cond) bson.D {
	var test bson.D
	switch c.Op {
	case query.OpContainsFold:
		test = bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(c.Value.(string))},
			{Key: "$options", Value: "i"},
		}
	case query.OpHasTagFold:
		test = bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "$regex", Value: "^" + regexp.QuoteMeta(c.Value.(string)) + "$"},
			{Key: "$options", Value: "i"},
		}}}
	default:
		test = bson.D{{Key: mongoOperator(c.Op), Value: c.Value}}
	}
	return bson.D{{Key: c.Field, Value: test}}
}

func mongoOperator(op query.Op) string {
	switch op {
	case query.OpNe:
		return "$ne"
	case query.OpLt:
		return "$lt"
	case query.OpLe:
		return "$lte"
	case query.OpGt:
		return "$gt"
	case query.OpGe:
		return "$gte"
	default:
		return "$eq"
	}
}
