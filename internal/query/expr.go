// Package query holds the backend-neutral filter expressions used by the
// generic repositories, and the static schema descriptors that tell each
// backend how an entity maps onto named fields.
package query

import (
	"fmt"
	"strings"
)

type Op int

const (
	OpEq Op = iota + 1
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	// OpContainsFold matches a case-insensitive substring of a string field.
	OpContainsFold
	// OpHasTagFold matches when any element of a string-list field equals
	// the value, ignoring case.
	OpHasTagFold
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpContainsFold:
		return "contains"
	case OpHasTagFold:
		return "has-tag"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Expr is a filter expression. A nil Expr selects everything.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Cond compares a single field against a value.
type Cond struct {
	Field string
	Op    Op
	Value any
}

type AndExpr struct {
	Exprs []Expr
}

type OrExpr struct {
	Exprs []Expr
}

type NotExpr struct {
	Expr Expr
}

func (Cond) isExpr()    {}
func (AndExpr) isExpr() {}
func (OrExpr) isExpr()  {}
func (NotExpr) isExpr() {}

func (c Cond) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

func (a AndExpr) String() string { return join(a.Exprs, " AND ") }
func (o OrExpr) String() string  { return join(o.Exprs, " OR ") }
func (n NotExpr) String() string { return "NOT (" + n.Expr.String() + ")" }

func join(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func Eq(field string, value any) Expr { return Cond{Field: field, Op: OpEq, Value: value} }
func Ne(field string, value any) Expr { return Cond{Field: field, Op: OpNe, Value: value} }
func Lt(field string, value any) Expr { return Cond{Field: field, Op: OpLt, Value: value} }
func Le(field string, value any) Expr { return Cond{Field: field, Op: OpLe, Value: value} }
func Gt(field string, value any) Expr { return Cond{Field: field, Op: OpGt, Value: value} }
func Ge(field string, value any) Expr { return Cond{Field: field, Op: OpGe, Value: value} }

func ContainsFold(field, substr string) Expr {
	return Cond{Field: field, Op: OpContainsFold, Value: substr}
}

func HasTagFold(field, tag string) Expr {
	return Cond{Field: field, Op: OpHasTagFold, Value: tag}
}

// And combines expressions; nil operands are dropped.
func And(exprs ...Expr) Expr {
	return combine(exprs, func(e []Expr) Expr { return AndExpr{Exprs: e} })
}

// Or combines expressions; nil operands are dropped.
func Or(exprs ...Expr) Expr {
	return combine(exprs, func(e []Expr) Expr { return OrExpr{Exprs: e} })
}

func Not(e Expr) Expr {
	if e == nil {
		return nil
	}
	return NotExpr{Expr: e}
}

func combine(exprs []Expr, build func([]Expr) Expr) Expr {
	kept := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return build(kept)
	}
}
