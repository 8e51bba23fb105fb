package query

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidExpr is returned for expressions that do not fit a schema.
var ErrInvalidExpr = errors.New("invalid filter expression")

type Kind int

const (
	KindString Kind = iota + 1
	KindBool
	KindTime
	KindStrings
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindStrings:
		return "[]string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes one persisted field of T.
type Column[T any] struct {
	Name string
	Kind Kind
	get  func(*T) any
	set  func(*T, any) bool
}

// Get returns the field value of entity.
func (c Column[T]) Get(entity *T) any {
	return c.get(entity)
}

// Set assigns v to the field of entity. v must match the column kind.
func (c Column[T]) Set(entity *T, v any) error {
	if !c.set(entity, v) {
		return fmt.Errorf("column %s: cannot assign %T to %s", c.Name, v, c.Kind)
	}
	return nil
}

func String[T any](name string, get func(*T) string, set func(*T, string)) Column[T] {
	return Column[T]{
		Name: name,
		Kind: KindString,
		get:  func(e *T) any { return get(e) },
		set: func(e *T, v any) bool {
			s, ok := v.(string)
			if ok {
				set(e, s)
			}
			return ok
		},
	}
}

func Bool[T any](name string, get func(*T) bool, set func(*T, bool)) Column[T] {
	return Column[T]{
		Name: name,
		Kind: KindBool,
		get:  func(e *T) any { return get(e) },
		set: func(e *T, v any) bool {
			b, ok := v.(bool)
			if ok {
				set(e, b)
			}
			return ok
		},
	}
}

func Time[T any](name string, get func(*T) time.Time, set func(*T, time.Time)) Column[T] {
	return Column[T]{
		Name: name,
		Kind: KindTime,
		get:  func(e *T) any { return get(e) },
		set: func(e *T, v any) bool {
			t, ok := v.(time.Time)
			if ok {
				set(e, t)
			}
			return ok
		},
	}
}

func Strings[T any](name string, get func(*T) []string, set func(*T, []string)) Column[T] {
	return Column[T]{
		Name: name,
		Kind: KindStrings,
		get:  func(e *T) any { return get(e) },
		set: func(e *T, v any) bool {
			s, ok := v.([]string)
			if ok {
				set(e, s)
			}
			return ok
		},
	}
}

// Schema is the ordered list of persisted fields of T, declared once per
// entity and shared by every backend.
type Schema[T any] struct {
	columns []Column[T]
	index   map[string]int
}

func NewSchema[T any](columns ...Column[T]) *Schema[T] {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c.Name]; dup {
			panic("query: duplicate column " + c.Name)
		}
		index[c.Name] = i
	}
	return &Schema[T]{columns: columns, index: index}
}

// Columns returns the columns in declaration order.
func (s *Schema[T]) Columns() []Column[T] {
	return s.columns
}

func (s *Schema[T]) Column(name string) (Column[T], bool) {
	i, ok := s.index[name]
	if !ok {
		return Column[T]{}, false
	}
	return s.columns[i], true
}

func (s *Schema[T]) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks that every condition names a known column, uses an
// operator the column kind supports, and carries a value of the right type.
func (s *Schema[T]) Validate(e Expr) error {
	switch x := e.(type) {
	case nil:
		return nil
	case Cond:
		col, ok := s.Column(x.Field)
		if !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidExpr, x.Field)
		}
		return checkCond(col.Kind, x)
	case AndExpr:
		return s.validateAll(x.Exprs)
	case OrExpr:
		return s.validateAll(x.Exprs)
	case NotExpr:
		if x.Expr == nil {
			return fmt.Errorf("%w: empty NOT", ErrInvalidExpr)
		}
		return s.Validate(x.Expr)
	default:
		return fmt.Errorf("%w: unsupported expression %T", ErrInvalidExpr, e)
	}
}

func (s *Schema[T]) validateAll(exprs []Expr) error {
	if len(exprs) == 0 {
		return fmt.Errorf("%w: empty group", ErrInvalidExpr)
	}
	for _, e := range exprs {
		if e == nil {
			return fmt.Errorf("%w: nil operand", ErrInvalidExpr)
		}
		if err := s.Validate(e); err != nil {
			return err
		}
	}
	return nil
}

func checkCond(kind Kind, c Cond) error {
	bad := func() error {
		return fmt.Errorf("%w: %s %s %T", ErrInvalidExpr, c.Field, c.Op, c.Value)
	}

	switch c.Op {
	case OpEq, OpNe:
		if kind == KindStrings {
			return bad()
		}
	case OpLt, OpLe, OpGt, OpGe:
		if kind != KindString && kind != KindTime {
			return bad()
		}
	case OpContainsFold:
		if kind != KindString {
			return bad()
		}
	case OpHasTagFold:
		if kind != KindStrings {
			return bad()
		}
	default:
		return bad()
	}

	switch kind {
	case KindString, KindStrings:
		if _, ok := c.Value.(string); !ok {
			return bad()
		}
	case KindBool:
		if _, ok := c.Value.(bool); !ok {
			return bad()
		}
	case KindTime:
		if _, ok := c.Value.(time.Time); !ok {
			return bad()
		}
	}
	return nil
}

// Match evaluates e against entity. A nil expression matches everything.
func (s *Schema[T]) Match(e Expr, entity *T) (bool, error) {
	switch x := e.(type) {
	case nil:
		return true, nil
	case Cond:
		col, ok := s.Column(x.Field)
		if !ok {
			return false, fmt.Errorf("%w: unknown field %q", ErrInvalidExpr, x.Field)
		}
		if err := checkCond(col.Kind, x); err != nil {
			return false, err
		}
		return matchCond(col.Kind, col.Get(entity), x), nil
	case AndExpr:
		for _, sub := range x.Exprs {
			ok, err := s.Match(sub, entity)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OrExpr:
		for _, sub := range x.Exprs {
			ok, err := s.Match(sub, entity)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case NotExpr:
		ok, err := s.Match(x.Expr, entity)
		return !ok, err
	default:
		return false, fmt.Errorf("%w: unsupported expression %T", ErrInvalidExpr, e)
	}
}

func matchCond(kind Kind, field any, c Cond) bool {
	switch c.Op {
	case OpContainsFold:
		return strings.Contains(strings.ToLower(field.(string)), strings.ToLower(c.Value.(string)))
	case OpHasTagFold:
		for _, tag := range field.([]string) {
			if strings.EqualFold(tag, c.Value.(string)) {
				return true
			}
		}
		return false
	}

	cmp := compare(kind, field, c.Value)
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

func compare(kind Kind, a, b any) int {
	switch kind {
	case KindString:
		return strings.Compare(a.(string), b.(string))
	case KindTime:
		return a.(time.Time).Compare(b.(time.Time))
	case KindBool:
		if a.(bool) == b.(bool) {
			return 0
		}
		return 1
	}
	return 1
}
