package sqldb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/planner/internal/query"
	"github.com/lib/pq"
	gosqlite3 "github.com/mattn/go-sqlite3"
)

// sqliteDriver is the mattn driver with a Unicode-aware fold() function.
// SQLite's built-in lower() folds ASCII only.
const sqliteDriver = "sqlite3_planner"

func init() {
	sql.Register(sqliteDriver, &gosqlite3.SQLiteDriver{
		ConnectHook: func(conn *gosqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// Dialect hides the SQL differences between the supported databases.
type Dialect interface {
	// Driver is the database/sql driver name.
	Driver() string

	// Placeholder returns the n-th (1-based) bind parameter.
	Placeholder(n int) string

	// Bind converts a field value into a driver argument.
	Bind(kind query.Kind, v any) (any, error)

	// ScanTarget returns a destination for rows.Scan and a function that
	// turns it back into a field value after scanning.
	ScanTarget(kind query.Kind) (dest any, decode func() (any, error))

	// ContainsFold renders a case-insensitive LIKE against an escaped pattern.
	ContainsFold(column, placeholder string) string

	// HasTagFold renders a case-insensitive membership test on a tag column.
	HasTagFold(column, placeholder string) string

	// IsUniqueViolation reports whether err comes from a unique constraint.
	IsUniqueViolation(err error) bool
}

// DialectFor returns the dialect registered under a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres{}, nil
	case "sqlite3", "sqlite", sqliteDriver:
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Postgres stores tags as TEXT[] and times as TIMESTAMPTZ.
type Postgres struct{}

func (Postgres) Driver() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) Bind(kind query.Kind, v any) (any, error) {
	switch kind {
	case query.KindStrings:
		tags, _ := v.([]string)
		if tags == nil {
			tags = []string{}
		}
		return pq.Array(tags), nil
	case query.KindTime:
		return v.(time.Time).UTC(), nil
	default:
		return v, nil
	}
}

func (Postgres) ScanTarget(kind query.Kind) (any, func() (any, error)) {
	switch kind {
	case query.KindStrings:
		var tags pq.StringArray
		return &tags, func() (any, error) {
			if tags == nil {
				return []string{}, nil
			}
			return []string(tags), nil
		}
	case query.KindTime:
		var t time.Time
		return &t, func() (any, error) { return t.UTC(), nil }
	default:
		return scanPlain(kind)
	}
}

func (Postgres) ContainsFold(column, placeholder string) string {
	return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, placeholder)
}

func (Postgres) HasTagFold(column, placeholder string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS tag WHERE lower(tag) = lower(%s))", column, placeholder)
}

func (Postgres) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// sqliteTimeLayout is fixed width so text comparison orders like time.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite stores tags as a JSON array and times as fixed-width UTC text.
type SQLite struct{}

func (SQLite) Driver() string { return sqliteDriver }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) Bind(kind query.Kind, v any) (any, error) {
	switch kind {
	case query.KindStrings:
		tags, _ := v.([]string)
		if tags == nil {
			tags = []string{}
		}
		data, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}
		return string(data), nil
	case query.KindTime:
		return v.(time.Time).UTC().Format(sqliteTimeLayout), nil
	default:
		return v, nil
	}
}

func (SQLite) ScanTarget(kind query.Kind) (any, func() (any, error)) {
	switch kind {
	case query.KindStrings:
		var raw string
		return &raw, func() (any, error) {
			tags := []string{}
			if raw == "" {
				return tags, nil
			}
			if err := json.Unmarshal([]byte(raw), &tags); err != nil {
				return nil, fmt.Errorf("failed to decode tags: %w", err)
			}
			return tags, nil
		}
	case query.KindTime:
		var raw string
		return &raw, func() (any, error) {
			t, err := time.Parse(sqliteTimeLayout, raw)
			if err != nil {
				return nil, fmt.Errorf("failed to decode time %q: %w", raw, err)
			}
			return t, nil
		}
	default:
		return scanPlain(kind)
	}
}

func (SQLite) ContainsFold(column, placeholder string) string {
	return fmt.Sprintf(`fold(%s) LIKE fold(%s) ESCAPE '\'`, column, placeholder)
}

func (SQLite) HasTagFold(column, placeholder string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE fold(json_each.value) = fold(%s))", column, placeholder)
}

func (SQLite) IsUniqueViolation(err error) bool {
	var sqliteErr gosqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == gosqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == gosqlite3.ErrConstraintPrimaryKey
}

func scanPlain(kind query.Kind) (any, func() (any, error)) {
	switch kind {
	case query.KindBool:
		var b bool
		return &b, func() (any, error) { return b, nil }
	default:
		var s string
		return &s, func() (any, error) { return s, nil }
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring LIKE match, escaping wildcards.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
