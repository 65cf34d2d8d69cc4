package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Dialect identifies the SQL backend a store talks to.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// TimeLayout is the text encoding used for every timestamp column.
const TimeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "supabase":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// DriverName returns the database/sql driver name registered for the dialect.
func (d Dialect) DriverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Builder returns a squirrel statement builder with the dialect's placeholders.
// INVARIANT: Postgres uses $n placeholders, SQLite uses ?
func (d Dialect) Builder() sq.StatementBuilderType {
	if d == DialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// LikeOp returns the case-insensitive LIKE operator for the dialect.
func (d Dialect) LikeOp() string {
	if d == DialectPostgres {
		return "ILIKE"
	}
	return "LIKE"
}

// Search builds an OR of case-insensitive substring matches over cols.
func (d Dialect) Search(term string, cols ...string) sq.Sqlizer {
	pattern := "%" + term + "%"
	or := sq.Or{}
	for _, c := range cols {
		or = append(or, sq.Expr(c+" "+d.LikeOp()+" ?", pattern))
	}
	return or
}

// UpsertSuffix renders "ON CONFLICT (key) DO UPDATE SET c=excluded.c, ...".
// Both SQLite and Postgres accept this form.
func UpsertSuffix(key string, cols ...string) string {
	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == key {
			continue
		}
		sets = append(sets, c+"=excluded."+c)
	}
	return "ON CONFLICT (" + key + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

// FormatTime encodes t for a TEXT column; the zero time encodes as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime decodes a TEXT timestamp; empty or malformed input yields the zero time.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EncodeStrings stores a string slice as a JSON array.
func EncodeStrings(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeStrings reads a JSON array column; bad data yields nil.
func DecodeStrings(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// EncodeFlags stores a permission map as a JSON object.
func EncodeFlags(v map[string]bool) string {
	if len(v) == 0 {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecodeFlags reads a JSON object column into a permission map.
func DecodeFlags(s string) map[string]bool {
	out := map[string]bool{}
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}
