package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Page bounds and orders a list query. Sort must already be allowlisted by
// the caller; unknown columns fall back to the store's default order.
type Page struct {
	Limit  int
	Offset int
	Sort   string
	Desc   bool
}

// Apply adds ORDER BY, LIMIT and OFFSET to b. An empty Sort, or one outside
// allowed, orders by fallback.
// PRE: fallback is a trusted ORDER BY expression
func (p Page) Apply(b sq.SelectBuilder, allowed []string, fallback string) sq.SelectBuilder {
	order := fallback
	for _, a := range allowed {
		if a == p.Sort {
			dir := "ASC"
			if p.Desc {
				dir = "DESC"
			}
			order = p.Sort + " " + dir + ", id ASC"
			break
		}
	}
	b = b.OrderBy(order)
	if p.Limit > 0 {
		b = b.Limit(uint64(p.Limit))
	}
	if p.Offset > 0 {
		b = b.Offset(uint64(p.Offset))
	}
	return b
}

// Count runs SELECT COUNT(*) FROM table WHERE where.
func Count(ctx context.Context, db SQLDB, d Dialect, table string, where sq.Sqlizer) (int, error) {
	b := d.Builder().Select("COUNT(*)").From(table)
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count %s: %w", table, err)
	}
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Execer is satisfied by SQLDB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Exec builds and runs a write statement.
func Exec(ctx context.Context, db Execer, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	return db.ExecContext(ctx, query, args...)
}

// Query builds and runs a select.
func Query(ctx context.Context, db SQLDB, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return db.QueryContext(ctx, query, args...)
}

// Affected returns an error wrapping sql.ErrNoRows when res touched no row.
func Affected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %w", what, sql.ErrNoRows)
	}
	return nil
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}
