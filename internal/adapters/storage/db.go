package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// OpenOptions carries connection settings for Open.
type OpenOptions struct {
	Driver       string // "sqlite" or "postgres"
	DSN          string
	MaxOpenConns int
}

// Open opens a database connection for the given driver and verifies it.
// SQLite connections get WAL, busy timeout and foreign keys through pragmas.
// PRE: opts.Driver is a supported dialect
// POST: returns a pinged *sql.DB and its Dialect
func Open(ctx context.Context, opts OpenOptions) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(opts.Driver)
	if err != nil {
		return nil, "", err
	}

	dsn := opts.DSN
	if dialect == DialectSQLite {
		if dsn == "" {
			dsn = "masgolf.db"
		}
		if dsn != ":memory:" && !strings.Contains(dsn, "?") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("database unreachable: %w", err)
	}

	slog.Info("database_opened", "driver", string(dialect), "max_open_conns", maxOpen)
	return db, dialect, nil
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
// PRE: db is a valid connection
// POST: fn's writes are committed atomically or not at all
func WithTx(ctx context.Context, db SQLDB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("tx_rollback_failed", "error", rbErr.Error())
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
