// Package storagetest opens migrated in-memory databases for store tests.
package storagetest

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"masgolf/internal/adapters/storage"
)

// OpenSQLite returns a migrated in-memory SQLite database closed at test end.
// A single connection keeps every query on the same in-memory database.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(context.Background(), db, storage.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
