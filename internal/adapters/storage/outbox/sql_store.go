package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/outbox"
)

const table = "outbox"

var columns = []string{
	"id", "action_type", "payload", "status", "attempts", "max_attempts",
	"last_attempted_at", "created_at", "external_id", "error_message", "next_attempt_at",
}

// SQLStore implements the outbox Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new outbox store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	query, args, err := s.dialect.Builder().Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Entry{}, err
	}
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("outbox entry not found: %w", err)
	}
	return e, err
}

// Save persists an outbox entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, e domain.Entry) error {
	ins := s.dialect.Builder().Insert(table).Columns(columns...).Values(
		e.ID, e.ActionType, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		storage.FormatTime(e.LastAttemptedAt), storage.FormatTime(e.CreatedAt), e.ExternalID, e.ErrorMessage,
		toMillis(e.NextAttemptAt),
	).Suffix(storage.UpsertSuffix("id", "action_type", "payload", "status", "attempts", "max_attempts",
		"last_attempted_at", "external_id", "error_message", "next_attempt_at"))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save outbox entry: %w", err)
	}
	return nil
}

// ListPending returns pending or retrying entries whose next attempt is
// due at now. Entries still in backoff are never read.
// PRE: limit > 0
// POST: Returns up to limit due entries ordered by created_at
func (s *SQLStore) ListPending(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error) {
	return s.query(ctx, s.dialect.Builder().Select(columns...).From(table).
		Where(sq.Eq{"status": []string{domain.StatusPending, domain.StatusRetrying}}).
		Where(sq.LtOrEq{"next_attempt_at": toMillis(now)}).
		OrderBy("created_at ASC").Limit(uint64(limit)))
}

// ListByStatus returns entries in status, newest first; empty status lists all.
func (s *SQLStore) ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error) {
	q := s.dialect.Builder().Select(columns...).From(table).OrderBy("created_at DESC")
	if status != "" {
		q = q.Where(sq.Eq{"status": status})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return s.query(ctx, q)
}

// CountByStatus returns how many entries are in status.
func (s *SQLStore) CountByStatus(ctx context.Context, status string) (int, error) {
	return storage.Count(ctx, s.db, s.dialect, table, sq.Eq{"status": status})
}

// Delete removes a done or abandoned entry.
// PRE: id is non-empty
// POST: Entry is removed; live entries are left alone and report not found
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Delete(table).Where(sq.Eq{
		"id":     id,
		"status": []string{domain.StatusDone, domain.StatusAbandoned},
	}))
	if err != nil {
		return fmt.Errorf("delete outbox entry: %w", err)
	}
	return storage.Affected(res, "outbox entry")
}

func (s *SQLStore) query(ctx context.Context, q sq.SelectBuilder) ([]domain.Entry, error) {
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()
	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanEntry scans a single row into an Entry.
func scanEntry(row storage.Scanner) (domain.Entry, error) {
	var e domain.Entry
	var createdAt, lastAttemptedAt string
	var nextAttempt int64
	err := row.Scan(&e.ID, &e.ActionType, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.ExternalID, &e.ErrorMessage, &nextAttempt)
	if err != nil {
		return domain.Entry{}, err
	}
	e.CreatedAt = storage.ParseTime(createdAt)
	e.LastAttemptedAt = storage.ParseTime(lastAttemptedAt)
	if nextAttempt > 0 {
		e.NextAttemptAt = time.UnixMilli(nextAttempt).UTC()
	}
	return e, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
