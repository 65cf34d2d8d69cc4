package channelsms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/channelsms"
)

const table = "channel_sms"

var columns = []string{
	"id", "solapi_group_id", "message_text", "message_type", "status", "call_to_action", "sent_at",
	"sent_count", "success_count", "fail_count", "recipient_numbers", "image_url", "hub_content_id",
	"scheduled_at", "created_at", "updated_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new channel_sms store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) get(ctx context.Context, where sq.Eq) (domain.Message, error) {
	query, args, err := s.dialect.Builder().Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return domain.Message{}, err
	}
	m, err := scanMessage(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Message{}, fmt.Errorf("sms record not found: %w", err)
	}
	return m, err
}

// GetByID retrieves a record by ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Message, error) {
	return s.get(ctx, sq.Eq{"id": id})
}

// GetByGroupID retrieves the record synced from a Solapi message group.
// PRE: groupID is non-empty
func (s *SQLStore) GetByGroupID(ctx context.Context, groupID string) (domain.Message, error) {
	if groupID == "" {
		return domain.Message{}, domain.ErrEmptyGroupID
	}
	return s.get(ctx, sq.Eq{"solapi_group_id": groupID})
}

// Save persists a record (insert or update by ID).
// PRE: record has been validated; a set solapi_group_id is unique
func (s *SQLStore) Save(ctx context.Context, m domain.Message) error {
	ins := s.dialect.Builder().Insert(table).Columns(columns...).Values(
		m.ID, m.SolapiGroupID, m.MessageText, m.MessageType, m.Status, m.CallToAction,
		storage.FormatTime(m.SentAt), m.SentCount, m.SuccessCount, m.FailCount,
		storage.EncodeStrings(m.RecipientNumbers), m.ImageURL, m.HubContentID,
		storage.FormatTime(m.ScheduledAt), storage.FormatTime(m.CreatedAt), storage.FormatTime(m.UpdatedAt),
	).Suffix(storage.UpsertSuffix("id", columns[:len(columns)-2]...) + ", updated_at=excluded.updated_at")
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save sms record: %w", err)
	}
	return nil
}

// List returns one page of records, most recently sent first.
func (s *SQLStore) List(ctx context.Context, status string, p storage.Page) ([]domain.Message, int, error) {
	w := sq.And{}
	if status != "" {
		w = append(w, sq.Eq{"status": status})
	}
	total, err := storage.Count(ctx, s.db, s.dialect, table, w)
	if err != nil {
		return nil, 0, err
	}
	q := p.Apply(s.dialect.Builder().Select(columns...).From(table).Where(w),
		[]string{"sent_at", "created_at", "success_count"}, "sent_at DESC, created_at DESC, id ASC")
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list sms records: %w", err)
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func scanMessage(row storage.Scanner) (domain.Message, error) {
	var m domain.Message
	var sent, recipients, scheduled, created, updated string
	if err := row.Scan(&m.ID, &m.SolapiGroupID, &m.MessageText, &m.MessageType, &m.Status, &m.CallToAction,
		&sent, &m.SentCount, &m.SuccessCount, &m.FailCount, &recipients, &m.ImageURL, &m.HubContentID,
		&scheduled, &created, &updated); err != nil {
		return domain.Message{}, err
	}
	m.SentAt = storage.ParseTime(sent)
	m.RecipientNumbers = storage.DecodeStrings(recipients)
	m.ScheduledAt = storage.ParseTime(scheduled)
	m.CreatedAt = storage.ParseTime(created)
	m.UpdatedAt = storage.ParseTime(updated)
	return m, nil
}
