package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/contact"
)

const table = "contacts"

var columns = []string{
	"id", "name", "phone", "call_times", "inquiry", "campaign_source", "contacted", "contacted_at", "created_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new contact store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// GetByID retrieves a contact request by ID.
// POST: Returns the contact or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Contact, error) {
	query, args, err := s.dialect.Builder().Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Contact{}, err
	}
	c, err := scanContact(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, fmt.Errorf("contact not found: %w", err)
	}
	return c, err
}

// Save persists a contact request (insert or update).
// PRE: contact has been validated
func (s *SQLStore) Save(ctx context.Context, c domain.Contact) error {
	ins := s.dialect.Builder().Insert(table).Columns(columns...).Values(
		c.ID, c.Name, c.Phone, c.CallTimes, c.Inquiry, c.CampaignSource, c.Contacted,
		storage.FormatTime(c.ContactedAt), storage.FormatTime(c.CreatedAt),
	).Suffix(storage.UpsertSuffix("id", columns[:len(columns)-1]...))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save contact: %w", err)
	}
	return nil
}

// Delete removes a contact request.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return storage.Affected(res, "contact")
}

func (s *SQLStore) where(f Filter) sq.And {
	w := sq.And{}
	if f.Query != "" {
		w = append(w, s.dialect.Search(f.Query, "name", "phone", "inquiry"))
	}
	if f.Contacted != nil {
		w = append(w, sq.Eq{"contacted": *f.Contacted})
	}
	return w
}

// List returns one page of contacts, newest first by default.
func (s *SQLStore) List(ctx context.Context, f Filter, p storage.Page) ([]domain.Contact, int, error) {
	w := s.where(f)
	total, err := storage.Count(ctx, s.db, s.dialect, table, w)
	if err != nil {
		return nil, 0, err
	}
	q := p.Apply(s.dialect.Builder().Select(columns...).From(table).Where(w), SortColumns, "created_at DESC, id ASC")
	out, err := s.query(ctx, q)
	return out, total, err
}

// Count returns the number of contacts matching f.
func (s *SQLStore) Count(ctx context.Context, f Filter) (int, error) {
	return storage.Count(ctx, s.db, s.dialect, table, s.where(f))
}

// ListAll returns every contact ordered by created_at.
func (s *SQLStore) ListAll(ctx context.Context) ([]domain.Contact, error) {
	return s.query(ctx, s.dialect.Builder().Select(columns...).From(table).OrderBy("created_at ASC", "id ASC"))
}

func (s *SQLStore) query(ctx context.Context, q sq.SelectBuilder) ([]domain.Contact, error) {
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanContact(row storage.Scanner) (domain.Contact, error) {
	var c domain.Contact
	var contactedAt, createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.CallTimes, &c.Inquiry, &c.CampaignSource,
		&c.Contacted, &contactedAt, &createdAt); err != nil {
		return domain.Contact{}, err
	}
	c.ContactedAt = storage.ParseTime(contactedAt)
	c.CreatedAt = storage.ParseTime(createdAt)
	return c, nil
}
