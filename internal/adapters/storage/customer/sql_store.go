package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/customer"
)

const table = "customers"

var columns = []string{
	"id", "name", "phone", "email", "previous_phones", "visit_count",
	"first_visit_at", "last_visit_at", "created_at", "updated_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new customer store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) get(ctx context.Context, where sq.Eq) (domain.Customer, error) {
	query, args, err := s.dialect.Builder().Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return domain.Customer{}, err
	}
	c, err := scanCustomer(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, fmt.Errorf("customer not found: %w", err)
	}
	return c, err
}

// GetByID retrieves a customer by ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	return s.get(ctx, sq.Eq{"id": id})
}

// GetByPhone retrieves a customer by normalized phone.
func (s *SQLStore) GetByPhone(ctx context.Context, phone string) (domain.Customer, error) {
	return s.get(ctx, sq.Eq{"phone": phone})
}

func (s *SQLStore) upsert(c domain.Customer) sq.InsertBuilder {
	return s.dialect.Builder().Insert(table).Columns(columns...).Values(
		c.ID, c.Name, c.Phone, c.Email, storage.EncodeStrings(c.PreviousPhones), c.VisitCount,
		storage.FormatTime(c.FirstVisitAt), storage.FormatTime(c.LastVisitAt),
		storage.FormatTime(c.CreatedAt), storage.FormatTime(c.UpdatedAt),
	).Suffix(storage.UpsertSuffix("id", columns[:len(columns)-2]...) + ", updated_at=excluded.updated_at")
}

// Save persists a customer (insert or update).
// PRE: customer has been validated
func (s *SQLStore) Save(ctx context.Context, c domain.Customer) error {
	if _, err := storage.Exec(ctx, s.db, s.upsert(c)); err != nil {
		return fmt.Errorf("save customer: %w", err)
	}
	return nil
}

// List returns one page of customers matching query on name or phone.
// POST: default order is most recently updated first
func (s *SQLStore) List(ctx context.Context, query string, p storage.Page) ([]domain.Customer, int, error) {
	w := sq.And{}
	if query != "" {
		w = append(w, s.dialect.Search(query, "name", "phone", "previous_phones"))
	}
	total, err := storage.Count(ctx, s.db, s.dialect, table, w)
	if err != nil {
		return nil, 0, err
	}
	q := p.Apply(s.dialect.Builder().Select(columns...).From(table).Where(w), SortColumns, "updated_at DESC, id ASC")
	out, err := s.query(ctx, q)
	return out, total, err
}

// ListAll returns every customer ordered by created_at.
func (s *SQLStore) ListAll(ctx context.Context) ([]domain.Customer, error) {
	return s.query(ctx, s.dialect.Builder().Select(columns...).From(table).OrderBy("created_at ASC", "id ASC"))
}

// Merge stores target, moves sourceID's bookings to target and deletes
// sourceID in one transaction.
// PRE: target already absorbed the source profile
// POST: Returns the number of bookings moved; nothing changes on error
func (s *SQLStore) Merge(ctx context.Context, target domain.Customer, sourceID string) (int, error) {
	var moved int
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		b := s.dialect.Builder()
		res, err := storage.Exec(ctx, tx, b.Update("bookings").
			Set("customer_profile_id", target.ID).
			Set("updated_at", storage.FormatTime(time.Now())).
			Where(sq.Eq{"customer_profile_id": sourceID}))
		if err != nil {
			return fmt.Errorf("move bookings: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		moved = int(n)

		// The source row goes first so its phone is free if the target takes it over.
		res, err = storage.Exec(ctx, tx, b.Delete(table).Where(sq.Eq{"id": sourceID}))
		if err != nil {
			return fmt.Errorf("delete source customer: %w", err)
		}
		if err := storage.Affected(res, "source customer"); err != nil {
			return err
		}
		if _, err := storage.Exec(ctx, tx, s.upsert(target)); err != nil {
			return fmt.Errorf("save target customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

func (s *SQLStore) query(ctx context.Context, q sq.SelectBuilder) ([]domain.Customer, error) {
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var out []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCustomer(row storage.Scanner) (domain.Customer, error) {
	var c domain.Customer
	var prev, first, last, created, updated string
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &prev, &c.VisitCount,
		&first, &last, &created, &updated); err != nil {
		return domain.Customer{}, err
	}
	c.PreviousPhones = storage.DecodeStrings(prev)
	c.FirstVisitAt = storage.ParseTime(first)
	c.LastVisitAt = storage.ParseTime(last)
	c.CreatedAt = storage.ParseTime(created)
	c.UpdatedAt = storage.ParseTime(updated)
	return c, nil
}
