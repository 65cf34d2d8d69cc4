package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/booking"
)

const table = "bookings"

var columns = []string{
	"id", "name", "phone", "email", "date", "time", "duration", "club", "status", "memo",
	"quiz_result_id", "customer_profile_id", "campaign_source", "created_at", "updated_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new booking store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) selectAll() sq.SelectBuilder {
	return s.dialect.Builder().Select(columns...).From(table)
}

// GetByID retrieves a booking by its ID.
// PRE: id is non-empty
// POST: Returns the booking or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	query, args, err := s.selectAll().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Booking{}, err
	}
	b, err := scanBooking(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, fmt.Errorf("booking not found: %w", err)
	}
	return b, err
}

// Save persists a booking (insert or update).
// PRE: booking has been validated
// POST: row keyed by b.ID reflects b
func (s *SQLStore) Save(ctx context.Context, b domain.Booking) error {
	ins := s.dialect.Builder().Insert(table).Columns(columns...).Values(
		b.ID, b.Name, b.Phone, b.Email, b.Date, b.Time, b.Duration, b.Club, b.Status, b.Memo,
		b.QuizResultID, b.CustomerProfileID, b.CampaignSource,
		storage.FormatTime(b.CreatedAt), storage.FormatTime(b.UpdatedAt),
	).Suffix(storage.UpsertSuffix("id", columns[:len(columns)-2]...) + ", updated_at=excluded.updated_at")
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save booking: %w", err)
	}
	return nil
}

// Delete removes a booking.
// POST: Returns an error wrapping sql.ErrNoRows when nothing was deleted
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return storage.Affected(res, "booking")
}

func (s *SQLStore) where(f Filter) sq.And {
	w := sq.And{}
	if f.Query != "" {
		w = append(w, s.dialect.Search(f.Query, "name", "phone", "email"))
	}
	if f.Status != "" {
		w = append(w, sq.Eq{"status": f.Status})
	}
	if f.DateFrom != "" {
		w = append(w, sq.GtOrEq{"date": f.DateFrom})
	}
	if f.DateTo != "" {
		w = append(w, sq.LtOrEq{"date": f.DateTo})
	}
	if f.CustomerID != "" {
		w = append(w, sq.Eq{"customer_profile_id": f.CustomerID})
	}
	return w
}

// List returns one page of bookings matching f and the total match count.
// POST: default order is newest date and time first
func (s *SQLStore) List(ctx context.Context, f Filter, p storage.Page) ([]domain.Booking, int, error) {
	w := s.where(f)
	total, err := storage.Count(ctx, s.db, s.dialect, table, w)
	if err != nil {
		return nil, 0, err
	}
	q := p.Apply(s.selectAll().Where(w), SortColumns, "date DESC, time DESC, id ASC")
	out, err := s.query(ctx, q)
	return out, total, err
}

// Count returns the number of bookings matching f.
func (s *SQLStore) Count(ctx context.Context, f Filter) (int, error) {
	return storage.Count(ctx, s.db, s.dialect, table, s.where(f))
}

// ListOccupying returns pending and confirmed bookings on date.
func (s *SQLStore) ListOccupying(ctx context.Context, date string) ([]domain.Booking, error) {
	return s.query(ctx, s.selectAll().
		Where(sq.Eq{"date": date, "status": []string{domain.StatusPending, domain.StatusConfirmed}}).
		OrderBy("time ASC"))
}

// ListAll returns every booking ordered by created_at.
func (s *SQLStore) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return s.query(ctx, s.selectAll().OrderBy("created_at ASC", "id ASC"))
}

// SetCustomer links bookings to a customer profile.
// POST: Returns the number of rows updated
func (s *SQLStore) SetCustomer(ctx context.Context, bookingIDs []string, customerID string) (int, error) {
	if len(bookingIDs) == 0 {
		return 0, nil
	}
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Update(table).
		Set("customer_profile_id", customerID).
		Set("updated_at", storage.FormatTime(time.Now())).
		Where(sq.Eq{"id": bookingIDs}))
	if err != nil {
		return 0, fmt.Errorf("link bookings: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLStore) query(ctx context.Context, q sq.SelectBuilder) ([]domain.Booking, error) {
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row storage.Scanner) (domain.Booking, error) {
	var b domain.Booking
	var createdAt, updatedAt string
	err := row.Scan(&b.ID, &b.Name, &b.Phone, &b.Email, &b.Date, &b.Time, &b.Duration, &b.Club,
		&b.Status, &b.Memo, &b.QuizResultID, &b.CustomerProfileID, &b.CampaignSource,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.Booking{}, err
	}
	b.CreatedAt = storage.ParseTime(createdAt)
	b.UpdatedAt = storage.ParseTime(updatedAt)
	return b, nil
}
