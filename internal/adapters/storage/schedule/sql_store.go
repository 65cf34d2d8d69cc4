package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/schedule"
)

var settingsColumns = []string{
	"id", "disable_same_day", "disable_weekend", "min_advance_hours", "max_advance_days",
	"max_weekly_slots", "show_call_message", "call_message_text",
}

var hoursColumns = []string{"id", "day_of_week", "start_time", "end_time", "is_available"}

var blockColumns = []string{"id", "date", "time", "duration", "is_virtual", "reason"}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new schedule store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// GetSettings returns the saved settings, or DefaultSettings when none are stored.
// POST: CallMessageText is never empty
func (s *SQLStore) GetSettings(ctx context.Context) (domain.Settings, error) {
	query, args, err := s.dialect.Builder().Select(settingsColumns...).From("booking_settings").
		Where(sq.Eq{"id": domain.SettingsID}).ToSql()
	if err != nil {
		return domain.Settings{}, err
	}
	var st domain.Settings
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&st.ID, &st.DisableSameDay, &st.DisableWeekend,
		&st.MinAdvanceHours, &st.MaxAdvanceDays, &st.MaxWeeklySlots, &st.ShowCallMessage, &st.CallMessageText)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load booking settings: %w", err)
	}
	if st.CallMessageText == "" {
		st.CallMessageText = domain.DefaultCallMessage
	}
	return st, nil
}

// SaveSettings stores the single settings row.
// PRE: settings have been validated
func (s *SQLStore) SaveSettings(ctx context.Context, st domain.Settings) error {
	ins := s.dialect.Builder().Insert("booking_settings").Columns(settingsColumns...).Values(
		domain.SettingsID, st.DisableSameDay, st.DisableWeekend, st.MinAdvanceHours, st.MaxAdvanceDays,
		st.MaxWeeklySlots, st.ShowCallMessage, st.CallMessageText,
	).Suffix(storage.UpsertSuffix("id", settingsColumns...))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save booking settings: %w", err)
	}
	return nil
}

// ListHours returns operating hour rows for a weekday, or all when day < 0.
func (s *SQLStore) ListHours(ctx context.Context, day int) ([]domain.Hours, error) {
	q := s.dialect.Builder().Select(hoursColumns...).From("booking_hours").OrderBy("day_of_week ASC", "start_time ASC")
	if day >= 0 {
		q = q.Where(sq.Eq{"day_of_week": day})
	}
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list booking hours: %w", err)
	}
	defer rows.Close()
	var out []domain.Hours
	for rows.Next() {
		var h domain.Hours
		if err := rows.Scan(&h.ID, &h.DayOfWeek, &h.StartTime, &h.EndTime, &h.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SaveHours persists one operating hours row.
// PRE: hours have been validated
func (s *SQLStore) SaveHours(ctx context.Context, h domain.Hours) error {
	ins := s.dialect.Builder().Insert("booking_hours").Columns(hoursColumns...).
		Values(h.ID, h.DayOfWeek, h.StartTime, h.EndTime, h.IsAvailable).
		Suffix(storage.UpsertSuffix("id", hoursColumns...))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save booking hours: %w", err)
	}
	return nil
}

// DeleteHours removes an operating hours row.
func (s *SQLStore) DeleteHours(ctx context.Context, id string) error {
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Delete("booking_hours").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete booking hours: %w", err)
	}
	return storage.Affected(res, "booking hours")
}

// ListBlocks returns blocks on date, or every block when date is empty.
func (s *SQLStore) ListBlocks(ctx context.Context, date string) ([]domain.Block, error) {
	q := s.dialect.Builder().Select(blockColumns...).From("booking_blocks").OrderBy("date ASC", "time ASC")
	if date != "" {
		q = q.Where(sq.Eq{"date": date})
	}
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list booking blocks: %w", err)
	}
	defer rows.Close()
	var out []domain.Block
	for rows.Next() {
		var b domain.Block
		if err := rows.Scan(&b.ID, &b.Date, &b.Time, &b.Duration, &b.IsVirtual, &b.Reason); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SaveBlock persists a blocked slot.
// PRE: block has been validated
func (s *SQLStore) SaveBlock(ctx context.Context, b domain.Block) error {
	ins := s.dialect.Builder().Insert("booking_blocks").Columns(blockColumns...).
		Values(b.ID, b.Date, b.Time, b.Duration, b.IsVirtual, b.Reason).
		Suffix(storage.UpsertSuffix("id", blockColumns...))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save booking block: %w", err)
	}
	return nil
}

// DeleteBlock removes a blocked slot.
func (s *SQLStore) DeleteBlock(ctx context.Context, id string) error {
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Delete("booking_blocks").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete booking block: %w", err)
	}
	return storage.Affected(res, "booking block")
}
