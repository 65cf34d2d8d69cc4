package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/quiz"
)

const table = "quiz_results"

var columns = []string{
	"id", "name", "phone", "email", "swing_style", "priority", "current_distance",
	"recommended_flex", "expected_distance", "campaign_source", "created_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new quiz result store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// GetByID retrieves a quiz result by ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Result, error) {
	query, args, err := s.dialect.Builder().Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Result{}, err
	}
	r, err := scanResult(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Result{}, fmt.Errorf("quiz result not found: %w", err)
	}
	return r, err
}

// Save persists a quiz result (insert or update).
func (s *SQLStore) Save(ctx context.Context, r domain.Result) error {
	ins := s.dialect.Builder().Insert(table).Columns(columns...).Values(
		r.ID, r.Name, r.Phone, r.Email, r.SwingStyle, r.Priority, r.CurrentDistance,
		r.RecommendedFlex, r.ExpectedDistance, r.CampaignSource, storage.FormatTime(r.CreatedAt),
	).Suffix(storage.UpsertSuffix("id", columns[:len(columns)-1]...))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save quiz result: %w", err)
	}
	return nil
}

// Delete removes a quiz result.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete quiz result: %w", err)
	}
	return storage.Affected(res, "quiz result")
}

// List returns one page of quiz results, newest first.
func (s *SQLStore) List(ctx context.Context, query string, p storage.Page) ([]domain.Result, int, error) {
	w := sq.And{}
	if query != "" {
		w = append(w, s.dialect.Search(query, "name", "phone"))
	}
	total, err := storage.Count(ctx, s.db, s.dialect, table, w)
	if err != nil {
		return nil, 0, err
	}
	q := p.Apply(s.dialect.Builder().Select(columns...).From(table).Where(w), []string{"name", "created_at"}, "created_at DESC, id ASC")
	out, err := s.query(ctx, q)
	return out, total, err
}

// ListAll returns every quiz result ordered by created_at.
func (s *SQLStore) ListAll(ctx context.Context) ([]domain.Result, error) {
	return s.query(ctx, s.dialect.Builder().Select(columns...).From(table).OrderBy("created_at ASC", "id ASC"))
}

func (s *SQLStore) query(ctx context.Context, q sq.SelectBuilder) ([]domain.Result, error) {
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	defer rows.Close()
	var out []domain.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResult(row storage.Scanner) (domain.Result, error) {
	var r domain.Result
	var createdAt string
	if err := row.Scan(&r.ID, &r.Name, &r.Phone, &r.Email, &r.SwingStyle, &r.Priority, &r.CurrentDistance,
		&r.RecommendedFlex, &r.ExpectedDistance, &r.CampaignSource, &createdAt); err != nil {
		return domain.Result{}, err
	}
	r.CreatedAt = storage.ParseTime(createdAt)
	return r, nil
}
