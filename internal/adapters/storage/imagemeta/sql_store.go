package imagemeta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/imagemeta"
)

const table = "image_metadata"

var columns = []string{
	"id", "image_url", "storage_path", "alt_text", "title", "description", "keywords", "category",
	"source", "provider", "prompt", "original_url", "width", "height", "file_size", "created_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new image metadata store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// GetByID retrieves image metadata by ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Metadata, error) {
	query, args, err := s.dialect.Builder().Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Metadata{}, err
	}
	m, err := scanMetadata(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Metadata{}, fmt.Errorf("image metadata not found: %w", err)
	}
	return m, err
}

// Save persists image metadata (insert or update).
func (s *SQLStore) Save(ctx context.Context, m domain.Metadata) error {
	ins := s.dialect.Builder().Insert(table).Columns(columns...).Values(
		m.ID, m.ImageURL, m.StoragePath, m.AltText, m.Title, m.Description, storage.EncodeStrings(m.Keywords),
		m.Category, m.Source, m.Provider, m.Prompt, m.OriginalURL, m.Width, m.Height, m.FileSize,
		storage.FormatTime(m.CreatedAt),
	).Suffix(storage.UpsertSuffix("id", columns[:len(columns)-1]...))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save image metadata: %w", err)
	}
	return nil
}

// List returns one page of image metadata, newest first.
func (s *SQLStore) List(ctx context.Context, query, category string, p storage.Page) ([]domain.Metadata, int, error) {
	w := sq.And{}
	if query != "" {
		w = append(w, s.dialect.Search(query, "alt_text", "title", "description", "keywords"))
	}
	if category != "" {
		w = append(w, sq.Eq{"category": category})
	}
	total, err := storage.Count(ctx, s.db, s.dialect, table, w)
	if err != nil {
		return nil, 0, err
	}
	q := p.Apply(s.dialect.Builder().Select(columns...).From(table).Where(w), []string{"created_at", "title"}, "created_at DESC, id ASC")
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list image metadata: %w", err)
	}
	defer rows.Close()
	var out []domain.Metadata
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func scanMetadata(row storage.Scanner) (domain.Metadata, error) {
	var m domain.Metadata
	var keywords, created string
	if err := row.Scan(&m.ID, &m.ImageURL, &m.StoragePath, &m.AltText, &m.Title, &m.Description, &keywords,
		&m.Category, &m.Source, &m.Provider, &m.Prompt, &m.OriginalURL, &m.Width, &m.Height, &m.FileSize,
		&created); err != nil {
		return domain.Metadata{}, err
	}
	m.Keywords = storage.DecodeStrings(keywords)
	m.CreatedAt = storage.ParseTime(created)
	return m, nil
}
