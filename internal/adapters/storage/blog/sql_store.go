package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/blog"
)

const table = "blog_posts"

var columns = []string{
	"id", "slug", "title", "content", "excerpt", "category", "tags", "status", "meta_title",
	"meta_description", "author", "hub_content_id", "published_at", "created_at", "updated_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new blog post store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) get(ctx context.Context, where sq.Eq) (domain.Post, error) {
	query, args, err := s.dialect.Builder().Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return domain.Post{}, err
	}
	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Post{}, fmt.Errorf("post not found: %w", err)
	}
	return p, err
}

// GetByID retrieves a post by ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Post, error) {
	return s.get(ctx, sq.Eq{"id": id})
}

// GetBySlug retrieves a post by slug.
func (s *SQLStore) GetBySlug(ctx context.Context, slug string) (domain.Post, error) {
	return s.get(ctx, sq.Eq{"slug": slug})
}

// SlugTaken reports whether slug belongs to a post other than exceptID.
func (s *SQLStore) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	where := sq.And{sq.Eq{"slug": slug}}
	if exceptID != "" {
		where = append(where, sq.NotEq{"id": exceptID})
	}
	n, err := storage.Count(ctx, s.db, s.dialect, table, where)
	return n > 0, err
}

// Save persists a post (insert or update).
// PRE: post has been validated and its slug is unique
func (s *SQLStore) Save(ctx context.Context, p domain.Post) error {
	ins := s.dialect.Builder().Insert(table).Columns(columns...).Values(
		p.ID, p.Slug, p.Title, p.Content, p.Excerpt, p.Category, storage.EncodeStrings(p.Tags), p.Status,
		p.MetaTitle, p.MetaDescription, p.Author, p.HubContentID, storage.FormatTime(p.PublishedAt),
		storage.FormatTime(p.CreatedAt), storage.FormatTime(p.UpdatedAt),
	).Suffix(storage.UpsertSuffix("id", columns[:len(columns)-2]...) + ", updated_at=excluded.updated_at")
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

// Delete removes a post.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return storage.Affected(res, "post")
}

// List returns one page of posts. Published listings order by published_at.
func (s *SQLStore) List(ctx context.Context, f Filter, p storage.Page) ([]domain.Post, int, error) {
	w := sq.And{}
	if f.Query != "" {
		w = append(w, s.dialect.Search(f.Query, "title", "content", "tags"))
	}
	if f.Status != "" {
		w = append(w, sq.Eq{"status": f.Status})
	}
	if f.Category != "" {
		w = append(w, sq.Eq{"category": f.Category})
	}
	total, err := storage.Count(ctx, s.db, s.dialect, table, w)
	if err != nil {
		return nil, 0, err
	}

	order := "updated_at DESC, id ASC"
	if f.Status == domain.StatusPublished {
		order = "published_at DESC, id ASC"
	}
	q := p.Apply(s.dialect.Builder().Select(columns...).From(table).Where(w),
		[]string{"title", "created_at", "updated_at", "published_at"}, order)

	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()
	var out []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, post)
	}
	return out, total, rows.Err()
}

func scanPost(row storage.Scanner) (domain.Post, error) {
	var p domain.Post
	var tags, published, created, updated string
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &p.Excerpt, &p.Category, &tags, &p.Status,
		&p.MetaTitle, &p.MetaDescription, &p.Author, &p.HubContentID, &published, &created, &updated); err != nil {
		return domain.Post{}, err
	}
	p.Tags = storage.DecodeStrings(tags)
	p.PublishedAt = storage.ParseTime(published)
	p.CreatedAt = storage.ParseTime(created)
	p.UpdatedAt = storage.ParseTime(updated)
	return p, nil
}
