package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/calendar"
)

const (
	itemTable = "content_calendar"
	postTable = "channel_posts"
)

var itemColumns = []string{
	"id", "year", "month", "week", "content_date", "season", "theme", "campaign_id", "content_type",
	"title", "content", "keywords", "hashtags", "status", "priority", "published_channels",
	"derived_content_count", "created_at", "updated_at",
}

var postColumns = []string{
	"id", "channel", "hub_content_id", "title", "content", "tags", "status", "scheduled_at", "created_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new content calendar store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// GetByID retrieves a hub item by ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Item, error) {
	query, args, err := s.dialect.Builder().Select(itemColumns...).From(itemTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Item{}, err
	}
	item, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, fmt.Errorf("content not found: %w", err)
	}
	return item, err
}

// Save persists a hub item (insert or update).
func (s *SQLStore) Save(ctx context.Context, i domain.Item) error {
	ins := s.dialect.Builder().Insert(itemTable).Columns(itemColumns...).Values(
		i.ID, i.Year, i.Month, i.Week, i.ContentDate, i.Season, i.Theme, i.CampaignID, i.ContentType,
		i.Title, i.Content, storage.EncodeStrings(i.Keywords), storage.EncodeStrings(i.Hashtags), i.Status,
		i.Priority, storage.EncodeStrings(i.PublishedChannels), i.DerivedContentCount,
		storage.FormatTime(i.CreatedAt), storage.FormatTime(i.UpdatedAt),
	).Suffix(storage.UpsertSuffix("id", itemColumns[:len(itemColumns)-2]...) + ", updated_at=excluded.updated_at")
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	return nil
}

// Delete removes a hub item and its channel drafts in one transaction.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		b := s.dialect.Builder()
		if _, err := storage.Exec(ctx, tx, b.Delete(postTable).Where(sq.Eq{"hub_content_id": id})); err != nil {
			return fmt.Errorf("delete channel posts: %w", err)
		}
		res, err := storage.Exec(ctx, tx, b.Delete(itemTable).Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("delete content: %w", err)
		}
		return storage.Affected(res, "content")
	})
}

// List returns hub items ordered by content date.
func (s *SQLStore) List(ctx context.Context, f Filter) ([]domain.Item, error) {
	w := sq.Eq{}
	if f.Year != 0 {
		w["year"] = f.Year
	}
	if f.Month != 0 {
		w["month"] = f.Month
	}
	if f.Status != "" {
		w["status"] = f.Status
	}
	if f.CampaignID != "" {
		w["campaign_id"] = f.CampaignID
	}
	q := s.dialect.Builder().Select(itemColumns...).From(itemTable).
		Where(w).OrderBy("content_date ASC", "week ASC", "id ASC")
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()
	var out []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Exists reports whether an item with the same period and title is stored.
func (s *SQLStore) Exists(ctx context.Context, year, month, week int, title string) (bool, error) {
	n, err := storage.Count(ctx, s.db, s.dialect, itemTable,
		sq.Eq{"year": year, "month": month, "week": week, "title": title})
	return n > 0, err
}

// SavePost persists a channel derivative draft.
func (s *SQLStore) SavePost(ctx context.Context, p domain.ChannelPost) error {
	ins := s.dialect.Builder().Insert(postTable).Columns(postColumns...).Values(
		p.ID, p.Channel, p.HubContentID, p.Title, p.Content, storage.EncodeStrings(p.Tags), p.Status,
		storage.FormatTime(p.ScheduledAt), storage.FormatTime(p.CreatedAt),
	).Suffix(storage.UpsertSuffix("id", postColumns[:len(postColumns)-1]...))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save channel post: %w", err)
	}
	return nil
}

// ListPosts returns the channel drafts derived from a hub item.
func (s *SQLStore) ListPosts(ctx context.Context, hubID string) ([]domain.ChannelPost, error) {
	q := s.dialect.Builder().Select(postColumns...).From(postTable).
		Where(sq.Eq{"hub_content_id": hubID}).OrderBy("channel ASC", "created_at ASC")
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list channel posts: %w", err)
	}
	defer rows.Close()
	var out []domain.ChannelPost
	for rows.Next() {
		var p domain.ChannelPost
		var tags, scheduled, created string
		if err := rows.Scan(&p.ID, &p.Channel, &p.HubContentID, &p.Title, &p.Content, &tags, &p.Status,
			&scheduled, &created); err != nil {
			return nil, err
		}
		p.Tags = storage.DecodeStrings(tags)
		p.ScheduledAt = storage.ParseTime(scheduled)
		p.CreatedAt = storage.ParseTime(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanItem(row storage.Scanner) (domain.Item, error) {
	var i domain.Item
	var keywords, hashtags, channels, created, updated string
	if err := row.Scan(&i.ID, &i.Year, &i.Month, &i.Week, &i.ContentDate, &i.Season, &i.Theme, &i.CampaignID,
		&i.ContentType, &i.Title, &i.Content, &keywords, &hashtags, &i.Status, &i.Priority, &channels,
		&i.DerivedContentCount, &created, &updated); err != nil {
		return domain.Item{}, err
	}
	i.Keywords = storage.DecodeStrings(keywords)
	i.Hashtags = storage.DecodeStrings(hashtags)
	i.PublishedChannels = storage.DecodeStrings(channels)
	i.CreatedAt = storage.ParseTime(created)
	i.UpdatedAt = storage.ParseTime(updated)
	return i, nil
}
