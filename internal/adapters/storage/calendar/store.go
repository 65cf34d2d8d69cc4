package calendar

import (
	"context"

	domain "masgolf/internal/domain/calendar"
)

// Filter narrows a hub content listing.
type Filter struct {
	Year       int
	Month      int
	Status     string
	CampaignID string
}

// Store persists hub content rows and their channel derivative drafts.
type Store interface {
	// GetByID retrieves a hub item by ID.
	// POST: Returns the item or an error wrapping sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Item, error)

	// Save persists a hub item (insert or update).
	// PRE: item has been validated
	Save(ctx context.Context, item domain.Item) error

	// Delete removes a hub item and its channel drafts.
	Delete(ctx context.Context, id string) error

	// List returns hub items ordered by content date.
	List(ctx context.Context, f Filter) ([]domain.Item, error)

	// Exists reports whether a planned item with the same period and title is stored.
	Exists(ctx context.Context, year, month, week int, title string) (bool, error)

	// SavePost persists a kakao or naver_blog derivative draft.
	SavePost(ctx context.Context, p domain.ChannelPost) error

	// ListPosts returns the channel drafts derived from a hub item.
	ListPosts(ctx context.Context, hubID string) ([]domain.ChannelPost, error)
}
