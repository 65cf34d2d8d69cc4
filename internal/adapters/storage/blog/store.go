package blog

import (
	"context"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/blog"
)

// Filter narrows a post listing.
type Filter struct {
	Query    string
	Status   string
	Category string
}

// Store defines the interface for blog post persistence.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Post, error)
	GetBySlug(ctx context.Context, slug string) (domain.Post, error)

	// SlugTaken reports whether slug belongs to a post other than exceptID.
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)

	Save(ctx context.Context, p domain.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter, p storage.Page) ([]domain.Post, int, error)
}
