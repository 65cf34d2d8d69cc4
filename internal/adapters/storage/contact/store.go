package contact

import (
	"context"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/contact"
)

// SortColumns are the columns a contact listing may be ordered by.
var SortColumns = []string{"name", "created_at", "contacted_at"}

// Filter narrows a contact listing.
type Filter struct {
	Query     string
	Contacted *bool
}

// Store defines the interface for contact request persistence.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Contact, error)
	Save(ctx context.Context, c domain.Contact) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter, p storage.Page) ([]domain.Contact, int, error)
	Count(ctx context.Context, f Filter) (int, error)
	ListAll(ctx context.Context) ([]domain.Contact, error)
}
