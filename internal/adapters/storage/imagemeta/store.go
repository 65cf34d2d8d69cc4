package imagemeta

import (
	"context"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/imagemeta"
)

// Store defines the interface for image metadata persistence.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Metadata, error)
	Save(ctx context.Context, m domain.Metadata) error
	List(ctx context.Context, query, category string, p storage.Page) ([]domain.Metadata, int, error)
}
