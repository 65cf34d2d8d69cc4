package quiz

import (
	"context"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/quiz"
)

// Store defines the interface for quiz result persistence.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Result, error)
	Save(ctx context.Context, r domain.Result) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query string, p storage.Page) ([]domain.Result, int, error)
	ListAll(ctx context.Context) ([]domain.Result, error)
}
