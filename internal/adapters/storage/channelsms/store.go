package channelsms

import (
	"context"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/channelsms"
)

// Store defines the interface for channel_sms persistence.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Message, error)

	// GetByGroupID retrieves the record synced from a Solapi message group.
	// POST: Returns an error wrapping sql.ErrNoRows when the group was never synced
	GetByGroupID(ctx context.Context, groupID string) (domain.Message, error)

	Save(ctx context.Context, m domain.Message) error
	List(ctx context.Context, status string, p storage.Page) ([]domain.Message, int, error)
}
