package schedule

import (
	"context"

	domain "masgolf/internal/domain/schedule"
)

// Store persists booking settings, weekday operating hours and blocked slots.
type Store interface {
	// GetSettings returns the saved settings, or DefaultSettings when none are stored.
	GetSettings(ctx context.Context) (domain.Settings, error)

	// SaveSettings stores the single settings row.
	SaveSettings(ctx context.Context, s domain.Settings) error

	// ListHours returns operating hour rows for a weekday, or every weekday when day < 0.
	ListHours(ctx context.Context, day int) ([]domain.Hours, error)

	// SaveHours persists one operating hours row.
	SaveHours(ctx context.Context, h domain.Hours) error

	// DeleteHours removes an operating hours row.
	DeleteHours(ctx context.Context, id string) error

	// ListBlocks returns blocks on date, or every block when date is empty.
	ListBlocks(ctx context.Context, date string) ([]domain.Block, error)

	// SaveBlock persists a blocked slot.
	SaveBlock(ctx context.Context, b domain.Block) error

	// DeleteBlock removes a blocked slot.
	DeleteBlock(ctx context.Context, id string) error
}
