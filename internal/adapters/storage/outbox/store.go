package outbox

import (
	"context"
	"time"

	domain "masgolf/internal/domain/outbox"
)

// Store defines the interface for outbox entry persistence.
type Store interface {
	// GetByID retrieves an outbox entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or an error wrapping sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an outbox entry (insert or update).
	// PRE: entry has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns pending and retrying entries due at now, oldest first.
	// PRE: limit > 0
	ListPending(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error)

	// ListByStatus returns entries in status, newest first; empty status lists all.
	ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error)

	// CountByStatus returns how many entries are in status.
	CountByStatus(ctx context.Context, status string) (int, error)

	// Delete removes a done or abandoned entry.
	Delete(ctx context.Context, id string) error
}
