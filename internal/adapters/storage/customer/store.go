package customer

import (
	"context"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/customer"
)

// SortColumns are the columns a customer listing may be ordered by.
var SortColumns = []string{"name", "phone", "visit_count", "created_at", "updated_at", "last_visit_at"}

// Store defines the interface for customer profile persistence.
type Store interface {
	// GetByID retrieves a customer by ID.
	// POST: Returns the customer or an error wrapping sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Customer, error)

	// GetByPhone retrieves a customer by normalized phone.
	GetByPhone(ctx context.Context, phone string) (domain.Customer, error)

	// Save persists a customer (insert or update).
	// PRE: customer has been validated
	Save(ctx context.Context, c domain.Customer) error

	// List returns one page of customers matching query on name or phone.
	List(ctx context.Context, query string, p storage.Page) ([]domain.Customer, int, error)

	// ListAll returns every customer for maintenance scans.
	ListAll(ctx context.Context) ([]domain.Customer, error)

	// Merge stores target, moves sourceID's bookings to target and deletes
	// sourceID, all in one transaction.
	// PRE: target already absorbed the source profile
	// POST: Returns the number of bookings moved; nothing changes on error
	Merge(ctx context.Context, target domain.Customer, sourceID string) (int, error)
}
