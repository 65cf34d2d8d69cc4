package account

import (
	"context"

	domain "masgolf/internal/domain/account"
)

// Store persists admin dashboard accounts.
type Store interface {
	// GetByID retrieves an account by ID.
	// POST: Returns the account or an error wrapping sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByPhone retrieves an account by its login phone.
	GetByPhone(ctx context.Context, phone string) (domain.Account, error)

	// Save persists an account (insert or update), including password hash
	// and lockout state.
	Save(ctx context.Context, a domain.Account) error

	// Delete removes an account.
	Delete(ctx context.Context, id string) error

	// List returns accounts ordered by name, optionally by role.
	List(ctx context.Context, role string) ([]domain.Account, error)

	// CountAdmins returns the number of active admin accounts.
	CountAdmins(ctx context.Context) (int, error)
}
