package booking

import (
	"context"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/booking"
)

// SortColumns are the columns a booking listing may be ordered by.
var SortColumns = []string{"date", "name", "status", "created_at", "updated_at"}

// Filter narrows a booking listing. Empty fields do not filter.
type Filter struct {
	Query      string // substring of name, phone or email
	Status     string
	DateFrom   string // inclusive, YYYY-MM-DD
	DateTo     string // inclusive, YYYY-MM-DD
	CustomerID string
}

// Store defines the interface for booking persistence.
type Store interface {
	// GetByID retrieves a booking by its ID.
	// PRE: id is non-empty
	// POST: Returns the booking or an error wrapping sql.ErrNoRows
	GetByID(ctx context.Context, id string) (domain.Booking, error)

	// Save persists a booking (insert or update).
	// PRE: booking has been validated
	Save(ctx context.Context, b domain.Booking) error

	// Delete removes a booking.
	// POST: Returns an error wrapping sql.ErrNoRows when nothing was deleted
	Delete(ctx context.Context, id string) error

	// List returns one page of bookings matching f and the total match count.
	List(ctx context.Context, f Filter, p storage.Page) ([]domain.Booking, int, error)

	// Count returns the number of bookings matching f.
	Count(ctx context.Context, f Filter) (int, error)

	// ListOccupying returns pending and confirmed bookings on date.
	ListOccupying(ctx context.Context, date string) ([]domain.Booking, error)

	// ListAll returns every booking ordered by created_at, for maintenance scans.
	ListAll(ctx context.Context) ([]domain.Booking, error)

	// SetCustomer links bookings to a customer profile.
	// POST: Returns the number of rows updated
	SetCustomer(ctx context.Context, bookingIDs []string, customerID string) (int, error)
}
