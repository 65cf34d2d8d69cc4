package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/contact"
)

// BookingStoreForAdmin defines the store interface needed by booking edits.
type BookingStoreForAdmin interface {
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	Save(ctx context.Context, b booking.Booking) error
}

// UpdateBookingInput carries an admin edit. Nil fields are unchanged.
type UpdateBookingInput struct {
	ID       string
	Status   *string
	Memo     *string
	Date     *string
	Time     *string
	Duration *int
	Club     *string
}

// UpdateBookingDeps holds dependencies for UpdateBooking.
type UpdateBookingDeps struct {
	BookingStore BookingStoreForAdmin
	Now          func() time.Time
}

// ExecuteUpdateBooking applies an admin edit to a booking.
// PRE: ID names an existing booking
// POST: Booking saved with UpdatedAt refreshed
func ExecuteUpdateBooking(ctx context.Context, input UpdateBookingInput, deps UpdateBookingDeps) (booking.Booking, error) {
	b, err := deps.BookingStore.GetByID(ctx, input.ID)
	if err != nil {
		return booking.Booking{}, err
	}
	before := b.Status
	if input.Status != nil {
		if err := b.SetStatus(*input.Status); err != nil {
			return booking.Booking{}, err
		}
	}
	if input.Memo != nil {
		b.Memo = *input.Memo
	}
	if input.Date != nil {
		b.Date = *input.Date
	}
	if input.Time != nil {
		b.Time = booking.NormalizeTime(*input.Time)
	}
	if input.Duration != nil {
		b.Duration = *input.Duration
	}
	if input.Club != nil {
		b.Club = *input.Club
	}
	if err := b.Validate(); err != nil {
		return booking.Booking{}, err
	}
	b.UpdatedAt = clock(deps.Now)
	if err := deps.BookingStore.Save(ctx, b); err != nil {
		return booking.Booking{}, fmt.Errorf("save booking: %w", err)
	}
	slog.Info("booking_updated", "booking_id", b.ID, "status_from", before, "status_to", b.Status)
	return b, nil
}

// ContactStoreForAdmin defines the store interface needed by contact edits.
type ContactStoreForAdmin interface {
	GetByID(ctx context.Context, id string) (contact.Contact, error)
	Save(ctx context.Context, c contact.Contact) error
}

// ExecuteSetContacted toggles the called-back flag on a contact.
// POST: ContactedAt is set when contacted and cleared otherwise
func ExecuteSetContacted(ctx context.Context, id string, contacted bool, store ContactStoreForAdmin, now func() time.Time) (contact.Contact, error) {
	c, err := store.GetByID(ctx, id)
	if err != nil {
		return contact.Contact{}, err
	}
	c.MarkContacted(contacted, clock(now))
	if err := store.Save(ctx, c); err != nil {
		return contact.Contact{}, fmt.Errorf("save contact: %w", err)
	}
	slog.Info("contact_updated", "contact_id", c.ID, "contacted", contacted)
	return c, nil
}
