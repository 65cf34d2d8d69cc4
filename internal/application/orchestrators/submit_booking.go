package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/notify"
)

// BookingStoreForSubmit defines the store interface needed by SubmitBooking.
type BookingStoreForSubmit interface {
	Save(ctx context.Context, b booking.Booking) error
}

// SubmitBookingInput carries the public booking form.
type SubmitBookingInput struct {
	Name           string
	Phone          string
	Email          string
	Date           string
	Time           string
	Duration       int
	Club           string
	Memo           string
	QuizResultID   string
	CampaignSource string
}

// SubmitBookingDeps holds dependencies for SubmitBooking.
type SubmitBookingDeps struct {
	BookingStore BookingStoreForSubmit
	Notify       NotifyDeps
	Now          func() time.Time
}

// ExecuteSubmitBooking stores a pending booking and queues the staff alert.
// PRE: name, phone, date and time are provided
// POST: Booking persisted as pending; phone canonical when it parses
// INVARIANT: notification failures never fail the submission
func ExecuteSubmitBooking(ctx context.Context, input SubmitBookingInput, deps SubmitBookingDeps) (booking.Booking, error) {
	now := clock(deps.Now)
	b := booking.Booking{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Phone:          input.Phone,
		Email:          input.Email,
		Date:           input.Date,
		Time:           input.Time,
		Duration:       input.Duration,
		Club:           input.Club,
		Memo:           input.Memo,
		QuizResultID:   input.QuizResultID,
		CampaignSource: input.CampaignSource,
		Status:         booking.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.Normalize()
	if err := b.Validate(); err != nil {
		return booking.Booking{}, err
	}
	if err := deps.BookingStore.Save(ctx, b); err != nil {
		return booking.Booking{}, fmt.Errorf("save booking: %w", err)
	}
	slog.Info("booking_submitted", "booking_id", b.ID, "date", b.Date, "time", b.Time, "campaign_source", b.CampaignSource)
	deps.Notify.Metrics.FormSubmitted("booking")

	EnqueueNotification(ctx, Notification{
		Source:  "booking",
		Text:    notify.BookingText(b),
		Subject: notify.BookingSubject(b),
	}, deps.Notify, now)
	return b, nil
}
