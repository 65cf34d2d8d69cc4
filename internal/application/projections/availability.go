package projections

import (
	"context"
	"fmt"
	"time"

	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/schedule"
)

// AvailabilityDeps holds the stores GetAvailability reads.
type AvailabilityDeps struct {
	Schedule interface {
		GetSettings(ctx context.Context) (schedule.Settings, error)
		ListHours(ctx context.Context, day int) ([]schedule.Hours, error)
		ListBlocks(ctx context.Context, date string) ([]schedule.Block, error)
	}
	Bookings interface {
		ListOccupying(ctx context.Context, date string) ([]booking.Booking, error)
	}
	Location *time.Location
}

// GetAvailability loads settings, the weekday's hours, the date's blocks and
// occupying bookings, then computes the bookable start times.
// PRE: date is YYYY-MM-DD
func GetAvailability(ctx context.Context, date string, duration int, deps AvailabilityDeps, now time.Time) (schedule.Availability, error) {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("%w: %q", booking.ErrInvalidDate, date)
	}

	settings, err := deps.Schedule.GetSettings(ctx)
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("load booking settings: %w", err)
	}
	hours, err := deps.Schedule.ListHours(ctx, int(day.Weekday()))
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("load booking hours: %w", err)
	}
	blocks, err := deps.Schedule.ListBlocks(ctx, date)
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("load booking blocks: %w", err)
	}
	bookings, err := deps.Bookings.ListOccupying(ctx, date)
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("load bookings: %w", err)
	}
	occupied := make([]schedule.Occupied, 0, len(bookings))
	for _, b := range bookings {
		occupied = append(occupied, schedule.Occupied{Time: b.Time, Duration: b.Duration})
	}

	return schedule.Compute(schedule.Query{Date: date, Duration: duration, Now: now.In(loc)}, settings, hours, blocks, occupied)
}
