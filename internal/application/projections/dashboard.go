package projections

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"masgolf/internal/adapters/storage"
	bookingStore "masgolf/internal/adapters/storage/booking"
	contactStore "masgolf/internal/adapters/storage/contact"
	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/customer"
	"masgolf/internal/domain/outbox"
	"masgolf/internal/domain/quiz"
)

// DashboardDeps holds the stores the dashboard counts.
type DashboardDeps struct {
	Bookings interface {
		Count(ctx context.Context, f bookingStore.Filter) (int, error)
	}
	Contacts interface {
		Count(ctx context.Context, f contactStore.Filter) (int, error)
	}
	Customers interface {
		List(ctx context.Context, query string, p storage.Page) ([]customer.Customer, int, error)
	}
	Quiz interface {
		List(ctx context.Context, query string, p storage.Page) ([]quiz.Result, int, error)
	}
	Outbox interface {
		CountByStatus(ctx context.Context, status string) (int, error)
	}
	Location *time.Location
}

// Dashboard is the admin landing summary.
type Dashboard struct {
	BookingsTotal       int `json:"bookings_total"`
	BookingsPending     int `json:"bookings_pending"`
	BookingsToday       int `json:"bookings_today"`
	ContactsUncontacted int `json:"contacts_uncontacted"`
	Customers           int `json:"customers"`
	QuizResults         int `json:"quiz_results"`
	OutboxFailed        int `json:"outbox_failed"`
}

// GetDashboard runs the dashboard counts concurrently.
// POST: any failing count fails the whole dashboard
func GetDashboard(ctx context.Context, deps DashboardDeps, now time.Time) (Dashboard, error) {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc).Format("2006-01-02")
	no := false
	var d Dashboard

	g, gctx := errgroup.WithContext(ctx)
	count := func(name string, dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}
	count("bookings", &d.BookingsTotal, func(ctx context.Context) (int, error) {
		return deps.Bookings.Count(ctx, bookingStore.Filter{})
	})
	count("pending bookings", &d.BookingsPending, func(ctx context.Context) (int, error) {
		return deps.Bookings.Count(ctx, bookingStore.Filter{Status: booking.StatusPending})
	})
	count("today's bookings", &d.BookingsToday, func(ctx context.Context) (int, error) {
		return deps.Bookings.Count(ctx, bookingStore.Filter{DateFrom: today, DateTo: today})
	})
	count("contacts", &d.ContactsUncontacted, func(ctx context.Context) (int, error) {
		return deps.Contacts.Count(ctx, contactStore.Filter{Contacted: &no})
	})
	count("customers", &d.Customers, func(ctx context.Context) (int, error) {
		_, n, err := deps.Customers.List(ctx, "", storage.Page{Limit: 1})
		return n, err
	})
	count("quiz results", &d.QuizResults, func(ctx context.Context) (int, error) {
		_, n, err := deps.Quiz.List(ctx, "", storage.Page{Limit: 1})
		return n, err
	})
	count("failed outbox", &d.OutboxFailed, func(ctx context.Context) (int, error) {
		return deps.Outbox.CountByStatus(ctx, outbox.StatusFailed)
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// BookingDateRange maps the admin date_filter (today, week, month, all) to
// an inclusive YYYY-MM-DD range in loc. Weeks start on Monday. Unknown
// filters and "all" return empty bounds.
func BookingDateRange(filter string, now time.Time, loc *time.Location) (from, to string) {
	if loc == nil {
		loc = time.UTC
	}
	day := now.In(loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	const layout = "2006-01-02"
	switch filter {
	case "today":
		return day.Format(layout), day.Format(layout)
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start.Format(layout), start.AddDate(0, 0, 6).Format(layout)
	case "month":
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		return start.Format(layout), start.AddDate(0, 1, -1).Format(layout)
	}
	return "", ""
}

