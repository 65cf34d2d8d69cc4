package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"masgolf/internal/domain/calendar"
)

// ErrYearOutOfRange is returned for plan years outside 2000..2100.
var ErrYearOutOfRange = errors.New("year must be between 2000 and 2100")

// CalendarSeedStore checks and stores planned hub rows.
type CalendarSeedStore interface {
	Exists(ctx context.Context, year, month, week int, title string) (bool, error)
	Save(ctx context.Context, item calendar.Item) error
}

// ExecuteSeedCalendar persists the annual plan for year. Items already
// stored for the same month, week and title are skipped, so reruns are safe.
// PRE: plan was loaded with calendar.LoadPlan or ParsePlan
// POST: each planned item exists at most once
func ExecuteSeedCalendar(ctx context.Context, plan *calendar.Plan, year int, store CalendarSeedStore, dryRun bool, newID func() string, now func() time.Time) (MaintenanceResult, error) {
	res := MaintenanceResult{Command: "seed-calendar", DryRun: dryRun}
	if year < 2000 || year > 2100 {
		return res, fmt.Errorf("%w: %d", ErrYearOutOfRange, year)
	}
	stamp := clock(now)
	for _, item := range plan.Expand(year) {
		res.Scanned++
		exists, err := store.Exists(ctx, item.Year, item.Month, item.Week, item.Title)
		if err != nil {
			res.fail(fmt.Sprintf("%d-%02d week %d", item.Year, item.Month, item.Week), err)
			continue
		}
		if exists {
			res.Skipped++
			continue
		}
		item.ID = newID()
		item.PublishedChannels = []string{}
		item.CreatedAt, item.UpdatedAt = stamp, stamp
		res.change("%s %s", item.ContentDate, item.Title)
		if dryRun {
			continue
		}
		if err := store.Save(ctx, item); err != nil {
			res.fail(item.ContentDate+" "+item.Title, err)
		}
	}
	return res, nil
}
