package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"masgolf/internal/domain/customer"
)

// CustomerStoreForMerge defines the store interface needed by MergeCustomers.
type CustomerStoreForMerge interface {
	GetByID(ctx context.Context, id string) (customer.Customer, error)
	Merge(ctx context.Context, target customer.Customer, sourceID string) (int, error)
}

// MergeCustomersResult reports a completed merge.
type MergeCustomersResult struct {
	Target        customer.Customer `json:"target"`
	MovedBookings int               `json:"moved_bookings"`
}

// ExecuteMergeCustomers folds source into target: bookings move to target,
// previous phones are unioned, visit counts summed and source deleted.
// PRE: sourceID != targetID, both exist
// POST: source no longer exists; every former source booking points at target
// INVARIANT: the three writes commit together or not at all
func ExecuteMergeCustomers(ctx context.Context, sourceID, targetID string, store CustomerStoreForMerge, now func() time.Time) (MergeCustomersResult, error) {
	sourceID, targetID = strings.TrimSpace(sourceID), strings.TrimSpace(targetID)
	if sourceID == "" || targetID == "" {
		return MergeCustomersResult{}, customer.ErrMissingIDs
	}
	if sourceID == targetID {
		return MergeCustomersResult{}, customer.ErrSameCustomer
	}

	source, err := store.GetByID(ctx, sourceID)
	if err != nil {
		return MergeCustomersResult{}, mergeLookupErr(err)
	}
	target, err := store.GetByID(ctx, targetID)
	if err != nil {
		return MergeCustomersResult{}, mergeLookupErr(err)
	}

	if err := target.Absorb(source); err != nil {
		return MergeCustomersResult{}, err
	}
	target.UpdatedAt = clock(now)

	moved, err := store.Merge(ctx, target, source.ID)
	if err != nil {
		return MergeCustomersResult{}, fmt.Errorf("merge customers: %w", err)
	}
	slog.Info("customers_merged", "source_id", source.ID, "target_id", target.ID, "moved_bookings", moved,
		"previous_phones", len(target.PreviousPhones))
	return MergeCustomersResult{Target: target, MovedBookings: moved}, nil
}

func mergeLookupErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customer.ErrInvalidMerge
	}
	return fmt.Errorf("load customer: %w", err)
}
