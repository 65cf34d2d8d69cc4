package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/contact"
	"masgolf/internal/domain/contactinfo"
	"masgolf/internal/domain/customer"
	"masgolf/internal/domain/quiz"
)

// MaintenanceResult summarizes one repair command. Per-row failures are
// collected rather than aborting the scan.
type MaintenanceResult struct {
	Command string   `json:"command" yaml:"command"`
	DryRun  bool     `json:"dry_run" yaml:"dry_run"`
	Scanned int      `json:"scanned" yaml:"scanned"`
	Changed int      `json:"changed" yaml:"changed"`
	Skipped int      `json:"skipped" yaml:"skipped"`
	Failed  int      `json:"failed" yaml:"failed"`
	Changes []string `json:"changes,omitempty" yaml:"changes,omitempty"`
	Errors  []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (r *MaintenanceResult) change(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Changed++
	r.Changes = append(r.Changes, msg)
	slog.Info("maintenance_change", "command", r.Command, "dry_run", r.DryRun, "change", msg)
}

func (r *MaintenanceResult) fail(what string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", what, err))
	slog.Warn("maintenance_row_failed", "command", r.Command, "row", what, "error", err.Error())
}

func (r *MaintenanceResult) skip(format string, args ...any) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// MaintenanceStores is the store surface the repair commands scan.
type MaintenanceStores struct {
	Bookings  MaintenanceBookingStore
	Contacts  MaintenanceContactStore
	Customers MaintenanceCustomerStore
	Quiz      MaintenanceQuizStore
}

// MaintenanceBookingStore lists and rewrites bookings.
type MaintenanceBookingStore interface {
	ListAll(ctx context.Context) ([]booking.Booking, error)
	Save(ctx context.Context, b booking.Booking) error
	Delete(ctx context.Context, id string) error
	SetCustomer(ctx context.Context, bookingIDs []string, customerID string) (int, error)
}

// MaintenanceContactStore lists and rewrites contacts.
type MaintenanceContactStore interface {
	ListAll(ctx context.Context) ([]contact.Contact, error)
	Save(ctx context.Context, c contact.Contact) error
	Delete(ctx context.Context, id string) error
}

// MaintenanceCustomerStore lists and rewrites customers.
type MaintenanceCustomerStore interface {
	ListAll(ctx context.Context) ([]customer.Customer, error)
	Save(ctx context.Context, c customer.Customer) error
}

// MaintenanceQuizStore lists and rewrites quiz results.
type MaintenanceQuizStore interface {
	ListAll(ctx context.Context) ([]quiz.Result, error)
	Save(ctx context.Context, r quiz.Result) error
	Delete(ctx context.Context, id string) error
}

// ExecuteFixPhones rewrites phones that normalize to a different canonical
// form. Phones that do not parse are reported and left untouched.
// POST: every changed row holds contactinfo.NormalizePhone of its old value
func ExecuteFixPhones(ctx context.Context, stores MaintenanceStores, dryRun bool) (MaintenanceResult, error) {
	res := MaintenanceResult{Command: "fix-phones", DryRun: dryRun}
	check := func(kind, id, phone string) (string, bool) {
		res.Scanned++
		n, ok := contactinfo.NormalizePhone(phone)
		if !ok {
			res.skip("%s %s: invalid phone %q", kind, id, phone)
			return "", false
		}
		if n == phone {
			return "", false
		}
		res.change("%s %s: %s -> %s", kind, id, phone, n)
		return n, !dryRun
	}

	bookings, err := stores.Bookings.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list bookings: %w", err)
	}
	for _, b := range bookings {
		if n, write := check("booking", b.ID, b.Phone); write {
			b.Phone = n
			if err := stores.Bookings.Save(ctx, b); err != nil {
				res.fail("booking "+b.ID, err)
			}
		}
	}

	contacts, err := stores.Contacts.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list contacts: %w", err)
	}
	for _, c := range contacts {
		if n, write := check("contact", c.ID, c.Phone); write {
			c.Phone = n
			if err := stores.Contacts.Save(ctx, c); err != nil {
				res.fail("contact "+c.ID, err)
			}
		}
	}

	customers, err := stores.Customers.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list customers: %w", err)
	}
	for _, c := range customers {
		if n, write := check("customer", c.ID, c.Phone); write {
			c.Phone = n
			if err := stores.Customers.Save(ctx, c); err != nil {
				res.fail("customer "+c.ID, err)
			}
		}
	}

	results, err := stores.Quiz.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list quiz results: %w", err)
	}
	for _, r := range results {
		if n, write := check("quiz_result", r.ID, r.Phone); write {
			r.Phone = n
			if err := stores.Quiz.Save(ctx, r); err != nil {
				res.fail("quiz_result "+r.ID, err)
			}
		}
	}
	return res, nil
}

// ExecuteCleanEmails clears emails on bookings and customers. With
// testOnly it clears only known QA placeholders (purge-test-emails);
// otherwise it clears every address that fails validation (clean-emails).
func ExecuteCleanEmails(ctx context.Context, stores MaintenanceStores, testOnly, dryRun bool) (MaintenanceResult, error) {
	res := MaintenanceResult{Command: "clean-emails", DryRun: dryRun}
	if testOnly {
		res.Command = "purge-test-emails"
	}
	drop := func(kind, id, email string) bool {
		if email == "" {
			return false
		}
		res.Scanned++
		bad := !contactinfo.IsValidEmail(email)
		if testOnly {
			bad = contactinfo.IsTestEmail(email)
		}
		if !bad {
			return false
		}
		res.change("%s %s: clear email %q", kind, id, email)
		return !dryRun
	}

	bookings, err := stores.Bookings.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list bookings: %w", err)
	}
	for _, b := range bookings {
		if drop("booking", b.ID, b.Email) {
			b.Email = ""
			if err := stores.Bookings.Save(ctx, b); err != nil {
				res.fail("booking "+b.ID, err)
			}
		}
	}

	customers, err := stores.Customers.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list customers: %w", err)
	}
	for _, c := range customers {
		if drop("customer", c.ID, c.Email) {
			c.Email = ""
			if err := stores.Customers.Save(ctx, c); err != nil {
				res.fail("customer "+c.ID, err)
			}
		}
	}
	return res, nil
}

// ExecuteDedupeBookings keeps the newest booking per phone, date and time
// and deletes the rest.
// POST: at most one booking remains per DuplicateKey
func ExecuteDedupeBookings(ctx context.Context, stores MaintenanceStores, dryRun bool) (MaintenanceResult, error) {
	res := MaintenanceResult{Command: "dedupe-bookings", DryRun: dryRun}
	bookings, err := stores.Bookings.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list bookings: %w", err)
	}
	res.Scanned = len(bookings)

	groups := map[string][]booking.Booking{}
	var keys []string
	for _, b := range bookings {
		k := b.DuplicateKey()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], b)
	}
	sort.Strings(keys)

	for _, k := range keys {
		g := groups[k]
		if len(g) < 2 {
			continue
		}
		sort.SliceStable(g, func(i, j int) bool { return g[i].CreatedAt.After(g[j].CreatedAt) })
		for _, dup := range g[1:] {
			res.change("booking %s: duplicate of %s (%s)", dup.ID, g[0].ID, k)
			if dryRun {
				continue
			}
			if err := stores.Bookings.Delete(ctx, dup.ID); err != nil {
				res.fail("booking "+dup.ID, err)
			}
		}
	}
	return res, nil
}

// DefaultTestMarkers are the name fragments that identify QA rows.
var DefaultTestMarkers = []string{"테스트", "test"}

// ExecuteDeleteTestData deletes bookings, contacts and quiz results whose
// name contains any marker, case-insensitively.
func ExecuteDeleteTestData(ctx context.Context, stores MaintenanceStores, markers []string, dryRun bool) (MaintenanceResult, error) {
	res := MaintenanceResult{Command: "delete-test-data", DryRun: dryRun}
	if len(markers) == 0 {
		markers = DefaultTestMarkers
	}
	isTest := func(name string) bool {
		name = strings.ToLower(name)
		for _, m := range markers {
			if m = strings.ToLower(strings.TrimSpace(m)); m != "" && strings.Contains(name, m) {
				return true
			}
		}
		return false
	}
	remove := func(kind, id, name string, del func(context.Context, string) error) {
		res.Scanned++
		if !isTest(name) {
			return
		}
		res.change("%s %s: delete %q", kind, id, name)
		if dryRun {
			return
		}
		if err := del(ctx, id); err != nil {
			res.fail(kind+" "+id, err)
		}
	}

	bookings, err := stores.Bookings.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list bookings: %w", err)
	}
	for _, b := range bookings {
		remove("booking", b.ID, b.Name, stores.Bookings.Delete)
	}
	contacts, err := stores.Contacts.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list contacts: %w", err)
	}
	for _, c := range contacts {
		remove("contact", c.ID, c.Name, stores.Contacts.Delete)
	}
	results, err := stores.Quiz.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list quiz results: %w", err)
	}
	for _, r := range results {
		remove("quiz_result", r.ID, r.Name, stores.Quiz.Delete)
	}
	return res, nil
}

// ExecuteLinkCustomers groups bookings by the customer that owns their
// phone, creates one customer per unowned phone and points the bookings at
// it. A phone is owned by the customer holding it as its current phone or
// in previous_phones, so merged profiles stay merged.
// POST: visit_count equals the number of non-cancelled bookings over every
// phone the customer owns
func ExecuteLinkCustomers(ctx context.Context, stores MaintenanceStores, dryRun bool, newID func() string, now func() time.Time) (MaintenanceResult, error) {
	res := MaintenanceResult{Command: "link-customers", DryRun: dryRun}
	bookings, err := stores.Bookings.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list bookings: %w", err)
	}
	res.Scanned = len(bookings)

	existing, err := stores.Customers.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list customers: %w", err)
	}
	owners := phoneOwners(existing)

	type linkGroup struct {
		phone    string
		customer *customer.Customer
		bookings []booking.Booking
	}
	groups := map[string]*linkGroup{}
	var keys []string
	for _, b := range bookings {
		phone := contactinfo.PhoneKey(b.Phone)
		if phone == "" {
			res.skip("booking %s: no phone", b.ID)
			continue
		}
		key, owner := "phone:"+phone, owners[phone]
		if owner != nil {
			key = "customer:" + owner.ID
		}
		g, ok := groups[key]
		if !ok {
			g = &linkGroup{phone: phone, customer: owner}
			if owner != nil {
				g.phone = owner.Phone
			}
			groups[key] = g
			keys = append(keys, key)
		}
		g.bookings = append(g.bookings, b)
	}
	sort.Strings(keys)
	stamp := clock(now)

	for _, key := range keys {
		grp := groups[key]
		g, phone := grp.bookings, grp.phone
		sort.SliceStable(g, func(i, j int) bool { return g[i].CreatedAt.After(g[j].CreatedAt) })

		visits := 0
		var first, last time.Time
		ids := make([]string, 0, len(g))
		for _, b := range g {
			ids = append(ids, b.ID)
			if !b.IsVisit() {
				continue
			}
			visits++
			at := b.StartsAt(time.UTC)
			if at.IsZero() {
				continue
			}
			if first.IsZero() || at.Before(first) {
				first = at
			}
			if at.After(last) {
				last = at
			}
		}

		var c customer.Customer
		created := grp.customer == nil
		if created {
			c = customer.Customer{ID: newID(), Phone: phone, PreviousPhones: []string{}, CreatedAt: stamp}
		} else {
			c = *grp.customer
		}
		c.Name = g[0].Name
		if c.Email == "" {
			for _, b := range g {
				if b.Email != "" {
					c.Email = b.Email
					break
				}
			}
		}
		c.RecordVisits(visits, first, last)
		c.UpdatedAt = stamp
		if err := c.Validate(); err != nil {
			res.fail("customer "+phone, err)
			continue
		}

		verb := "update"
		if created {
			verb = "create"
		}
		res.change("customer %s (%s): %s, %d visits, %d bookings", c.Name, phone, verb, visits, len(ids))
		if dryRun {
			continue
		}
		if err := stores.Customers.Save(ctx, c); err != nil {
			res.fail("customer "+phone, err)
			continue
		}
		if _, err := stores.Bookings.SetCustomer(ctx, ids, c.ID); err != nil {
			res.fail("link bookings "+phone, err)
		}
	}
	return res, nil
}

// phoneOwners indexes customers by the phone key of their current and
// previous phones. A current phone wins over another customer's previous
// phone; otherwise the first customer listed keeps the key.
func phoneOwners(customers []customer.Customer) map[string]*customer.Customer {
	owners := make(map[string]*customer.Customer, len(customers))
	for i := range customers {
		if k := contactinfo.PhoneKey(customers[i].Phone); k != "" {
			if _, taken := owners[k]; !taken {
				owners[k] = &customers[i]
			}
		}
	}
	for i := range customers {
		for _, p := range customers[i].PreviousPhones {
			if k := contactinfo.PhoneKey(p); k != "" {
				if _, taken := owners[k]; !taken {
					owners[k] = &customers[i]
				}
			}
		}
	}
	return owners
}
