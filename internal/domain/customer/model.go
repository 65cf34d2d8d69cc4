// Package customer models the de-duplicated customer profile that bookings
// link to through customer_profile_id.
package customer

import (
	"errors"
	"strings"
	"time"

	"masgolf/internal/domain/contactinfo"
)

// MaxNameLength bounds the profile name.
const MaxNameLength = 50

// Domain errors
var (
	ErrEmptyName    = errors.New("customer name cannot be empty")
	ErrEmptyPhone   = errors.New("customer phone cannot be empty")
	ErrSameCustomer = errors.New("source and target customer must differ")
	ErrMissingIDs   = errors.New("source_id and target_id are required")
	ErrInvalidMerge = errors.New("merge source and target must both exist")
)

// Customer holds state for the Customer concept.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	PreviousPhones []string  `json:"previous_phones"`
	VisitCount     int       `json:"visit_count"`
	FirstVisitAt   time.Time `json:"first_visit_at,omitzero"`
	LastVisitAt    time.Time `json:"last_visit_at,omitzero"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks if the Customer has valid data.
// PRE: Customer struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Phone) == "" {
		return ErrEmptyPhone
	}
	return nil
}

// AddPreviousPhone records phone as a former number unless it is the
// current one or already listed.
// POST: PreviousPhones holds each phone key at most once
func (c *Customer) AddPreviousPhone(phone string) {
	phone = strings.TrimSpace(phone)
	if phone == "" || contactinfo.SamePhone(phone, c.Phone) {
		return
	}
	for _, p := range c.PreviousPhones {
		if contactinfo.SamePhone(p, phone) {
			return
		}
	}
	c.PreviousPhones = append(c.PreviousPhones, phone)
}

// Absorb folds source into c ahead of deleting source: previous phones are
// unioned (source's current phone included), visit counts summed and the
// visit window widened.
// PRE: source.ID != c.ID
// POST: c carries everything needed to represent both profiles
func (c *Customer) Absorb(source Customer) error {
	if source.ID == c.ID {
		return ErrSameCustomer
	}
	for _, p := range source.PreviousPhones {
		c.AddPreviousPhone(p)
	}
	c.AddPreviousPhone(source.Phone)
	c.VisitCount += source.VisitCount
	if c.Email == "" {
		c.Email = source.Email
	}
	if !source.FirstVisitAt.IsZero() && (c.FirstVisitAt.IsZero() || source.FirstVisitAt.Before(c.FirstVisitAt)) {
		c.FirstVisitAt = source.FirstVisitAt
	}
	if source.LastVisitAt.After(c.LastVisitAt) {
		c.LastVisitAt = source.LastVisitAt
	}
	return nil
}

// RecordVisits replaces the visit summary with values derived from bookings.
func (c *Customer) RecordVisits(count int, first, last time.Time) {
	c.VisitCount = count
	c.FirstVisitAt = first
	c.LastVisitAt = last
}
