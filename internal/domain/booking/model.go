package booking

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"masgolf/internal/domain/contactinfo"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 50
	MaxMemoLength = 2000
	MaxClubLength = 100
)

// DefaultDuration is the fitting session length in minutes.
const DefaultDuration = 60

// Status constants
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatuses contains all valid status values.
var ValidStatuses = []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// Domain errors
var (
	ErrEmptyName     = errors.New("name is required")
	ErrNameTooLong   = errors.New("name cannot exceed 50 characters")
	ErrEmptyPhone    = errors.New("phone is required")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrInvalidTime   = errors.New("time must be HH:MM")
	ErrInvalidStatus = errors.New("status must be one of: pending, confirmed, completed, cancelled")
	ErrMemoTooLong   = errors.New("memo cannot exceed 2000 characters")
	ErrClubTooLong   = errors.New("club cannot exceed 100 characters")
	ErrBadDuration   = errors.New("duration must be between 15 and 480 minutes")
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Booking is a fitting appointment requested through the public site.
type Booking struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email,omitempty"`
	Date              string    `json:"date"` // YYYY-MM-DD
	Time              string    `json:"time"` // HH:MM
	Duration          int       `json:"duration"`
	Club              string    `json:"club,omitempty"`
	Status            string    `json:"status"`
	Memo              string    `json:"memo,omitempty"`
	QuizResultID      string    `json:"quiz_result_id,omitempty"`
	CustomerProfileID string    `json:"customer_profile_id,omitempty"`
	CampaignSource    string    `json:"campaign_source,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Validate checks if the Booking has valid data.
// PRE: Booking struct is populated
// POST: Returns nil if valid, the first failing rule otherwise
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(b.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(b.Phone) == "" {
		return ErrEmptyPhone
	}
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		return ErrInvalidDate
	}
	if !timePattern.MatchString(b.Time) {
		return ErrInvalidTime
	}
	if b.Duration != 0 && (b.Duration < 15 || b.Duration > 480) {
		return ErrBadDuration
	}
	if b.Status != "" && !IsValidStatus(b.Status) {
		return ErrInvalidStatus
	}
	if utf8.RuneCountInString(b.Memo) > MaxMemoLength {
		return ErrMemoTooLong
	}
	if utf8.RuneCountInString(b.Club) > MaxClubLength {
		return ErrClubTooLong
	}
	return nil
}

// Normalize trims fields, rewrites the phone to its canonical form when it
// parses, drops invalid emails and fills defaults.
// POST: Status and Duration are non-zero
func (b *Booking) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Club = strings.TrimSpace(b.Club)
	b.Memo = strings.TrimSpace(b.Memo)
	b.Time = NormalizeTime(b.Time)
	if n, ok := contactinfo.NormalizePhone(b.Phone); ok {
		b.Phone = n
	} else {
		b.Phone = strings.TrimSpace(b.Phone)
	}
	b.Email = contactinfo.CleanEmail(b.Email)
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.Duration == 0 {
		b.Duration = DefaultDuration
	}
}

// DuplicateKey groups bookings that describe the same visit: same phone,
// date and time.
// INVARIANT: Booking fields are not mutated
func (b *Booking) DuplicateKey() string {
	return contactinfo.PhoneKey(b.Phone) + "_" + b.Date + "_" + b.Time
}

// Occupies reports whether the booking still holds its slot.
func (b *Booking) Occupies() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsVisit reports whether the booking counts toward a customer's visit total.
func (b *Booking) IsVisit() bool {
	return b.Status != StatusCancelled
}

// SetStatus transitions the booking status.
// PRE: status is a valid status
// POST: Status updated
func (b *Booking) SetStatus(status string) error {
	if !IsValidStatus(status) {
		return ErrInvalidStatus
	}
	b.Status = status
	return nil
}

// StartsAt returns the booking start in loc, or the zero time when date or
// time are malformed.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsValidStatus reports whether s is a known booking status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeTime turns "9:00", "09:00:00" and "9" into "09:00". Unparseable
// input is returned trimmed.
func NormalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	parts := strings.Split(s, ":")
	if len(parts) == 1 {
		parts = append(parts, "00")
	}
	h, m := parts[0], parts[1]
	if len(h) == 1 {
		h = "0" + h
	}
	if len(m) == 1 {
		m = "0" + m
	}
	out := h + ":" + m
	if !timePattern.MatchString(out) {
		return s
	}
	return out
}
