package contact

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"masgolf/internal/domain/contactinfo"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength    = 50
	MaxInquiryLength = 2000
)

// Domain errors
var (
	ErrEmptyName      = errors.New("name is required")
	ErrNameTooLong    = errors.New("name cannot exceed 50 characters")
	ErrEmptyPhone     = errors.New("phone is required")
	ErrInquiryTooLong = errors.New("inquiry cannot exceed 2000 characters")
)

// Contact is a call-back request left on the public site.
type Contact struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	CallTimes      string    `json:"call_times,omitempty"`
	Inquiry        string    `json:"inquiry,omitempty"`
	CampaignSource string    `json:"campaign_source,omitempty"`
	Contacted      bool      `json:"contacted"`
	ContactedAt    time.Time `json:"contacted_at,omitzero"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks if the Contact has valid data.
// PRE: Contact struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(c.Phone) == "" {
		return ErrEmptyPhone
	}
	if utf8.RuneCountInString(c.Inquiry) > MaxInquiryLength {
		return ErrInquiryTooLong
	}
	return nil
}

// Normalize trims fields and canonicalizes the phone when it parses.
func (c *Contact) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.CallTimes = strings.TrimSpace(c.CallTimes)
	c.Inquiry = strings.TrimSpace(c.Inquiry)
	if n, ok := contactinfo.NormalizePhone(c.Phone); ok {
		c.Phone = n
	} else {
		c.Phone = strings.TrimSpace(c.Phone)
	}
}

// MarkContacted records whether staff has called back.
// POST: ContactedAt is now when contacted, zero otherwise
func (c *Contact) MarkContacted(contacted bool, now time.Time) {
	c.Contacted = contacted
	if contacted {
		c.ContactedAt = now
	} else {
		c.ContactedAt = time.Time{}
	}
}
