// Package quiz models the club-fitting questionnaire submitted before a booking.
package quiz

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"masgolf/internal/domain/contactinfo"
)

// MaxNameLength bounds the respondent name.
const MaxNameLength = 50

// Domain errors
var (
	ErrEmptyName   = errors.New("name is required")
	ErrNameTooLong = errors.New("name cannot exceed 50 characters")
	ErrEmptyPhone  = errors.New("phone is required")
)

// Result is one completed questionnaire.
type Result struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	SwingStyle       string    `json:"swing_style,omitempty"`
	Priority         string    `json:"priority,omitempty"`
	CurrentDistance  string    `json:"current_distance,omitempty"`
	RecommendedFlex  string    `json:"recommended_flex,omitempty"`
	ExpectedDistance string    `json:"expected_distance,omitempty"`
	CampaignSource   string    `json:"campaign_source,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Validate checks if the Result has valid data.
// PRE: Result struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Result) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrEmptyPhone
	}
	return nil
}

// Normalize trims answers, canonicalizes the phone and drops invalid emails.
func (r *Result) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if n, ok := contactinfo.NormalizePhone(r.Phone); ok {
		r.Phone = n
	} else {
		r.Phone = strings.TrimSpace(r.Phone)
	}
	r.Email = contactinfo.CleanEmail(r.Email)
	r.SwingStyle = strings.TrimSpace(r.SwingStyle)
	r.Priority = strings.TrimSpace(r.Priority)
	r.CurrentDistance = strings.TrimSpace(r.CurrentDistance)
	r.RecommendedFlex = strings.TrimSpace(r.RecommendedFlex)
	r.ExpectedDistance = strings.TrimSpace(r.ExpectedDistance)
}
