// Package channelsms models SMS/LMS/MMS campaign records and the delivery
// reports scraped from the Solapi console.
package channelsms

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Message type constants
const (
	TypeSMS = "SMS"
	TypeLMS = "LMS"
	TypeMMS = "MMS"
)

// Status constants
const (
	StatusDraft   = "draft"
	StatusSent    = "sent"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// SyncedPlaceholder is stored when the scraper could not read the message body.
const SyncedPlaceholder = "Solapi에서 동기화된 메시지"

// smsByteLimit is the carrier limit for a single SMS, counting Hangul as two bytes.
const smsByteLimit = 90

// Domain errors
var (
	ErrEmptyText    = errors.New("message text is required")
	ErrInvalidType  = errors.New("message type must be SMS, LMS or MMS")
	ErrEmptyGroupID = errors.New("solapi group id is required")
)

// Message is one channel_sms row.
type Message struct {
	ID               string    `json:"id"`
	SolapiGroupID    string    `json:"solapi_group_id,omitempty"`
	MessageText      string    `json:"message_text"`
	MessageType      string    `json:"message_type"`
	Status           string    `json:"status"`
	CallToAction     string    `json:"call_to_action,omitempty"`
	SentAt           time.Time `json:"sent_at,omitzero"`
	SentCount        int       `json:"sent_count"`
	SuccessCount     int       `json:"success_count"`
	FailCount        int       `json:"fail_count"`
	RecipientNumbers []string  `json:"recipient_numbers"`
	ImageURL         string    `json:"image_url,omitempty"`
	HubContentID     string    `json:"hub_content_id,omitempty"`
	ScheduledAt      time.Time `json:"scheduled_at,omitzero"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks if the Message has valid data.
// PRE: Message struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Message) Validate() error {
	if strings.TrimSpace(m.MessageText) == "" {
		return ErrEmptyText
	}
	switch m.MessageType {
	case TypeSMS, TypeLMS, TypeMMS:
	default:
		return ErrInvalidType
	}
	return nil
}

// GroupReport is what the console scraper extracts for one message group.
type GroupReport struct {
	GroupID      string
	MessageText  string
	MessageType  string
	SuccessCount int
	FailCount    int
	SendingCount int
	TotalCount   int
	SentAt       time.Time
	Recipients   []string
	ImageURL     string
}

// ApplyReport overwrites the delivery fields of m with a scraped report.
// PRE: r.GroupID is non-empty
// POST: Status reflects the success/failure counts; MessageText is never empty
func (m *Message) ApplyReport(r GroupReport, now time.Time) error {
	if strings.TrimSpace(r.GroupID) == "" {
		return ErrEmptyGroupID
	}
	m.SolapiGroupID = r.GroupID
	m.MessageText = r.MessageText
	if strings.TrimSpace(m.MessageText) == "" {
		m.MessageText = SyncedPlaceholder
	}
	m.MessageType = ClassifyType(r.MessageType, m.MessageText, r.ImageURL != "")
	m.Status = DeliveryStatus(r.SuccessCount, r.FailCount)
	m.SentAt = r.SentAt
	if m.SentAt.IsZero() {
		m.SentAt = now
	}
	m.SentCount = r.TotalCount
	m.SuccessCount = r.SuccessCount
	m.FailCount = r.FailCount
	m.RecipientNumbers = r.Recipients
	m.ImageURL = r.ImageURL
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.SentAt
	}
	m.UpdatedAt = now
	return nil
}

// DeliveryStatus derives the row status from delivery counts: partial when
// some failed and some succeeded, failed when only failures, sent otherwise.
func DeliveryStatus(success, fail int) string {
	switch {
	case fail > 0 && success > 0:
		return StatusPartial
	case fail > 0:
		return StatusFailed
	default:
		return StatusSent
	}
}

// ClassifyType picks MMS when an image is attached, the scraped type when it
// is known, and otherwise SMS or LMS by the 90-byte carrier limit.
func ClassifyType(scraped, text string, hasImage bool) string {
	if hasImage {
		return TypeMMS
	}
	switch strings.ToUpper(strings.TrimSpace(scraped)) {
	case TypeSMS:
		return TypeSMS
	case TypeLMS:
		return TypeLMS
	case TypeMMS:
		return TypeMMS
	}
	if carrierBytes(text) > smsByteLimit {
		return TypeLMS
	}
	return TypeSMS
}

// carrierBytes counts ASCII as one byte and everything else as two.
func carrierBytes(s string) int {
	n := 0
	for _, r := range s {
		if r < utf8.RuneSelf {
			n++
		} else {
			n += 2
		}
	}
	return n
}
