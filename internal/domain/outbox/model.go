package outbox

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action types handled by the notification worker.
const (
	ActionSlack = "slack_notification"
	ActionEmail = "email"
)

// Retry policy defaults.
const (
	DefaultMaxAttempts = 5
	BaseRetryDelay     = 30 * time.Second
	MaxRetryDelay      = time.Hour
)

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrNotRetryable    = errors.New("entry cannot be retried")
	ErrAlreadyFinal    = errors.New("entry is already done or abandoned")
)

// Entry is one queued notification delivery.
type Entry struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"action_type"`
	Payload         string    `json:"payload"` // JSON, see SlackPayload and EmailPayload
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"max_attempts"`
	LastAttemptedAt time.Time `json:"last_attempted_at,omitzero"`
	NextAttemptAt   time.Time `json:"next_attempt_at,omitzero"` // zero means due now
	CreatedAt       time.Time `json:"created_at"`
	ExternalID      string    `json:"external_id,omitempty"` // provider message id
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// SlackPayload is the body of a slack_notification entry.
type SlackPayload struct {
	Text string `json:"text"`
}

// EmailPayload is the body of an email entry.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// NewEntry builds a pending entry for actionType with payload encoded as JSON.
// POST: Entry is pending with DefaultMaxAttempts
func NewEntry(id, actionType string, payload any, now time.Time) (Entry, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:          id,
		ActionType:  actionType,
		Payload:     string(b),
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
	}
	return e, e.Validate()
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise; MaxAttempts defaults to 5
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.ActionType) == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" || e.Payload == "null" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry returns true if the entry can be attempted again.
// POST: Returns true for pending/retrying/failed with attempts < max
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying || e.Status == StatusFailed) &&
		e.Attempts < e.MaxAttempts
}

// IsTerminal returns true if the entry has reached a terminal state.
// POST: Returns true for done, abandoned, or failed with attempts exhausted
func (e *Entry) IsTerminal() bool {
	switch e.Status {
	case StatusDone, StatusAbandoned:
		return true
	case StatusFailed:
		return e.Attempts >= e.MaxAttempts
	}
	return false
}

// IsDue reports whether a retrying entry's backoff has elapsed at now.
// Pending entries are always due.
func (e *Entry) IsDue(now time.Time) bool {
	if e.Status == StatusPending {
		return true
	}
	return !now.Before(e.NextAttemptAt)
}

// MarkAttempt records a delivery attempt.
// POST: Attempts incremented, LastAttemptedAt is now, status set to retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
// POST: Status set to done, ExternalID recorded, ErrorMessage cleared
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.NextAttemptAt = time.Time{}
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records a delivery error and schedules the next attempt.
// POST: ErrorMessage set; Status is failed once attempts are exhausted,
// otherwise NextAttemptAt is LastAttemptedAt plus the backoff
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		e.NextAttemptAt = time.Time{}
		return
	}
	e.NextAttemptAt = e.LastAttemptedAt.Add(e.NextRetryDelay(BaseRetryDelay, MaxRetryDelay))
}

// ResetForRetry gives a failed entry a fresh attempt budget.
// PRE: entry is failed or retrying
// POST: Status is retrying with one attempt available
func (e *Entry) ResetForRetry() error {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return ErrAlreadyFinal
	}
	if e.Attempts >= e.MaxAttempts {
		e.MaxAttempts = e.Attempts + 1
	}
	e.Status = StatusRetrying
	e.LastAttemptedAt = time.Time{}
	e.NextAttemptAt = time.Time{}
	return nil
}

// MarkAbandoned marks the entry as abandoned by an admin.
// POST: Status set to abandoned unless already done
func (e *Entry) MarkAbandoned() error {
	if e.Status == StatusDone {
		return ErrAlreadyFinal
	}
	e.Status = StatusAbandoned
	return nil
}

// NextRetryDelay calculates the delay before the next attempt.
// Uses exponential backoff: 2^attempts * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay time.Duration, maxDelay time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}
