// Package email delivers staff notification emails through Resend, SMTP or
// a logging no-op.
package email

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipient is returned when a message has no To address.
var ErrNoRecipient = errors.New("email has no recipient")

// Message is one outgoing email.
type Message struct {
	To      []string
	From    string // falls back to the sender's default
	Subject string
	HTML    string
	Text    string // optional plain-text alternative
	ReplyTo string
}

// Receipt identifies an accepted message.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

func (m Message) from(fallback string) string {
	if m.From != "" {
		return m.From
	}
	return fallback
}

func (m Message) check() error {
	if len(m.To) == 0 {
		return ErrNoRecipient
	}
	return nil
}
