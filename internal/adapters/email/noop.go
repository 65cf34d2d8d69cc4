package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopSender logs messages instead of delivering them.
type NoopSender struct{}

// NewNoopSender creates a NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs msg and reports success.
func (s *NoopSender) Send(_ context.Context, msg Message) (Receipt, error) {
	if err := msg.check(); err != nil {
		return Receipt{}, err
	}
	slog.Info("email_noop", "to", msg.To, "subject", msg.Subject)
	return Receipt{MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()), SentAt: time.Now()}, nil
}

// New picks a sender by provider name: resend, smtp or anything else (noop).
func New(provider, resendKey, from string, smtp SMTPConfig) Sender {
	switch provider {
	case "resend":
		if resendKey != "" {
			return NewResendSender(resendKey, from)
		}
		slog.Warn("email_resend_key_missing_using_noop")
	case "smtp":
		if smtp.Host != "" {
			return NewSMTPSender(smtp, from)
		}
		slog.Warn("email_smtp_host_missing_using_noop")
	}
	return NewNoopSender()
}
