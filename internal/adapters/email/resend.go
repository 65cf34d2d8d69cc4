package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a Resend sender.
// PRE: apiKey is a Resend API key; from is a valid sender address
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// Send queues msg with Resend.
// POST: Returns the Resend email id
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.check(); err != nil {
		return Receipt{}, err
	}
	req := &resend.SendEmailRequest{
		From:    msg.from(s.from),
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "subject", msg.Subject)
		return Receipt{}, fmt.Errorf("resend send: %w", err)
	}
	slog.Info("email_sent", "provider", "resend", "message_id", sent.Id, "subject", msg.Subject)
	return Receipt{MessageID: sent.Id, SentAt: time.Now()}, nil
}
