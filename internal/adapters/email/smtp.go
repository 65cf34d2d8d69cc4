package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// SMTPConfig addresses an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender delivers through an SMTP relay with go-mail.
type SMTPSender struct {
	cfg  SMTPConfig
	from string
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(cfg SMTPConfig, from string) *SMTPSender {
	return &SMTPSender{cfg: cfg, from: from}
}

// Send dials the relay and delivers msg.
// POST: Returns a locally generated message id
func (s *SMTPSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	m, id, err := s.build(msg)
	if err != nil {
		return Receipt{}, err
	}
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password))
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return Receipt{}, fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		slog.Error("smtp_send_failed", "error", err, "host", s.cfg.Host, "subject", msg.Subject)
		return Receipt{}, fmt.Errorf("smtp send: %w", err)
	}
	slog.Info("email_sent", "provider", "smtp", "message_id", id, "subject", msg.Subject)
	return Receipt{MessageID: id, SentAt: time.Now()}, nil
}

// build assembles the MIME message.
func (s *SMTPSender) build(msg Message) (*mail.Msg, string, error) {
	if err := msg.check(); err != nil {
		return nil, "", err
	}
	m := mail.NewMsg(mail.WithNoDefaultUserAgent())
	if err := m.From(msg.from(s.from)); err != nil {
		return nil, "", fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, "", fmt.Errorf("to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, "", fmt.Errorf("reply-to address: %w", err)
		}
	}
	id := "smtp-" + uuid.NewString()
	m.SetMessageIDWithValue(id)
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(mail.TypeTextPlain, msg.Text)
	}
	return m, id, nil
}
