package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNew_PicksProvider(t *testing.T) {
	if _, ok := New("resend", "re_key", "a@b.co", SMTPConfig{}).(*ResendSender); !ok {
		t.Error("resend with key should build a ResendSender")
	}
	if _, ok := New("resend", "", "a@b.co", SMTPConfig{}).(*NoopSender); !ok {
		t.Error("resend without key should fall back to noop")
	}
	if _, ok := New("smtp", "", "a@b.co", SMTPConfig{Host: "smtp.test", Port: 25}).(*SMTPSender); !ok {
		t.Error("smtp with host should build an SMTPSender")
	}
	if _, ok := New("noop", "", "a@b.co", SMTPConfig{}).(*NoopSender); !ok {
		t.Error("noop should build a NoopSender")
	}
}

func TestNoop_RequiresRecipient(t *testing.T) {
	_, err := NewNoopSender().Send(context.Background(), Message{Subject: "x"})
	if !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("err = %v, want ErrNoRecipient", err)
	}
	r, err := NewNoopSender().Send(context.Background(), Message{To: []string{"staff@masgolf.co.kr"}})
	if err != nil || !strings.HasPrefix(r.MessageID, "noop-") {
		t.Fatalf("receipt = %+v, err = %v", r, err)
	}
}

func TestSMTP_BuildMessage(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.test", Port: 25}, "Masgolf <noreply@masgolf.co.kr>")
	m, id, err := s.build(Message{
		To:      []string{"staff@masgolf.co.kr"},
		Subject: "New booking",
		HTML:    "<p>hello</p>",
		Text:    "hello",
		ReplyTo: "help@masgolf.co.kr",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(id, "smtp-") {
		t.Errorf("id = %q", id)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Subject: New booking", "noreply@masgolf.co.kr", "staff@masgolf.co.kr", "help@masgolf.co.kr", "text/html", "text/plain", id} {
		if !strings.Contains(out, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSMTP_BuildRejectsBadAddress(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.test"}, "noreply@masgolf.co.kr")
	if _, _, err := s.build(Message{To: []string{"not an address"}}); err == nil {
		t.Fatal("expected address error")
	}
}
