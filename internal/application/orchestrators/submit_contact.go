package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"masgolf/internal/domain/contact"
	"masgolf/internal/domain/notify"
)

// ContactStoreForSubmit defines the store interface needed by SubmitContact.
type ContactStoreForSubmit interface {
	Save(ctx context.Context, c contact.Contact) error
}

// SubmitContactInput carries the public call-back form.
type SubmitContactInput struct {
	Name           string
	Phone          string
	CallTimes      string
	Inquiry        string
	CampaignSource string
}

// SubmitContactDeps holds dependencies for SubmitContact.
type SubmitContactDeps struct {
	ContactStore ContactStoreForSubmit
	Notify       NotifyDeps
	Now          func() time.Time
}

// ExecuteSubmitContact stores a call-back request and queues the staff alert.
// PRE: name and phone are provided
// POST: Contact persisted with Contacted=false
func ExecuteSubmitContact(ctx context.Context, input SubmitContactInput, deps SubmitContactDeps) (contact.Contact, error) {
	now := clock(deps.Now)
	c := contact.Contact{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Phone:          input.Phone,
		CallTimes:      input.CallTimes,
		Inquiry:        input.Inquiry,
		CampaignSource: input.CampaignSource,
		CreatedAt:      now,
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return contact.Contact{}, err
	}
	if err := deps.ContactStore.Save(ctx, c); err != nil {
		return contact.Contact{}, fmt.Errorf("save contact: %w", err)
	}
	slog.Info("contact_submitted", "contact_id", c.ID, "campaign_source", c.CampaignSource)
	deps.Notify.Metrics.FormSubmitted("contact")

	EnqueueNotification(ctx, Notification{
		Source:  "contact",
		Text:    notify.ContactText(c),
		Subject: "[마쓰구골프] 새 상담 문의: " + c.Name,
	}, deps.Notify, now)
	return c, nil
}
