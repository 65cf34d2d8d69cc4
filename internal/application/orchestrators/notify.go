package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"masgolf/internal/adapters/metrics"
	"masgolf/internal/domain/notify"
	"masgolf/internal/domain/outbox"
)

// OutboxSaver is the slice of the outbox store needed to enqueue.
type OutboxSaver interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// NotifyDeps holds what the public forms need to queue staff notifications.
type NotifyDeps struct {
	Outbox   OutboxSaver
	NotifyTo string // notification email recipient; empty sends Slack only
	Metrics  *metrics.Metrics
}

// Notification is one staff alert about a form submission.
type Notification struct {
	Source  string // booking | contact | quiz
	Text    string
	Subject string
}

// EnqueueNotification queues a Slack entry and, when a recipient is
// configured, an email entry. Failures are logged and never returned:
// a notification problem must not fail the submission that caused it.
// POST: Returns how many entries were stored
func EnqueueNotification(ctx context.Context, n Notification, deps NotifyDeps, now time.Time) int {
	if deps.Outbox == nil {
		return 0
	}
	queued := 0
	enqueue := func(action, channel string, payload any) {
		e, err := outbox.NewEntry(uuid.New().String(), action, payload, now)
		if err == nil {
			err = deps.Outbox.Save(ctx, e)
		}
		if err != nil {
			slog.Error("notification_enqueue_failed", "source", n.Source, "action_type", action, "error", err.Error())
			return
		}
		deps.Metrics.NotificationEnqueued(n.Source, channel)
		queued++
	}

	enqueue(outbox.ActionSlack, "slack", outbox.SlackPayload{Text: n.Text})
	if deps.NotifyTo != "" {
		subject := n.Subject
		if subject == "" {
			subject = "[마쓰구골프] 새 알림"
		}
		enqueue(outbox.ActionEmail, "email", outbox.EmailPayload{To: deps.NotifyTo, Subject: subject, HTML: notify.HTML(n.Text)})
	}
	return queued
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now()
}
