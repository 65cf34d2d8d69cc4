package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"masgolf/internal/adapters/email"
	"masgolf/internal/adapters/metrics"
	"masgolf/internal/adapters/resilience"
	"masgolf/internal/adapters/slack"
	outboxStore "masgolf/internal/adapters/storage/outbox"
	domain "masgolf/internal/domain/outbox"
)

// DefaultOutboxBatch bounds how many entries one ProcessPending pass reads.
const DefaultOutboxBatch = 20

// OutboxProcessor delivers queued notifications and retries failures.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	batchSize int
	metrics   *metrics.Metrics
	now       func() time.Time
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the action with the entry's JSON payload and returns the
	// provider's id for the delivery, if any.
	Execute(ctx context.Context, payload string) (string, error)
}

// NewOutboxProcessor creates a processor with one executor per action type.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor, m *metrics.Metrics) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		batchSize: DefaultOutboxBatch,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessPending runs every pending or retrying entry whose backoff elapsed.
// PRE: Context is valid
// POST: Returns how many entries were attempted
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	now := p.now()
	entries, err := p.store.ListPending(ctx, now, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox entries: %w", err)
	}

	attempted := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return attempted, ctx.Err()
		}
		if !entry.IsDue(now) {
			continue
		}
		attempted++
		if err := p.run(ctx, &entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}
	return attempted, nil
}

// run executes one attempt and persists the outcome.
func (p *OutboxProcessor) run(ctx context.Context, entry *domain.Entry) error {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkAttempt(p.now())
		entry.Attempts = entry.MaxAttempts
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		p.metrics.OutboxResult(entry.ActionType, metrics.ResultSkipped)
		return p.store.Save(ctx, *entry)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	switch {
	case err == nil:
		entry.MarkSuccess(externalID)
		p.metrics.OutboxResult(entry.ActionType, metrics.ResultDone)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	case resilience.IsPermanent(err):
		entry.Attempts = entry.MaxAttempts
		entry.MarkFailed(err)
		p.metrics.OutboxResult(entry.ActionType, metrics.ResultFailed)
		slog.Warn("outbox_action_rejected", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
	default:
		entry.MarkFailed(err)
		result := metrics.ResultRetry
		if entry.Status == domain.StatusFailed {
			result = metrics.ResultFailed
		}
		p.metrics.OutboxResult(entry.ActionType, result)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "attempt", entry.Attempts, "error", err.Error())
	}
	return p.store.Save(ctx, *entry)
}

// ProcessSingle retries one entry immediately (admin retry), granting a
// fresh attempt when its budget is spent.
// PRE: entryID is non-empty
// POST: Entry attempted once and saved; the returned entry is the new state
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) (domain.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get outbox entry: %w", err)
	}
	if err := entry.ResetForRetry(); err != nil {
		return entry, err
	}
	if _, ok := p.executors[entry.ActionType]; !ok {
		return entry, fmt.Errorf("no executor registered for action type: %s", entry.ActionType)
	}
	if err := p.run(ctx, &entry); err != nil {
		return entry, fmt.Errorf("save outbox entry: %w", err)
	}
	slog.Info("outbox_manual_retry", "entry_id", entry.ID, "status", entry.Status)
	return entry, nil
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned unless it was already delivered
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if err := entry.MarkAbandoned(); err != nil {
		return err
	}
	slog.Info("outbox_entry_abandoned", "entry_id", entry.ID, "action_type", entry.ActionType)
	return p.store.Save(ctx, entry)
}

// PurgeAbandoned deletes abandoned entries, at most limit per call.
// POST: Returns how many entries were removed
func (p *OutboxProcessor) PurgeAbandoned(ctx context.Context, limit int) (int, error) {
	entries, err := p.store.ListByStatus(ctx, domain.StatusAbandoned, limit)
	if err != nil {
		return 0, fmt.Errorf("list abandoned outbox entries: %w", err)
	}
	purged := 0
	for _, e := range entries {
		if err := p.store.Delete(ctx, e.ID); err != nil {
			return purged, fmt.Errorf("delete outbox entry %s: %w", e.ID, err)
		}
		purged++
	}
	slog.Info("outbox_abandoned_purged", "count", purged)
	return purged, nil
}

// --- Slack Executor ---

// SlackExecutor posts slack_notification entries to the incoming webhook.
type SlackExecutor struct {
	Poster slack.Poster
}

// Execute posts the payload text.
// PRE: payload is valid JSON matching SlackPayload
// INVARIANT: outbox entry status managed by caller
func (e *SlackExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p domain.SlackPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", resilience.Permanent(fmt.Errorf("unmarshal payload: %w", err))
	}
	if err := e.Poster.Post(ctx, p.Text); err != nil {
		return "", err
	}
	return "", nil
}

// --- Email Executor ---

// EmailExecutor sends email entries through the configured provider.
type EmailExecutor struct {
	Sender email.Sender
}

// Execute sends the payload as an HTML email.
// PRE: payload is valid JSON matching EmailPayload
// POST: Returns the provider message id
// INVARIANT: outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p domain.EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", resilience.Permanent(fmt.Errorf("unmarshal payload: %w", err))
	}
	receipt, err := e.Sender.Send(ctx, email.Message{
		To:      []string{p.To},
		Subject: p.Subject,
		HTML:    p.HTML,
	})
	if err != nil {
		return "", err
	}
	return receipt.MessageID, nil
}

// --- Background Worker ---

// StartBackgroundWorker processes pending entries every interval until
// stopCh is closed. The returned channel closes once the goroutine exits.
// PRE: interval > 0
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
	return done
}
