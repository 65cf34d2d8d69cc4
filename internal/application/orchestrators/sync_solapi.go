package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"masgolf/internal/adapters/metrics"
	"masgolf/internal/domain/channelsms"
)

// GroupScraper reads one message group's delivery report.
type GroupScraper interface {
	Scrape(ctx context.Context, groupID string) (channelsms.GroupReport, error)
}

// ChannelSMSStore is the channel_sms surface the sync needs.
type ChannelSMSStore interface {
	GetByGroupID(ctx context.Context, groupID string) (channelsms.Message, error)
	Save(ctx context.Context, m channelsms.Message) error
}

// SyncSolapiDeps holds dependencies for SyncSolapiGroup.
type SyncSolapiDeps struct {
	Scraper    GroupScraper
	Store      ChannelSMSStore
	GenerateID func() string
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// SyncSolapiResult reports one synced group.
type SyncSolapiResult struct {
	Message channelsms.Message `json:"message"`
	Created bool               `json:"created"`
}

// ExecuteSyncSolapiGroup scrapes a Solapi message group and upserts the
// channel_sms row keyed by its group id.
// PRE: groupID is non-empty
// POST: On success exactly one channel_sms row carries groupID
func ExecuteSyncSolapiGroup(ctx context.Context, groupID string, deps SyncSolapiDeps) (SyncSolapiResult, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return SyncSolapiResult{}, channelsms.ErrEmptyGroupID
	}
	res, err := syncSolapiGroup(ctx, groupID, deps)
	deps.Metrics.SolapiSync(err == nil)
	if err != nil {
		slog.Error("solapi_sync_failed", "group_id", groupID, "error", err.Error())
		return SyncSolapiResult{}, err
	}
	m := res.Message
	slog.Info("solapi_synced", "group_id", groupID, "message_id", m.ID, "created", res.Created,
		"status", m.Status, "success", m.SuccessCount, "fail", m.FailCount, "recipients", len(m.RecipientNumbers))
	return res, nil
}

func syncSolapiGroup(ctx context.Context, groupID string, deps SyncSolapiDeps) (SyncSolapiResult, error) {
	report, err := deps.Scraper.Scrape(ctx, groupID)
	if err != nil {
		return SyncSolapiResult{}, fmt.Errorf("scrape group %s: %w", groupID, err)
	}
	report.GroupID = groupID

	m, err := deps.Store.GetByGroupID(ctx, groupID)
	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		m = channelsms.Message{ID: deps.GenerateID()}
		created = true
	case err != nil:
		return SyncSolapiResult{}, fmt.Errorf("load group %s: %w", groupID, err)
	}

	if err := m.ApplyReport(report, clock(deps.Now)); err != nil {
		return SyncSolapiResult{}, err
	}
	if err := deps.Store.Save(ctx, m); err != nil {
		return SyncSolapiResult{}, fmt.Errorf("save group %s: %w", groupID, err)
	}
	return SyncSolapiResult{Message: m, Created: created}, nil
}
