package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"masgolf/internal/domain/calendar"
	"masgolf/internal/domain/channelsms"
)

// HubStore persists hub content and channel drafts.
type HubStore interface {
	Save(ctx context.Context, item calendar.Item) error
	SavePost(ctx context.Context, p calendar.ChannelPost) error
}

// SMSSaver stores draft channel_sms rows.
type SMSSaver interface {
	Save(ctx context.Context, m channelsms.Message) error
}

// HubDeps holds dependencies for CreateHubContent.
type HubDeps struct {
	Calendar   HubStore
	Blog       BlogStore
	SMS        SMSSaver
	GenerateID func() string
	Now        func() time.Time
}

// HubResult reports the stored hub row and what was derived from it.
type HubResult struct {
	Item    calendar.Item     `json:"item"`
	Derived map[string]string `json:"derived"`
	Failed  []string          `json:"failed,omitempty"`
}

// deriveOrder fixes the order channels are recorded in.
var deriveOrder = []string{calendar.DeriveBlog, calendar.DeriveNaver, calendar.DeriveSMS, calendar.DeriveKakao}

// ExecuteCreateHubContent stores a hub item and, with autoDerive, fans out
// blog, Naver, SMS and Kakao drafts concurrently. A failing channel is
// logged and skipped; the rest still land.
// PRE: item carries at least a title and content date or month
// POST: Item.PublishedChannels lists exactly the channels that were stored
func ExecuteCreateHubContent(ctx context.Context, item calendar.Item, autoDerive bool, deps HubDeps) (HubResult, error) {
	now := clock(deps.Now)
	item.Title = strings.TrimSpace(item.Title)
	item.ApplyDefaults()
	if item.ID == "" {
		item.ID = deps.GenerateID()
		item.CreatedAt = now
	}
	if item.Keywords == nil {
		item.Keywords = []string{}
	}
	if item.Hashtags == nil {
		item.Hashtags = calendar.Hashtags(item.Keywords)
	}
	if item.PublishedChannels == nil {
		item.PublishedChannels = []string{}
	}
	item.UpdatedAt = now
	if err := item.Validate(); err != nil {
		return HubResult{}, err
	}
	if err := deps.Calendar.Save(ctx, item); err != nil {
		return HubResult{}, fmt.Errorf("save hub content: %w", err)
	}
	res := HubResult{Item: item, Derived: map[string]string{}}
	if !autoDerive {
		slog.Info("hub_content_created", "hub_id", item.ID, "derived", 0)
		return res, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(deriveOrder))
	for _, channel := range deriveOrder {
		g.Go(func() error {
			id, err := deriveChannel(gctx, channel, item, deps, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("hub_derive_failed", "hub_id", item.ID, "channel", channel, "error", err.Error())
				res.Failed = append(res.Failed, channel)
				return nil
			}
			res.Derived[channel] = id
			return nil
		})
	}
	_ = g.Wait()

	var stored []string
	for _, c := range deriveOrder {
		if _, ok := res.Derived[c]; ok {
			stored = append(stored, c)
		}
	}
	item.RecordDerivatives(stored, clock(deps.Now))
	if err := deps.Calendar.Save(ctx, item); err != nil {
		return HubResult{}, fmt.Errorf("record derivatives: %w", err)
	}
	res.Item = item
	slog.Info("hub_content_created", "hub_id", item.ID, "derived", len(stored), "failed", len(res.Failed))
	return res, nil
}

func deriveChannel(ctx context.Context, channel string, hub calendar.Item, deps HubDeps, now time.Time) (string, error) {
	switch channel {
	case calendar.DeriveBlog:
		p := calendar.DeriveBlogPost(hub, now)
		p.ID = deps.GenerateID()
		slug, err := UniqueSlug(ctx, deps.Blog, p.Slug, p.ID, now)
		if err != nil {
			return "", err
		}
		p.Slug = slug
		if err := p.Validate(); err != nil {
			return "", err
		}
		return p.ID, deps.Blog.Save(ctx, p)
	case calendar.DeriveNaver, calendar.DeriveKakao:
		p := calendar.DeriveNaverPost(hub, now)
		if channel == calendar.DeriveKakao {
			p = calendar.DeriveKakaoPost(hub, now)
		}
		p.ID = deps.GenerateID()
		return p.ID, deps.Calendar.SavePost(ctx, p)
	case calendar.DeriveSMS:
		m := calendar.NewSMSDraft(hub, now)
		m.ID = deps.GenerateID()
		if err := m.Validate(); err != nil {
			return "", err
		}
		return m.ID, deps.SMS.Save(ctx, m)
	}
	return "", fmt.Errorf("unknown derive channel %q", channel)
}
