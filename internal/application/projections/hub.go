package projections

import (
	"context"
	"fmt"

	calendarStore "masgolf/internal/adapters/storage/calendar"
	"masgolf/internal/domain/calendar"
)

// HubStore reads hub rows and their channel drafts.
type HubStore interface {
	List(ctx context.Context, f calendarStore.Filter) ([]calendar.Item, error)
	ListPosts(ctx context.Context, hubID string) ([]calendar.ChannelPost, error)
}

// HubSummary is a hub row with a count of its stored drafts per channel.
type HubSummary struct {
	calendar.Item
	Drafts map[string]int `json:"drafts"`
}

// ListHubContent lists hub rows matching f with their derivative summary.
func ListHubContent(ctx context.Context, f calendarStore.Filter, store HubStore) ([]HubSummary, error) {
	items, err := store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]HubSummary, 0, len(items))
	for _, it := range items {
		posts, err := store.ListPosts(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("list drafts for %s: %w", it.ID, err)
		}
		s := HubSummary{Item: it, Drafts: map[string]int{}}
		for _, p := range posts {
			s.Drafts[p.Channel]++
		}
		out = append(out, s)
	}
	return out, nil
}

// AnnualPlan expands the static plan for year without persisting it.
func AnnualPlan(plan *calendar.Plan, year int) []calendar.Item {
	items := plan.Expand(year)
	for i := range items {
		items[i].PublishedChannels = []string{}
	}
	return items
}
