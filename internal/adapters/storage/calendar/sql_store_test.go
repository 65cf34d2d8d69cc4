package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/storage"
	store "masgolf/internal/adapters/storage/calendar"
	"masgolf/internal/adapters/storage/storagetest"
	domain "masgolf/internal/domain/calendar"
)

// TestSQLStore_HubAndPosts verifies hub rows, filters and derivative drafts.
func TestSQLStore_HubAndPosts(t *testing.T) {
	ctx := context.Background()
	s := store.NewSQLStore(storagetest.OpenSQLite(t), storage.DialectSQLite)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	plan, err := domain.LoadPlan()
	require.NoError(t, err)
	items := plan.Expand(2025)
	for i, item := range items[:8] {
		item.ID = string(rune('a' + i))
		item.CreatedAt, item.UpdatedAt = now, now
		require.NoError(t, s.Save(ctx, item))
	}

	feb, err := s.List(ctx, store.Filter{Year: 2025, Month: 2})
	require.NoError(t, err)
	require.Len(t, feb, 4)
	assert.Equal(t, "2025-02-04", feb[0].ContentDate)

	exists, err := s.Exists(ctx, 2025, 1, 1, items[0].Title)
	require.NoError(t, err)
	assert.True(t, exists)

	hub, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, items[0].Hashtags, hub.Hashtags)

	post := domain.DeriveKakaoPost(hub, now)
	post.ID = "k1"
	require.NoError(t, s.SavePost(ctx, post))
	hub.RecordDerivatives([]string{domain.DeriveKakao}, now)
	require.NoError(t, s.Save(ctx, hub))

	posts, err := s.ListPosts(ctx, "a")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, domain.DeriveKakao, posts[0].Channel)

	hub, err = s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.DerivedContentCount)

	require.NoError(t, s.Delete(ctx, "a"))
	posts, err = s.ListPosts(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, posts)
}
