package contact_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/storage"
	store "masgolf/internal/adapters/storage/contact"
	"masgolf/internal/adapters/storage/storagetest"
	domain "masgolf/internal/domain/contact"
)

// TestSQLStore_ContactedFilter verifies the contacted toggle round trips and filters.
func TestSQLStore_ContactedFilter(t *testing.T) {
	ctx := context.Background()
	s := store.NewSQLStore(storagetest.OpenSQLite(t), storage.DialectSQLite)
	t0 := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

	a := domain.Contact{ID: "a", Name: "김철수", Phone: "010-1111-2222", Inquiry: "드라이버 문의", CreatedAt: t0}
	b := domain.Contact{ID: "b", Name: "이영희", Phone: "010-3333-4444", CreatedAt: t0.Add(time.Hour)}
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))

	a.MarkContacted(true, t0.Add(2*time.Hour))
	require.NoError(t, s.Save(ctx, a))

	yes, no := true, false
	got, total, err := s.List(ctx, store.Filter{Contacted: &yes}, storage.Page{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "a", got[0].ID)
	assert.True(t, got[0].ContactedAt.Equal(t0.Add(2*time.Hour)))

	n, err := s.Count(ctx, store.Filter{Contacted: &no})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, err = s.List(ctx, store.Filter{Query: "드라이버"}, storage.Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	require.NoError(t, s.Delete(ctx, "b"))
	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
