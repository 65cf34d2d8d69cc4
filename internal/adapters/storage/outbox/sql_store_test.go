package outbox_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/storage"
	store "masgolf/internal/adapters/storage/outbox"
	"masgolf/internal/adapters/storage/storagetest"
	domain "masgolf/internal/domain/outbox"
)

// TestSQLStore_Lifecycle verifies pending listing follows status transitions.
func TestSQLStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := store.NewSQLStore(storagetest.OpenSQLite(t), storage.DialectSQLite)
	t0 := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

	a, err := domain.NewEntry("a", domain.ActionSlack, domain.SlackPayload{Text: "새 예약"}, t0)
	require.NoError(t, err)
	b, err := domain.NewEntry("b", domain.ActionEmail, domain.EmailPayload{To: "x@masgolf.co.kr"}, t0.Add(time.Second))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))

	pending, err := s.ListPending(ctx, t0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)

	a.MarkAttempt(t0.Add(time.Minute))
	a.MarkSuccess("msg-1")
	require.NoError(t, s.Save(ctx, a))

	pending, err = s.ListPending(ctx, t0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", got.ExternalID)
	assert.True(t, got.LastAttemptedAt.Equal(t0.Add(time.Minute)))

	n, err := s.CountByStatus(ctx, domain.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.ListByStatus(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "b"), sql.ErrNoRows, "pending entries are not deleted")
}

// TestSQLStore_PostgresPending verifies the pending query shape on Postgres.
func TestSQLStore_PostgresPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM outbox WHERE status IN \(\$1,\$2\) AND next_attempt_at <= \$3 ORDER BY created_at ASC LIMIT 25`).
		WithArgs(domain.StatusPending, domain.StatusRetrying, now.UnixMilli()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "action_type", "payload", "status", "attempts", "max_attempts",
			"last_attempted_at", "created_at", "external_id", "error_message", "next_attempt_at",
		}))

	s := store.NewSQLStore(db, storage.DialectPostgres)
	got, err := s.ListPending(context.Background(), now, 25)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestSQLStore_PendingSkipsBackoff verifies entries still in backoff do not
// crowd a fresh entry out of a full batch.
func TestSQLStore_PendingSkipsBackoff(t *testing.T) {
	ctx := context.Background()
	s := store.NewSQLStore(storagetest.OpenSQLite(t), storage.DialectSQLite)
	t0 := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		e, err := domain.NewEntry(fmt.Sprintf("r%02d", i), domain.ActionSlack, domain.SlackPayload{Text: "x"}, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		e.MarkAttempt(t0.Add(time.Minute))
		e.MarkFailed(errors.New("slack webhook status 503"))
		require.NoError(t, s.Save(ctx, e))
	}
	fresh, err := domain.NewEntry("fresh", domain.ActionSlack, domain.SlackPayload{Text: "new"}, t0.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, fresh))

	pending, err := s.ListPending(ctx, t0.Add(90*time.Second), 20)
	require.NoError(t, err)
	require.Len(t, pending, 1, "retrying rows wait until next_attempt_at")
	assert.Equal(t, "fresh", pending[0].ID)

	got, err := s.GetByID(ctx, "r00")
	require.NoError(t, err)
	assert.True(t, got.NextAttemptAt.Equal(t0.Add(2*time.Minute)), got.NextAttemptAt)

	due, err := s.ListPending(ctx, t0.Add(2*time.Hour), 20)
	require.NoError(t, err)
	assert.Len(t, due, 20)
}
