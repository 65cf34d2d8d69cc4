package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"masgolf/internal/adapters/storage"
	bookingStore "masgolf/internal/adapters/storage/booking"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/domain/booking"
)

func TestSplitList(t *testing.T) {
	got := splitList([]string{"G1, G2", "", " G3 ", "G4,,"})
	assert.Equal(t, []string{"G1", "G2", "G3", "G4"}, got)
	assert.Nil(t, splitList(nil))
}

func TestPrintResult_Text(t *testing.T) {
	outputFmt = "text"
	var buf bytes.Buffer
	err := printResult(&buf, orchestrators.MaintenanceResult{
		Command: "fix-phones", DryRun: true, Scanned: 3, Changed: 1, Skipped: 1,
		Changes: []string{"booking b1: 01012345678 -> 010-1234-5678"},
		Errors:  []string{`booking b2: invalid phone "123"`},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "fix-phones (dry run): scanned=3 changed=1 skipped=1 failed=0")
	assert.Contains(t, out, "  + booking b1")
	assert.Contains(t, out, "  ! booking b2")
}

func TestPrintResult_FailedRowsError(t *testing.T) {
	outputFmt = "text"
	var buf bytes.Buffer
	err := printResult(&buf, orchestrators.MaintenanceResult{Command: "dedupe-bookings", Scanned: 2, Failed: 1})
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "failed=1")
}

func TestPrintResult_YAML(t *testing.T) {
	outputFmt = "yaml"
	t.Cleanup(func() { outputFmt = "text" })
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, orchestrators.MaintenanceResult{Command: "seed-calendar", DryRun: true, Scanned: 4, Changed: 4}))

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "seed-calendar", back["command"])
	assert.Equal(t, true, back["dry_run"])
	assert.Equal(t, 4, back["changed"])
}

// runOpsctl executes the root command against a file database.
func runOpsctl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestFixPhones_DryRunThenApply(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "ops.db")
	t.Setenv("MASGOLF_DB_DRIVER", "sqlite")
	t.Setenv("MASGOLF_DB_DSN", dsn)
	t.Setenv("MASGOLF_ENV", "development")

	ctx := context.Background()
	db, dialect, err := storage.Open(ctx, storage.OpenOptions{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.Migrate(ctx, db, dialect))
	bookings := bookingStore.NewSQLStore(db, dialect)

	created := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	require.NoError(t, bookings.Save(ctx, booking.Booking{
		ID: "b1", Name: "홍길동", Phone: "01012345678", Date: "2025-11-21", Time: "10:00",
		Duration: booking.DefaultDuration, Status: booking.StatusPending,
		CreatedAt: created, UpdatedAt: created,
	}))

	out, err := runOpsctl(t, "fix-phones", "--dry-run", "--output", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "fix-phones (dry run): scanned=1 changed=1")
	b, err := bookings.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "01012345678", b.Phone)

	out, err = runOpsctl(t, "fix-phones", "--dry-run=false", "--output", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "fix-phones: scanned=1 changed=1")
	b, err = bookings.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "010-1234-5678", b.Phone)
}

func TestRoot_RejectsUnknownOutput(t *testing.T) {
	_, err := runOpsctl(t, "fix-phones", "--output", "xml")
	assert.ErrorContains(t, err, "unknown --output")
	outputFmt = "text"
}
