package orchestrators

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/storage"
	bookingStore "masgolf/internal/adapters/storage/booking"
	"masgolf/internal/adapters/storage/storagetest"
	"masgolf/internal/domain/booking"
)

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func TestParseWixDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025. 09. 22. 오후 3:57", time.Date(2025, 9, 22, 15, 57, 0, 0, time.UTC), true},
		{"2025. 9. 2. 오전 12:30", time.Date(2025, 9, 2, 0, 30, 0, 0, time.UTC), true},
		{"2025. 9. 2. 오후 12:30", time.Date(2025, 9, 2, 12, 30, 0, 0, time.UTC), true},
		{"2025. 10. 1. 14:00", time.Date(2025, 10, 1, 14, 0, 0, 0, time.UTC), true},
		{"2025-10-01 09:30", time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC), true},
		{"2025-10-01", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024. 02. 29. 오전 10:00", time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), true},
		{"2025. 02. 30. 오전 10:00", time.Time{}, false},
		{"2025. 04. 31. 오후 2:00", time.Time{}, false},
		{"2025-02-30 10:00", time.Time{}, false},
		{"다음 주 화요일", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseWixDateTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestExecuteImportWix(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	bookings := bookingStore.NewSQLStore(db, storage.DialectSQLite)
	require.NoError(t, bookings.Save(ctx, booking.Booking{
		ID: "existing", Name: "이영희", Phone: "01099998888", Date: "2025-09-23", Time: "10:00",
		Duration: 60, Status: booking.StatusConfirmed, CreatedAt: submitNow(), UpdatedAt: submitNow(),
	}))

	rows := [][]string{
		{"이름", "전화번호", "이메일", "예약 시작 시간", "예약 종료 시간", "예약 상태", "참석 여부", "양식 응답 0", "양식 응답 3"},
		{"김철수", "+82 10-1234-5678", "kim@masgolf.co.kr", "2025. 09. 22. 오후 3:00", "2025. 09. 22. 오후 4:30", "확인됨", "", "드라이버", "비거리 고민"},
		{"", "010-2222-3333", "", "2025. 09. 22. 오후 5:00", "", "", "", "", ""},
		{"박민수", "", "", "2025. 09. 22. 오후 5:00", "", "", "", "", ""},
		{"최지우", "010-4444-5555", "", "언젠가", "", "", "", "", ""},
		{"이영희", "010-9999-8888", "", "2025. 09. 23. 오전 10:00", "", "확인됨", "", "", ""},
		{"김철수", "01012345678", "", "2025. 09. 22. 오후 3:00", "", "", "", "", ""},
		{"정하나", "010-7777-6666", "", "2025. 09. 24. 오전 11:00", "", "대기", "취소", "", ""},
		{"", "", "", "", "", "", "", "", ""},
	}
	deps := ImportWixDeps{BookingStore: bookings, GenerateID: sequentialIDs("wix"), Now: submitNow}

	dry, err := ExecuteImportWix(ctx, rows, true, deps)
	require.NoError(t, err)
	assert.Equal(t, 7, dry.Scanned)
	assert.Equal(t, 2, dry.Changed)
	assert.Equal(t, 5, dry.Skipped)
	all, _ := bookings.ListAll(ctx)
	assert.Len(t, all, 1, "dry run writes nothing")

	res, err := ExecuteImportWix(ctx, rows, false, deps)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Changed)
	assert.Equal(t, 0, res.Failed)

	all, err = bookings.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	byName := map[string]booking.Booking{}
	for _, b := range all {
		byName[b.Name] = b
	}
	kim := byName["김철수"]
	assert.Equal(t, "01012345678", kim.Phone)
	assert.Equal(t, "2025-09-22", kim.Date)
	assert.Equal(t, "15:00", kim.Time)
	assert.Equal(t, 90, kim.Duration)
	assert.Equal(t, booking.StatusConfirmed, kim.Status)
	assert.Equal(t, "드라이버", kim.Club)
	assert.Equal(t, "wix", kim.CampaignSource)
	assert.Equal(t, booking.StatusCancelled, byName["정하나"].Status)

	again, err := ExecuteImportWix(ctx, rows, false, deps)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Changed, "re-import only finds duplicates")
}

func TestExecuteImportWix_MissingColumn(t *testing.T) {
	db := storagetest.OpenSQLite(t)
	deps := ImportWixDeps{BookingStore: bookingStore.NewSQLStore(db, storage.DialectSQLite), GenerateID: sequentialIDs("wix")}

	_, err := ExecuteImportWix(context.Background(), [][]string{{"Name", "Email"}}, false, deps)
	assert.ErrorContains(t, err, "전화번호")

	_, err = ExecuteImportWix(context.Background(), nil, false, deps)
	assert.Error(t, err)
}
