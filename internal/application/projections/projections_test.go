package projections

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/storage"
	blogStore "masgolf/internal/adapters/storage/blog"
	bookingStore "masgolf/internal/adapters/storage/booking"
	calendarStore "masgolf/internal/adapters/storage/calendar"
	contactStore "masgolf/internal/adapters/storage/contact"
	customerStore "masgolf/internal/adapters/storage/customer"
	outboxStore "masgolf/internal/adapters/storage/outbox"
	quizStore "masgolf/internal/adapters/storage/quiz"
	scheduleStore "masgolf/internal/adapters/storage/schedule"
	"masgolf/internal/adapters/storage/storagetest"
	"masgolf/internal/domain/blog"
	"masgolf/internal/domain/booking"
	"masgolf/internal/domain/calendar"
	"masgolf/internal/domain/contact"
	"masgolf/internal/domain/outbox"
	"masgolf/internal/domain/quiz"
	"masgolf/internal/domain/schedule"
)

// Thursday 2025-11-20 10:00 KST.
var (
	kst     = time.FixedZone("KST", 9*60*60)
	testNow = time.Date(2025, 11, 20, 10, 0, 0, 0, kst)
)

func saveBooking(t *testing.T, s *bookingStore.SQLStore, id, date, clock, status string) {
	t.Helper()
	require.NoError(t, s.Save(context.Background(), booking.Booking{
		ID: id, Name: "김철수", Phone: "01012345678", Date: date, Time: clock, Duration: 60,
		Status: status, CreatedAt: testNow, UpdatedAt: testNow,
	}))
}

func TestGetDashboard(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	bookings := bookingStore.NewSQLStore(db, storage.DialectSQLite)
	contacts := contactStore.NewSQLStore(db, storage.DialectSQLite)
	quizzes := quizStore.NewSQLStore(db, storage.DialectSQLite)
	queue := outboxStore.NewSQLStore(db, storage.DialectSQLite)

	saveBooking(t, bookings, "b1", "2025-11-20", "10:00", booking.StatusPending)
	saveBooking(t, bookings, "b2", "2025-11-20", "11:00", booking.StatusConfirmed)
	saveBooking(t, bookings, "b3", "2025-11-21", "10:00", booking.StatusPending)
	require.NoError(t, contacts.Save(ctx, contact.Contact{ID: "c1", Name: "이영희", Phone: "01099998888", CreatedAt: testNow}))
	require.NoError(t, contacts.Save(ctx, contact.Contact{ID: "c2", Name: "박민수", Phone: "01011112222", Contacted: true, ContactedAt: testNow, CreatedAt: testNow}))
	require.NoError(t, quizzes.Save(ctx, quiz.Result{ID: "q1", Name: "최지우", Phone: "01033334444", CreatedAt: testNow}))
	e, err := outbox.NewEntry("o1", outbox.ActionSlack, outbox.SlackPayload{Text: "x"}, testNow)
	require.NoError(t, err)
	e.Status = outbox.StatusFailed
	require.NoError(t, queue.Save(ctx, e))

	d, err := GetDashboard(ctx, DashboardDeps{
		Bookings: bookings, Contacts: contacts, Customers: customerStore.NewSQLStore(db, storage.DialectSQLite),
		Quiz: quizzes, Outbox: queue, Location: kst,
	}, testNow)
	require.NoError(t, err)
	want := Dashboard{BookingsTotal: 3, BookingsPending: 2, BookingsToday: 2, ContactsUncontacted: 1, QuizResults: 1, OutboxFailed: 1}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("dashboard (-want +got):\n%s", diff)
	}
}

func TestBookingDateRange(t *testing.T) {
	tests := []struct {
		filter, from, to string
	}{
		{"today", "2025-11-20", "2025-11-20"},
		{"week", "2025-11-17", "2025-11-23"},
		{"month", "2025-11-01", "2025-11-30"},
		{"all", "", ""},
		{"bogus", "", ""},
	}
	for _, tt := range tests {
		from, to := BookingDateRange(tt.filter, testNow, kst)
		if from != tt.from || to != tt.to {
			t.Errorf("BookingDateRange(%q) = %s..%s, want %s..%s", tt.filter, from, to, tt.from, tt.to)
		}
	}
	// 23:30 UTC on the 19th is already the 20th in Seoul.
	from, _ := BookingDateRange("today", time.Date(2025, 11, 19, 23, 30, 0, 0, time.UTC), kst)
	assert.Equal(t, "2025-11-20", from)
}

func TestGetAvailability(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	bookings := bookingStore.NewSQLStore(db, storage.DialectSQLite)
	sched := scheduleStore.NewSQLStore(db, storage.DialectSQLite)
	deps := AvailabilityDeps{Schedule: sched, Bookings: bookings, Location: kst}

	saveBooking(t, bookings, "b1", "2025-11-24", "10:00", booking.StatusConfirmed)
	saveBooking(t, bookings, "b2", "2025-11-24", "16:00", booking.StatusCancelled)
	require.NoError(t, sched.SaveBlock(ctx, schedule.Block{ID: "k1", Date: "2025-11-24", Time: "13", Duration: 60}))
	require.NoError(t, sched.SaveBlock(ctx, schedule.Block{ID: "k2", Date: "2025-11-24", Time: "15:00:00", Duration: 60, IsVirtual: true}))

	a, err := GetAvailability(ctx, "2025-11-24", 60, deps, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00"}, a.AvailableTimes)
	assert.Equal(t, []string{"10:00"}, a.BookedTimes)
	assert.Empty(t, a.Restriction)

	past, err := GetAvailability(ctx, "2025-11-19", 60, deps, testNow)
	require.NoError(t, err)
	assert.Equal(t, schedule.RestrictionPastDate, past.Restriction)
	assert.Empty(t, past.AvailableTimes)

	_, err = GetAvailability(ctx, "11/24", 60, deps, testNow)
	assert.ErrorIs(t, err, booking.ErrInvalidDate)
}

func TestGetPublishedPost(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	posts := blogStore.NewSQLStore(db, storage.DialectSQLite)
	published := blog.Post{
		ID: "p1", Slug: "driver-fitting", Title: "드라이버 피팅", Status: blog.StatusPublished,
		Content: "## 왜 피팅인가\n첫 줄\n둘째 줄\n\n<script>alert(1)</script>\n\n## 왜 피팅인가",
		Tags: []string{}, PublishedAt: testNow, CreatedAt: testNow, UpdatedAt: testNow,
	}
	draft := blog.Post{ID: "p2", Slug: "draft", Title: "초안", Status: blog.StatusDraft, Tags: []string{}, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, posts.Save(ctx, published))
	require.NoError(t, posts.Save(ctx, draft))

	v, err := GetPublishedPost(ctx, "driver-fitting", posts)
	require.NoError(t, err)
	assert.Contains(t, v.HTML, "첫 줄<br")
	assert.NotContains(t, v.HTML, "<script>")
	require.Len(t, v.TOC, 2)
	assert.NotEqual(t, v.TOC[0].ID, v.TOC[1].ID)
	assert.True(t, strings.Contains(v.HTML, `id="`+v.TOC[1].ID+`"`))

	_, err = GetPublishedPost(ctx, "draft", posts)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = GetPublishedPost(ctx, "nope", posts)
	assert.ErrorIs(t, err, ErrPostNotFound)

	list, total, err := ListPublishedPosts(ctx, "", storage.Page{Limit: 10}, posts)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "p1", list[0].ID)
}

func TestListHubContent(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenSQLite(t)
	cal := calendarStore.NewSQLStore(db, storage.DialectSQLite)
	item := calendar.Item{
		ID: "h1", Year: 2025, Month: 11, Week: 3, ContentDate: "2025-11-18", Season: calendar.SeasonAutumn,
		ContentType: calendar.TypeBlog, Title: "가을 시타", Status: calendar.StatusDraft, Priority: 3,
		Keywords: []string{}, Hashtags: []string{}, PublishedChannels: []string{}, CreatedAt: testNow, UpdatedAt: testNow,
	}
	require.NoError(t, cal.Save(ctx, item))
	draft := calendar.DeriveKakaoPost(item, testNow)
	draft.ID = "d1"
	require.NoError(t, cal.SavePost(ctx, draft))

	got, err := ListHubContent(ctx, calendarStore.Filter{Year: 2025}, cal)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]int{calendar.DeriveKakao: 1}, got[0].Drafts)

	plan, err := calendar.LoadPlan()
	require.NoError(t, err)
	items := AnnualPlan(plan, 2026)
	assert.Len(t, items, 12*calendar.WeeksPerMonth)
	assert.Empty(t, items[0].ID)
}
