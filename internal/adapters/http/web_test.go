package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/http/middleware"
	"masgolf/internal/adapters/http/perf"
	"masgolf/internal/adapters/metrics"
	"masgolf/internal/adapters/sheet"
	"masgolf/internal/adapters/storage"
	accountStore "masgolf/internal/adapters/storage/account"
	blogStore "masgolf/internal/adapters/storage/blog"
	bookingStore "masgolf/internal/adapters/storage/booking"
	calendarStore "masgolf/internal/adapters/storage/calendar"
	channelSMSStore "masgolf/internal/adapters/storage/channelsms"
	contactStore "masgolf/internal/adapters/storage/contact"
	customerStore "masgolf/internal/adapters/storage/customer"
	imageMetaStore "masgolf/internal/adapters/storage/imagemeta"
	outboxStore "masgolf/internal/adapters/storage/outbox"
	quizStore "masgolf/internal/adapters/storage/quiz"
	scheduleStore "masgolf/internal/adapters/storage/schedule"
	"masgolf/internal/adapters/storage/storagetest"
	"masgolf/internal/application/orchestrators"
	"masgolf/internal/domain/account"
	"masgolf/internal/domain/outbox"
)

type testServer struct {
	handler http.Handler
	stores  *Stores
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := storagetest.OpenSQLite(t)
	d := storage.DialectSQLite
	s := &Stores{
		AccountStore:    accountStore.NewSQLStore(db, d),
		BookingStore:    bookingStore.NewSQLStore(db, d),
		ContactStore:    contactStore.NewSQLStore(db, d),
		CustomerStore:   customerStore.NewSQLStore(db, d),
		QuizStore:       quizStore.NewSQLStore(db, d),
		ScheduleStore:   scheduleStore.NewSQLStore(db, d),
		OutboxStore:     outboxStore.NewSQLStore(db, d),
		BlogStore:       blogStore.NewSQLStore(db, d),
		CalendarStore:   calendarStore.NewSQLStore(db, d),
		ChannelSMSStore: channelSMSStore.NewSQLStore(db, d),
		ImageMetaStore:  imageMetaStore.NewSQLStore(db, d),
	}
	m := metrics.New()
	h, stop := NewMux(s, &Services{Metrics: m, Perf: perf.NewCollector(100)}, Options{
		Sessions:           middleware.NewSessionManager([]byte("test-session-secret-test-session"), time.Hour, false),
		CSRFKey:            []byte("0123456789abcdef0123456789abcdef"),
		RateLimitPerSecond: 1000,
	})
	t.Cleanup(stop)
	return &testServer{handler: h, stores: s, metrics: m}
}

// do sends a request. Non-GET requests are sent as JSON.
func (ts *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// cookieFor issues a session cookie for a without touching the database.
func cookieFor(t *testing.T, a account.Account) *http.Cookie {
	t.Helper()
	a.IsActive = true
	token, _, err := sessions.Issue(a)
	require.NoError(t, err)
	return &http.Cookie{Name: "masgolf_session", Value: token}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

var (
	adminAcct  = account.Account{ID: "admin-1", Name: "관리자", Phone: "010-1111-2222", Role: account.RoleAdmin}
	viewerAcct = account.Account{ID: "viewer-1", Name: "조회자", Phone: "010-3333-4444", Role: account.RoleViewer}
	editorAcct = account.Account{ID: "editor-1", Name: "편집자", Phone: "010-5555-6666", Role: account.RoleEditor,
		Permissions: map[string]bool{account.PermBookings: true}}
)

const bookingJSON = `{"name":"홍길동","phone":"010-9876-5432","date":"2025-12-01","time":"14:00","club":"드라이버"}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestSubmitBooking_QueuesNotification(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "POST", "/api/booking", bookingJSON, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	b := body["booking"].(map[string]any)
	assert.Equal(t, "pending", b["status"])

	n, err := ts.stores.OutboxStore.CountByStatus(context.Background(), outbox.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one slack entry queued")
}

func TestSubmitBooking_Rejects(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"phone":"010-1234-5678","date":"2025-12-01","time":"14:00"}`, "name is required"},
		{"bad date", `{"name":"a","phone":"010-1234-5678","date":"12/01","time":"14:00"}`, ""},
		{"unknown field", `{"name":"a","admin":true}`, ""},
		{"empty body", ``, "request body is required"},
		{"malformed", `{"name":`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, "POST", "/api/booking", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			body := decodeBody(t, rr)
			assert.Equal(t, false, body["success"])
			if tt.want != "" {
				assert.Contains(t, body["message"], tt.want)
			}
		})
	}
}

func TestAvailability_RequiresDate(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, "GET", "/api/bookings/available", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPublicBlog_NotFound(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, "GET", "/api/blog/no-such-post", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLoginSessionLogout(t *testing.T) {
	ts := newTestServer(t)
	_, err := orchestrators.ExecuteCreateUser(context.Background(), orchestrators.CreateUserInput{
		Name: "김관리", Phone: "010-1234-5678", Role: account.RoleAdmin, Password: "correct-horse",
	}, orchestrators.UserDeps{AccountStore: ts.stores.AccountStore})
	require.NoError(t, err)

	rr := ts.do(t, "POST", "/api/auth/login", `{"username":"01012345678","password":"wrong-password"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, "POST", "/api/auth/login", `{"username":"01012345678","password":"correct-horse"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "masgolf_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie set")
	assert.NotContains(t, rr.Body.String(), "password_hash")

	rr = ts.do(t, "GET", "/api/auth/session", "", cookie)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["authenticated"])

	rr = ts.do(t, "GET", "/api/admin/users", "", cookie)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, "POST", "/api/auth/logout", "", cookie)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, "GET", "/api/auth/session", "", cookie)
	body = decodeBody(t, rr)
	assert.Equal(t, false, body["authenticated"], "revoked token no longer authenticates")
}

func TestPermissions(t *testing.T) {
	ts := newTestServer(t)
	admin := cookieFor(t, adminAcct)
	viewer := cookieFor(t, viewerAcct)
	editor := cookieFor(t, editorAcct)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		cookie *http.Cookie
		want   int
	}{
		{"anonymous list", "GET", "/api/admin/bookings", "", nil, http.StatusUnauthorized},
		{"viewer list", "GET", "/api/admin/bookings", "", viewer, http.StatusOK},
		{"viewer update", "PUT", "/api/admin/bookings/b-1", `{"status":"confirmed"}`, viewer, http.StatusForbidden},
		{"editor update missing", "PUT", "/api/admin/bookings/b-1", `{"status":"confirmed"}`, editor, http.StatusNotFound},
		{"editor contacts write", "DELETE", "/api/admin/contacts/c-1", "", editor, http.StatusForbidden},
		{"editor users", "GET", "/api/admin/users", "", editor, http.StatusForbidden},
		{"admin users", "GET", "/api/admin/users", "", admin, http.StatusOK},
		{"admin perf", "GET", "/api/admin/perf", "", admin, http.StatusOK},
		{"viewer dashboard", "GET", "/api/admin/dashboard", "", viewer, http.StatusOK},
		{"generate without writer", "POST", "/api/admin/content/generate", `{"title":"x","channels":["blog"]}`, admin, http.StatusServiceUnavailable},
		{"sms sync without scraper", "POST", "/api/admin/sms/sync", `{"group_id":"G1"}`, admin, http.StatusServiceUnavailable},
		{"annual plan without plan", "GET", "/api/admin/content-calendar/annual", "", viewer, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.path, tt.body, tt.cookie)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestAdminBookingFlow(t *testing.T) {
	ts := newTestServer(t)
	editor := cookieFor(t, editorAcct)

	rr := ts.do(t, "POST", "/api/booking", bookingJSON, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeBody(t, rr)["booking"].(map[string]any)["id"].(string)

	rr = ts.do(t, "PUT", "/api/admin/bookings/"+id, `{"status":"confirmed","memo":"샤프트 교체"}`, editor)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "confirmed", decodeBody(t, rr)["booking"].(map[string]any)["status"])

	rr = ts.do(t, "PUT", "/api/admin/bookings/"+id, `{"status":"lost"}`, editor)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, "GET", "/api/admin/bookings?status=confirmed", "", editor)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Len(t, body["bookings"], 1)

	rr = ts.do(t, "GET", "/api/admin/bookings/export", "", editor)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".xlsx")
	rows, err := sheet.ReadRows("bookings.xlsx", rr.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, rows, 2, "header plus one booking")

	rr = ts.do(t, "DELETE", "/api/admin/bookings/"+id, "", editor)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = ts.do(t, "GET", "/api/admin/bookings/"+id, "", editor)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminOutbox(t *testing.T) {
	ts := newTestServer(t)
	admin := cookieFor(t, adminAcct)

	require.Equal(t, http.StatusCreated, ts.do(t, "POST", "/api/contact",
		`{"name":"이문의","phone":"010-2222-3333","inquiry":"피팅 문의"}`, nil).Code)

	rr := ts.do(t, "GET", "/api/admin/outbox", "", admin)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["entries"], 0, "default lists failed entries only")

	rr = ts.do(t, "GET", "/api/admin/outbox?status=all", "", admin)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["entries"], 1)

	rr = ts.do(t, "POST", "/api/admin/outbox/x/retry", "", admin)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code, "no processor configured")
	rr = ts.do(t, "POST", "/api/admin/outbox/purge", "", admin)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAdminUsers_LastAdminGuard(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	a, err := orchestrators.ExecuteCreateUser(ctx, orchestrators.CreateUserInput{
		Name: "유일관리", Phone: "010-4444-5555", Role: account.RoleAdmin, Password: "correct-horse",
	}, orchestrators.UserDeps{AccountStore: ts.stores.AccountStore})
	require.NoError(t, err)
	self := cookieFor(t, a)

	rr := ts.do(t, "PUT", "/api/admin/users/"+a.ID, `{"role":"viewer"}`, self)
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	rr = ts.do(t, "DELETE", "/api/admin/users/"+a.ID, "", self)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "self delete refused")

	rr = ts.do(t, "POST", "/api/admin/users",
		`{"name":"새편집","phone":"010-6666-7777","role":"editor","password":"short"}`, self)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, "POST", "/api/admin/users",
		`{"name":"새편집","phone":"010-6666-7777","role":"editor","password":"long-enough"}`, self)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.do(t, "POST", "/api/admin/users",
		`{"name":"중복","phone":"01066667777","role":"viewer","password":"long-enough"}`, self)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAdminBlog(t *testing.T) {
	ts := newTestServer(t)
	admin := cookieFor(t, adminAcct)

	rr := ts.do(t, "POST", "/api/admin/blog",
		`{"title":"드라이버 피팅 가이드","content":"# 피팅\n본문","status":"published","category":"guide"}`, admin)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	post := decodeBody(t, rr)["post"].(map[string]any)
	slug := post["slug"].(string)
	require.NotEmpty(t, slug)

	rr = ts.do(t, "GET", "/api/blog/"+url.PathEscape(slug), "", nil)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.do(t, "GET", "/api/blog", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, decodeBody(t, rr)["total"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "GET", "/healthz", "", nil)

	rr := ts.do(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `route="GET /healthz"`)
}
