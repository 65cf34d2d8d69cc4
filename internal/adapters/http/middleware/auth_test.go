package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"masgolf/internal/domain/account"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(now *time.Time) *SessionManager {
	m := NewSessionManager(testSecret, time.Hour, false)
	m.now = func() time.Time { return *now }
	return m
}

func editor() account.Account {
	return account.Account{
		ID:          "acct-1",
		Name:        "김편집",
		Phone:       "01012345678",
		Role:        account.RoleEditor,
		Permissions: map[string]bool{account.PermBookings: true},
		IsActive:    true,
	}
}

func TestSessionManager_IssueParse(t *testing.T) {
	now := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	m := newTestManager(&now)

	token, issued, err := m.Issue(editor())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !issued.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", issued.ExpiresAt, now.Add(time.Hour))
	}

	sess, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sess.AccountID != "acct-1" || sess.Role != account.RoleEditor || sess.Name != "김편집" {
		t.Errorf("session = %+v", sess)
	}
	if !sess.Permissions[account.PermBookings] {
		t.Error("permissions not carried")
	}
	acct := sess.Account()
	if !acct.HasPermission(account.PermBookings) || acct.HasPermission(account.PermSMS) {
		t.Error("Account() does not reflect permissions")
	}
}

func TestSessionManager_Expired(t *testing.T) {
	now := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	m := newTestManager(&now)
	token, _, err := m.Issue(editor())
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Parse expired = %v, want ErrInvalidSession", err)
	}
}

func TestSessionManager_ForeignSecret(t *testing.T) {
	now := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	other := NewSessionManager([]byte("another-secret-another-secret-xx"), time.Hour, false)
	other.now = func() time.Time { return now }
	token, _, err := other.Issue(editor())
	if err != nil {
		t.Fatal(err)
	}

	m := newTestManager(&now)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Parse = %v, want ErrInvalidSession", err)
	}
	if _, err := m.Parse("not.a.token"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Parse garbage = %v, want ErrInvalidSession", err)
	}
}

func TestSessionManager_Revoke(t *testing.T) {
	now := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	m := newTestManager(&now)
	first, sess, _ := m.Issue(editor())
	second, _, _ := m.Issue(editor())

	m.Revoke(sess)
	if _, err := m.Parse(first); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("revoked token parsed: %v", err)
	}
	if _, err := m.Parse(second); err != nil {
		t.Errorf("other token of the account refused: %v", err)
	}
}

func TestSessionManager_RevokeAccount(t *testing.T) {
	now := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	m := newTestManager(&now)
	old, _, _ := m.Issue(editor())

	now = now.Add(10 * time.Second)
	m.RevokeAccount("acct-1")
	if _, err := m.Parse(old); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("token issued before revocation parsed: %v", err)
	}

	now = now.Add(time.Second)
	fresh, _, _ := m.Issue(editor())
	if _, err := m.Parse(fresh); err != nil {
		t.Errorf("token issued after revocation refused: %v", err)
	}
}

func TestSessionManager_RevokeAccountSameSecond(t *testing.T) {
	now := time.Date(2025, 11, 20, 1, 0, 0, 100*int(time.Millisecond), time.UTC)
	m := newTestManager(&now)
	old, _, _ := m.Issue(editor())

	now = now.Add(200 * time.Millisecond)
	m.RevokeAccount("acct-1")

	now = now.Add(300 * time.Millisecond)
	fresh, _, _ := m.Issue(editor())
	if _, err := m.Parse(old); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("token issued before revocation parsed: %v", err)
	}
	if _, err := m.Parse(fresh); err != nil {
		t.Errorf("login within the revocation second refused: %v", err)
	}
}

func TestAuth_SetsSessionFromCookie(t *testing.T) {
	now := time.Now()
	m := newTestManager(&now)
	token, _, _ := m.Issue(editor())

	var got Session
	var ok bool
	h := Auth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/admin/bookings", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !ok || got.AccountID != "acct-1" {
		t.Errorf("session = %+v, ok = %v", got, ok)
	}

	req = httptest.NewRequest("GET", "/api/admin/bookings", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "garbage"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if ok {
		t.Error("invalid cookie produced a session")
	}
}

func TestSetCookie_Attributes(t *testing.T) {
	m := NewSessionManager(testSecret, time.Hour, true)
	rr := httptest.NewRecorder()
	m.SetCookie(rr, "tok")

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != sessionCookieName || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode || c.MaxAge != 3600 {
		t.Errorf("cookie = %+v", c)
	}
}

func TestGates(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	admin := Session{AccountID: "a", Role: account.RoleAdmin}
	ed := Session{AccountID: "e", Role: account.RoleEditor, Permissions: map[string]bool{account.PermContent: true}}
	viewer := Session{AccountID: "v", Role: account.RoleViewer}
	bogus := Session{AccountID: "x", Role: "owner"}

	tests := []struct {
		name    string
		handler http.Handler
		sess    *Session
		want    int
	}{
		{"read anonymous", RequireAuth(ok), nil, http.StatusUnauthorized},
		{"read viewer", RequireAuth(ok), &viewer, http.StatusNoContent},
		{"read unknown role", RequireAuth(ok), &bogus, http.StatusForbidden},
		{"write anonymous", RequirePermission(account.PermContent)(ok), nil, http.StatusUnauthorized},
		{"write viewer", RequirePermission(account.PermContent)(ok), &viewer, http.StatusForbidden},
		{"write granted editor", RequirePermission(account.PermContent)(ok), &ed, http.StatusNoContent},
		{"write ungranted editor", RequirePermission(account.PermSMS)(ok), &ed, http.StatusForbidden},
		{"write admin", RequirePermission(account.PermSMS)(ok), &admin, http.StatusNoContent},
		{"admin editor", RequireAdmin(ok), &ed, http.StatusForbidden},
		{"admin admin", RequireAdmin(ok), &admin, http.StatusNoContent},
		{"admin anonymous", RequireAdmin(ok), nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.sess != nil {
				req = req.WithContext(ContextWithSession(req.Context(), *tt.sess))
			}
			rr := httptest.NewRecorder()
			tt.handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
