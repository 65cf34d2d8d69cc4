package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"masgolf/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

const sessionCookieName = "masgolf_session"

const issuer = "masgolf"

// ErrInvalidSession is returned for missing, expired, revoked or forged tokens.
var ErrInvalidSession = errors.New("invalid session")

// Session is the signed identity carried by the session cookie.
type Session struct {
	AccountID   string          `json:"account_id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
	IssuedAt    time.Time       `json:"issued_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	tokenID     string
}

// Account rebuilds the role view of the session for permission checks.
// INVARIANT: Session fields are not mutated
func (s Session) Account() account.Account {
	return account.Account{
		ID:          s.AccountID,
		Name:        s.Name,
		Phone:       s.Phone,
		Role:        s.Role,
		Permissions: s.Permissions,
		IsActive:    true,
	}
}

type sessionClaims struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"perms,omitempty"`
	// IssuedNanos keeps sub-second issue time; iat is whole seconds.
	IssuedNanos int64 `json:"iat_ns,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session tokens. Logout and
// account changes are recorded in memory so a still-valid token can be
// refused before it expires.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time

	mu            sync.Mutex
	revokedTokens map[string]time.Time // token id -> expiry
	revokedSince  map[string]time.Time // account id -> tokens issued before are refused
}

// NewSessionManager creates a manager signing with secret.
// PRE: len(secret) > 0; ttl > 0
func NewSessionManager(secret []byte, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		secret:        secret,
		ttl:           ttl,
		secure:        secure,
		now:           time.Now,
		revokedTokens: make(map[string]time.Time),
		revokedSince:  make(map[string]time.Time),
	}
}

// TTL returns the session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session token for acct.
// PRE: acct is active
// POST: Returns the token and the session it encodes
func (m *SessionManager) Issue(acct account.Account) (string, Session, error) {
	now := m.now().UTC()
	claims := sessionClaims{
		Name:        acct.Name,
		Phone:       acct.Phone,
		Role:        acct.Role,
		Permissions: acct.Permissions,
		IssuedNanos: now.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   acct.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, sessionFromClaims(claims), nil
}

// Parse verifies token and returns its session.
// POST: Returns ErrInvalidSession for anything that must not authenticate
func (m *SessionManager) Parse(token string) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	sess := sessionFromClaims(claims)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, revoked := m.revokedTokens[sess.tokenID]; revoked {
		return Session{}, ErrInvalidSession
	}
	if since, ok := m.revokedSince[sess.AccountID]; ok && !sess.IssuedAt.After(since) {
		return Session{}, ErrInvalidSession
	}
	return sess, nil
}

// Revoke refuses one session until it would have expired anyway.
func (m *SessionManager) Revoke(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	if s.tokenID != "" {
		m.revokedTokens[s.tokenID] = s.ExpiresAt
	}
}

// RevokeAccount refuses every session of accountID issued up to now. Used
// when an account is disabled, demoted or deleted.
// INVARIANT: compared at nanosecond precision, so a login right after the
// change is accepted
func (m *SessionManager) RevokeAccount(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	m.revokedSince[accountID] = m.now().UTC()
}

func (m *SessionManager) pruneLocked() {
	now := m.now()
	for id, exp := range m.revokedTokens {
		if now.After(exp) {
			delete(m.revokedTokens, id)
		}
	}
	for id, since := range m.revokedSince {
		if now.Sub(since) > m.ttl {
			delete(m.revokedSince, id)
		}
	}
}

func sessionFromClaims(c sessionClaims) Session {
	s := Session{
		AccountID:   c.Subject,
		Name:        c.Name,
		Phone:       c.Phone,
		Role:        c.Role,
		Permissions: c.Permissions,
		tokenID:     c.ID,
	}
	switch {
	case c.IssuedNanos > 0:
		s.IssuedAt = time.Unix(0, c.IssuedNanos).UTC()
	case c.IssuedAt != nil:
		s.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

// SetCookie stores token in the session cookie.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
	})
}

// ClearCookie removes the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// Auth returns middleware that extracts the session from the cookie and sets it in context.
// It does NOT block unauthenticated requests; use RequireAuth or RequirePermission for that.
func Auth(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				if sess, err := sessions.Parse(cookie.Value); err == nil {
					r = r.WithContext(ContextWithSession(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth blocks requests without a session from a role that may read
// admin listings.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSessionFromContext(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "로그인이 필요합니다.")
			return
		}
		acct := sess.Account()
		if !acct.CanRead() {
			deny(w, http.StatusForbidden, "권한이 없습니다.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission blocks requests whose session lacks category.
func RequirePermission(category string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSessionFromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "로그인이 필요합니다.")
				return
			}
			acct := sess.Account()
			if !acct.HasPermission(category) {
				deny(w, http.StatusForbidden, "권한이 없습니다.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin blocks requests from anyone but admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSessionFromContext(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "로그인이 필요합니다.")
			return
		}
		if sess.Role != account.RoleAdmin {
			deny(w, http.StatusForbidden, "관리자만 접근할 수 있습니다.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(Session)
	return sess, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
