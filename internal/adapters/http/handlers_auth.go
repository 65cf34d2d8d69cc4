package web

import (
	"net/http"

	"masgolf/internal/adapters/http/middleware"
	"masgolf/internal/application/orchestrators"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/auth/login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	acct, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Username: req.Username,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}

	token, sess, err := sessions.Issue(acct)
	if err != nil {
		internalError(w, err)
		return
	}
	sessions.SetCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"user":       acct,
		"expires_at": sess.ExpiresAt,
	})
}

// handleLogout handles POST /api/auth/logout. It succeeds without a session.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		sessions.Revoke(sess)
	}
	sessions.ClearCookie(w)
	writeSuccess(w, http.StatusOK, "", nil)
}

// handleSession handles GET /api/auth/session.
func handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"authenticated": true,
		"session":       sess,
	})
}
