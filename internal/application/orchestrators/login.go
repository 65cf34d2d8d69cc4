package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"masgolf/internal/domain/account"
	"masgolf/internal/domain/contactinfo"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByPhone(ctx context.Context, phone string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator. Username is the
// phone number the account was registered with, in any common format.
type LoginInput struct {
	Username string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Now          func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts, try again in 15 minutes")
	ErrAccountInactive    = errors.New("account is disabled")
)

// ExecuteLogin validates credentials and returns the account for session
// creation.
// PRE: Username and password provided
// POST: Returns the account on success; failures are counted and lock the
// account after five in a row
// INVARIANT: a locked or inactive account never authenticates
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.Account, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return account.Account{}, ErrInvalidCredentials
	}
	if account.LooksLikePhone(username) {
		username, _ = contactinfo.NormalizePhone(username)
	}
	now := clock(deps.Now)

	acct, err := deps.AccountStore.GetByPhone(ctx, username)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "username", username, "reason", "not_found")
		return account.Account{}, ErrInvalidCredentials
	}

	if !acct.IsActive {
		slog.Info("auth_event", "event", "login_blocked", "account_id", acct.ID, "reason", "inactive")
		return account.Account{}, ErrAccountInactive
	}
	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "account_id", acct.ID, "reason", "locked")
		return account.Account{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event_save_failed", "account_id", acct.ID, "error", err.Error())
		}
		slog.Info("auth_event", "event", "login_failed", "account_id", acct.ID, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		if acct.IsLocked(now) {
			return account.Account{}, ErrAccountLocked
		}
		return account.Account{}, ErrInvalidCredentials
	}

	acct.RecordLogin(now)
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		slog.Error("auth_event_save_failed", "account_id", acct.ID, "error", err.Error())
	}
	slog.Info("auth_event", "event", "login_success", "account_id", acct.ID, "role", acct.Role)
	return acct, nil
}
