package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"masgolf/internal/domain/account"
)

// AccountStore is the full admin_users store surface used by user management.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByPhone(ctx context.Context, phone string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Delete(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int, error)
}

// ErrPhoneTaken is returned when another account already logs in with the phone.
var ErrPhoneTaken = errors.New("an account with this phone already exists")

// ErrLastAdmin is returned when a change would leave no active admin.
var ErrLastAdmin = errors.New("at least one admin account must remain")

// CreateUserInput carries a new admin dashboard user.
type CreateUserInput struct {
	Name        string
	Phone       string
	Email       string
	Role        string
	Password    string
	Permissions map[string]bool // nil selects the role defaults
}

// UserDeps holds dependencies for the user management orchestrators.
type UserDeps struct {
	AccountStore AccountStore
	Now          func() time.Time
}

// ExecuteCreateUser creates an active account.
// PRE: password has at least 8 characters
// POST: Account persisted with a bcrypt hash
// INVARIANT: phone is unique across accounts
func ExecuteCreateUser(ctx context.Context, input CreateUserInput, deps UserDeps) (account.Account, error) {
	a := account.Account{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Phone:       input.Phone,
		Email:       input.Email,
		Role:        input.Role,
		Permissions: input.Permissions,
		IsActive:    true,
		CreatedAt:   clock(deps.Now),
	}
	if a.Role == "" {
		a.Role = account.RoleEditor
	}
	if a.Permissions == nil {
		a.Permissions = account.DefaultPermissions(a.Role)
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return account.Account{}, err
	}
	if err := a.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}

	if _, err := deps.AccountStore.GetByPhone(ctx, a.Phone); err == nil {
		return account.Account{}, ErrPhoneTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return account.Account{}, fmt.Errorf("check phone: %w", err)
	}

	if err := deps.AccountStore.Save(ctx, a); err != nil {
		return account.Account{}, fmt.Errorf("save account: %w", err)
	}
	slog.Info("user_created", "account_id", a.ID, "role", a.Role)
	return a, nil
}

// UpdateUserInput carries an admin's edit of a user. Nil fields are unchanged.
type UpdateUserInput struct {
	ID          string
	Name        *string
	Email       *string
	Role        *string
	Permissions map[string]bool
	IsActive    *bool
	Password    *string // reset when set
}

// ExecuteUpdateUser applies an admin edit.
// PRE: ID names an existing account
// POST: Account saved; FailedLogins cleared on password reset
// INVARIANT: an admin cannot demote or disable the last active admin
func ExecuteUpdateUser(ctx context.Context, input UpdateUserInput, deps UserDeps) (account.Account, error) {
	a, err := deps.AccountStore.GetByID(ctx, input.ID)
	if err != nil {
		return account.Account{}, err
	}
	wasAdmin := a.IsAdmin() && a.IsActive

	if input.Name != nil {
		a.Name = *input.Name
	}
	if input.Email != nil {
		a.Email = *input.Email
	}
	if input.Role != nil {
		a.Role = *input.Role
	}
	if input.Permissions != nil {
		a.Permissions = input.Permissions
	}
	if input.IsActive != nil {
		a.IsActive = *input.IsActive
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return account.Account{}, err
	}
	if input.Password != nil {
		if err := a.SetPassword(*input.Password); err != nil {
			return account.Account{}, err
		}
		a.FailedLogins = 0
		a.LockedUntil = time.Time{}
	}

	if wasAdmin && !(a.IsAdmin() && a.IsActive) {
		n, err := deps.AccountStore.CountAdmins(ctx)
		if err != nil {
			return account.Account{}, fmt.Errorf("count admins: %w", err)
		}
		if n <= 1 {
			return account.Account{}, ErrLastAdmin
		}
	}

	if err := deps.AccountStore.Save(ctx, a); err != nil {
		return account.Account{}, fmt.Errorf("save account: %w", err)
	}
	slog.Info("user_updated", "account_id", a.ID, "role", a.Role, "active", a.IsActive, "password_reset", input.Password != nil)
	return a, nil
}

// ExecuteDeleteUser removes an account.
// PRE: actorID is the signed-in admin
// INVARIANT: users cannot delete themselves
func ExecuteDeleteUser(ctx context.Context, id, actorID string, deps UserDeps) error {
	if id == actorID {
		return account.ErrDeleteSelf
	}
	if err := deps.AccountStore.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("user_deleted", "account_id", id, "actor_id", actorID)
	return nil
}

// ExecuteSeedAdmin creates the first admin when none exists. It is a no-op
// once any active admin is present.
// POST: Returns true when an account was created
func ExecuteSeedAdmin(ctx context.Context, name, phone, password string, deps UserDeps) (bool, error) {
	n, err := deps.AccountStore.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if name == "" {
		name = "관리자"
	}
	a, err := ExecuteCreateUser(ctx, CreateUserInput{
		Name: name, Phone: phone, Role: account.RoleAdmin, Password: password,
	}, deps)
	if err != nil {
		return false, err
	}
	slog.Info("admin_seeded", "account_id", a.ID)
	return true, nil
}
