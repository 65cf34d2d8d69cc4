package account

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"masgolf/internal/domain/contactinfo"
)

// Account rule constants
const (
	MaxNameLength     = 50
	MinPasswordLength = 8
	MaxFailedLogins   = 5
	LockoutDuration   = 15 * time.Minute
	bcryptCost        = 12
)

// Role constants
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleEditor, RoleViewer}

// Permission categories an editor can be granted.
const (
	PermBookings  = "bookings"
	PermContacts  = "contacts"
	PermCustomers = "customers"
	PermContent   = "content"
	PermImages    = "images"
	PermSMS       = "sms"
)

// ValidPermissions lists every grantable permission category.
var ValidPermissions = []string{PermBookings, PermContacts, PermCustomers, PermContent, PermImages, PermSMS}

// Domain errors
var (
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrNameTooLong       = errors.New("name cannot exceed 50 characters")
	ErrInvalidPhone      = errors.New("phone must be a valid 010 mobile number")
	ErrInvalidRole       = errors.New("role must be one of: admin, editor, viewer")
	ErrUnknownPermission = errors.New("unknown permission category")
	ErrEmptyPassword     = errors.New("password cannot be empty")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters")
	ErrWrongPassword     = errors.New("incorrect password")
	ErrInactive          = errors.New("account is disabled")
	ErrLocked            = errors.New("account is temporarily locked")
	ErrDeleteSelf        = errors.New("you cannot delete your own account")
)

// Account is an admin dashboard user. Phone doubles as the login username.
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email,omitempty"`
	Role         string          `json:"role"`
	PasswordHash string          `json:"-"`
	Permissions  map[string]bool `json:"permissions"`
	IsActive     bool            `json:"is_active"`
	FailedLogins int             `json:"-"`
	LockedUntil  time.Time       `json:"-"`
	LastLoginAt  time.Time       `json:"last_login_at,omitzero"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if _, ok := contactinfo.NormalizePhone(a.Phone); !ok {
		return ErrInvalidPhone
	}
	if !isValidRole(a.Role) {
		return ErrInvalidRole
	}
	for p := range a.Permissions {
		if !isValidPermission(p) {
			return ErrUnknownPermission
		}
	}
	return nil
}

// Normalize canonicalizes the login phone and trims the name.
func (a *Account) Normalize() {
	a.Name = strings.TrimSpace(a.Name)
	if n, ok := contactinfo.NormalizePhone(a.Phone); ok {
		a.Phone = n
	}
	a.Email = contactinfo.CleanEmail(a.Email)
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 8 characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is locked out at now.
// INVARIANT: Account fields are not mutated
func (a *Account) IsLocked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the
// account for 15 minutes after 5 failures.
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (a *Account) RecordFailedLogin(now time.Time) {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = now.Add(LockoutDuration)
	}
}

// RecordLogin clears the failure counter and stamps the login time.
// POST: FailedLogins is 0, LockedUntil is zero, LastLoginAt is now
func (a *Account) RecordLogin(now time.Time) {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
	a.LastLoginAt = now
}

// IsAdmin returns true if the account has admin role.
// INVARIANT: Account fields are not mutated
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanRead reports whether the account may view admin listings.
func (a *Account) CanRead() bool {
	return a.IsActive && isValidRole(a.Role)
}

// HasPermission reports whether the account may modify data in category.
// Admins hold every permission, editors hold what they were granted and
// viewers hold none.
func (a *Account) HasPermission(category string) bool {
	if !a.IsActive {
		return false
	}
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleEditor:
		return a.Permissions[category]
	default:
		return false
	}
}

// DefaultPermissions returns the grant set a new account of role starts with.
func DefaultPermissions(role string) map[string]bool {
	out := map[string]bool{}
	switch role {
	case RoleAdmin:
		for _, p := range ValidPermissions {
			out[p] = true
		}
	case RoleEditor:
		out[PermContent] = true
		out[PermImages] = true
	}
	return out
}

// LooksLikePhone reports whether a login username should be treated as a
// phone number.
func LooksLikePhone(username string) bool {
	_, ok := contactinfo.NormalizePhone(username)
	return ok
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

func isValidPermission(p string) bool {
	for _, v := range ValidPermissions {
		if v == p {
			return true
		}
	}
	return false
}
