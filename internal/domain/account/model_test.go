package account_test

import (
	"testing"
	"time"

	"masgolf/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		wantErr error
	}{
		{
			name:    "valid admin",
			account: account.Account{Name: "관리자", Phone: "010-1111-2222", Role: account.RoleAdmin},
		},
		{
			name: "valid editor with grants",
			account: account.Account{
				Name:        "편집자",
				Phone:       "01033334444",
				Role:        account.RoleEditor,
				Permissions: map[string]bool{account.PermContent: true},
			},
		},
		{
			name:    "empty name",
			account: account.Account{Phone: "01011112222", Role: account.RoleViewer},
			wantErr: account.ErrEmptyName,
		},
		{
			name:    "landline phone",
			account: account.Account{Name: "관리자", Phone: "02-123-4567", Role: account.RoleAdmin},
			wantErr: account.ErrInvalidPhone,
		},
		{
			name:    "invalid role",
			account: account.Account{Name: "관리자", Phone: "01011112222", Role: "coach"},
			wantErr: account.ErrInvalidRole,
		},
		{
			name: "unknown permission",
			account: account.Account{
				Name:        "편집자",
				Phone:       "01033334444",
				Role:        account.RoleEditor,
				Permissions: map[string]bool{"billing": true},
			},
			wantErr: account.ErrUnknownPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.account.Validate(); err != tt.wantErr {
				t.Errorf("Account.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAccount_SetPassword tests the SetPassword method.
func TestAccount_SetPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "securepassword123", false},
		{"exactly 8 chars", "12345678", false},
		{"empty password", "", true},
		{"7 chars", "1234567", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &account.Account{}
			err := a.SetPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (a.PasswordHash == "" || a.PasswordHash == tt.password) {
				t.Error("SetPassword() should store a bcrypt hash")
			}
		})
	}
}

// TestAccount_CheckPassword tests the CheckPassword method.
func TestAccount_CheckPassword(t *testing.T) {
	a := &account.Account{}
	if err := a.SetPassword("masgolf2025"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := a.CheckPassword("masgolf2025"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := a.CheckPassword("masgolf2024"); err != account.ErrWrongPassword {
		t.Errorf("CheckPassword(wrong) = %v, want ErrWrongPassword", err)
	}

	empty := &account.Account{}
	if err := empty.CheckPassword("anything"); err == nil {
		t.Error("CheckPassword() should fail when no hash is set")
	}
}

// TestAccount_Lockout tests the failed-login lockout window.
func TestAccount_Lockout(t *testing.T) {
	now := time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC)
	a := &account.Account{}

	for i := 0; i < 4; i++ {
		a.RecordFailedLogin(now)
		if a.IsLocked(now) {
			t.Fatalf("account should not be locked after %d failures", i+1)
		}
	}

	a.RecordFailedLogin(now)
	if !a.IsLocked(now) {
		t.Error("account should be locked after 5 failures")
	}
	if a.IsLocked(now.Add(account.LockoutDuration)) {
		t.Error("lock should expire after the lockout duration")
	}

	a.RecordLogin(now)
	if a.FailedLogins != 0 || a.IsLocked(now) || !a.LastLoginAt.Equal(now) {
		t.Errorf("RecordLogin did not reset state: %+v", a)
	}
}

// TestAccount_HasPermission tests role-based permission checks.
func TestAccount_HasPermission(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		perm    string
		want    bool
	}{
		{"admin has all", account.Account{Role: account.RoleAdmin, IsActive: true}, account.PermSMS, true},
		{"editor granted", account.Account{Role: account.RoleEditor, IsActive: true, Permissions: map[string]bool{account.PermContent: true}}, account.PermContent, true},
		{"editor not granted", account.Account{Role: account.RoleEditor, IsActive: true}, account.PermBookings, false},
		{"viewer never", account.Account{Role: account.RoleViewer, IsActive: true, Permissions: map[string]bool{account.PermContent: true}}, account.PermContent, false},
		{"inactive admin", account.Account{Role: account.RoleAdmin}, account.PermContent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.HasPermission(tt.perm); got != tt.want {
				t.Errorf("HasPermission(%q) = %v, want %v", tt.perm, got, tt.want)
			}
		})
	}
}

// TestDefaultPermissions tests the starting grant sets.
func TestDefaultPermissions(t *testing.T) {
	admin := account.DefaultPermissions(account.RoleAdmin)
	if len(admin) != len(account.ValidPermissions) {
		t.Errorf("admin grants = %v", admin)
	}
	if len(account.DefaultPermissions(account.RoleViewer)) != 0 {
		t.Error("viewer should start with no grants")
	}
	if !account.DefaultPermissions(account.RoleEditor)[account.PermContent] {
		t.Error("editor should start with content")
	}
}
