package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"masgolf/internal/adapters/storage"
	domain "masgolf/internal/domain/account"
)

const table = "admin_users"

var columns = []string{
	"id", "name", "phone", "email", "role", "password_hash", "permissions", "is_active",
	"failed_logins", "locked_until", "last_login_at", "created_at",
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a new account store.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) get(ctx context.Context, where sq.Eq) (domain.Account, error) {
	query, args, err := s.dialect.Builder().Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return domain.Account{}, err
	}
	a, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return a, err
}

// GetByID retrieves an account by ID.
// PRE: id is non-empty
// POST: Returns the account or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.get(ctx, sq.Eq{"id": id})
}

// GetByPhone retrieves an account by its login phone.
// PRE: phone is normalized
func (s *SQLStore) GetByPhone(ctx context.Context, phone string) (domain.Account, error) {
	return s.get(ctx, sq.Eq{"phone": phone})
}

// Save persists an account (insert or update).
// PRE: account has been validated
// POST: created_at is never overwritten
func (s *SQLStore) Save(ctx context.Context, a domain.Account) error {
	ins := s.dialect.Builder().Insert(table).Columns(columns...).Values(
		a.ID, a.Name, a.Phone, a.Email, a.Role, a.PasswordHash, storage.EncodeFlags(a.Permissions), a.IsActive,
		a.FailedLogins, storage.FormatTime(a.LockedUntil), storage.FormatTime(a.LastLoginAt), storage.FormatTime(a.CreatedAt),
	).Suffix(storage.UpsertSuffix("id", columns[:len(columns)-1]...))
	if _, err := storage.Exec(ctx, s.db, ins); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// Delete removes an account.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := storage.Exec(ctx, s.db, s.dialect.Builder().Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return storage.Affected(res, "account")
}

// List returns accounts ordered by name, optionally filtered by role.
func (s *SQLStore) List(ctx context.Context, role string) ([]domain.Account, error) {
	q := s.dialect.Builder().Select(columns...).From(table).OrderBy("name ASC", "id ASC")
	if role != "" {
		q = q.Where(sq.Eq{"role": role})
	}
	rows, err := storage.Query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountAdmins returns the number of active admin accounts.
func (s *SQLStore) CountAdmins(ctx context.Context) (int, error) {
	return storage.Count(ctx, s.db, s.dialect, table, sq.Eq{"role": domain.RoleAdmin, "is_active": true})
}

func scanAccount(row storage.Scanner) (domain.Account, error) {
	var a domain.Account
	var perms, lockedUntil, lastLogin, created string
	if err := row.Scan(&a.ID, &a.Name, &a.Phone, &a.Email, &a.Role, &a.PasswordHash, &perms, &a.IsActive,
		&a.FailedLogins, &lockedUntil, &lastLogin, &created); err != nil {
		return domain.Account{}, err
	}
	a.Permissions = storage.DecodeFlags(perms)
	a.LockedUntil = storage.ParseTime(lockedUntil)
	a.LastLoginAt = storage.ParseTime(lastLogin)
	a.CreatedAt = storage.ParseTime(created)
	return a, nil
}
