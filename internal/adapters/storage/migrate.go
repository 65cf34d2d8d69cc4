package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// migration is one ordered schema step. Statements must run on both SQLite and Postgres.
type migration struct {
	Version    int
	Name       string
	Statements []string
}

// migrations lists every schema step in order. Append only.
var migrations = []migration{
	{
		Version: 1,
		Name:    "core_tables",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS bookings (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				phone TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				date TEXT NOT NULL,
				time TEXT NOT NULL,
				duration INTEGER NOT NULL DEFAULT 60,
				club TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				memo TEXT NOT NULL DEFAULT '',
				quiz_result_id TEXT NOT NULL DEFAULT '',
				customer_profile_id TEXT NOT NULL DEFAULT '',
				campaign_source TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings (date, time)`,
			`CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings (customer_profile_id)`,
			`CREATE TABLE IF NOT EXISTS contacts (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				phone TEXT NOT NULL,
				call_times TEXT NOT NULL DEFAULT '',
				inquiry TEXT NOT NULL DEFAULT '',
				campaign_source TEXT NOT NULL DEFAULT '',
				contacted BOOLEAN NOT NULL DEFAULT FALSE,
				contacted_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS customers (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				phone TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL DEFAULT '',
				previous_phones TEXT NOT NULL DEFAULT '[]',
				visit_count INTEGER NOT NULL DEFAULT 0,
				first_visit_at TEXT NOT NULL DEFAULT '',
				last_visit_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS admin_users (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				phone TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL,
				password_hash TEXT NOT NULL DEFAULT '',
				permissions TEXT NOT NULL DEFAULT '{}',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT NOT NULL DEFAULT '',
				last_login_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS quiz_results (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				phone TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				swing_style TEXT NOT NULL DEFAULT '',
				priority TEXT NOT NULL DEFAULT '',
				current_distance TEXT NOT NULL DEFAULT '',
				recommended_flex TEXT NOT NULL DEFAULT '',
				expected_distance TEXT NOT NULL DEFAULT '',
				campaign_source TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS outbox (
				id TEXT PRIMARY KEY,
				action_type TEXT NOT NULL,
				payload TEXT NOT NULL,
				status TEXT NOT NULL,
				attempts INTEGER NOT NULL DEFAULT 0,
				max_attempts INTEGER NOT NULL DEFAULT 5,
				last_attempted_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				external_id TEXT NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox (status, created_at)`,
		},
	},
	{
		Version: 2,
		Name:    "content_tables",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS blog_posts (
				id TEXT PRIMARY KEY,
				slug TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				excerpt TEXT NOT NULL DEFAULT '',
				category TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '[]',
				status TEXT NOT NULL DEFAULT 'draft',
				meta_title TEXT NOT NULL DEFAULT '',
				meta_description TEXT NOT NULL DEFAULT '',
				author TEXT NOT NULL DEFAULT '',
				hub_content_id TEXT NOT NULL DEFAULT '',
				published_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS channel_sms (
				id TEXT PRIMARY KEY,
				solapi_group_id TEXT NOT NULL DEFAULT '',
				message_text TEXT NOT NULL DEFAULT '',
				message_type TEXT NOT NULL DEFAULT 'SMS',
				status TEXT NOT NULL DEFAULT 'draft',
				call_to_action TEXT NOT NULL DEFAULT '',
				sent_at TEXT NOT NULL DEFAULT '',
				sent_count INTEGER NOT NULL DEFAULT 0,
				success_count INTEGER NOT NULL DEFAULT 0,
				fail_count INTEGER NOT NULL DEFAULT 0,
				recipient_numbers TEXT NOT NULL DEFAULT '[]',
				image_url TEXT NOT NULL DEFAULT '',
				hub_content_id TEXT NOT NULL DEFAULT '',
				scheduled_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_channel_sms_group ON channel_sms (solapi_group_id) WHERE solapi_group_id <> ''`,
			`CREATE TABLE IF NOT EXISTS channel_posts (
				id TEXT PRIMARY KEY,
				channel TEXT NOT NULL,
				hub_content_id TEXT NOT NULL DEFAULT '',
				title TEXT NOT NULL DEFAULT '',
				content TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '[]',
				status TEXT NOT NULL DEFAULT 'draft',
				scheduled_at TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS content_calendar (
				id TEXT PRIMARY KEY,
				year INTEGER NOT NULL,
				month INTEGER NOT NULL,
				week INTEGER NOT NULL DEFAULT 0,
				content_date TEXT NOT NULL DEFAULT '',
				season TEXT NOT NULL DEFAULT '',
				theme TEXT NOT NULL DEFAULT '',
				campaign_id TEXT NOT NULL DEFAULT '',
				content_type TEXT NOT NULL DEFAULT 'blog',
				title TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				keywords TEXT NOT NULL DEFAULT '[]',
				hashtags TEXT NOT NULL DEFAULT '[]',
				status TEXT NOT NULL DEFAULT 'planned',
				priority INTEGER NOT NULL DEFAULT 3,
				published_channels TEXT NOT NULL DEFAULT '[]',
				derived_content_count INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_content_calendar_period ON content_calendar (year, month)`,
			`CREATE TABLE IF NOT EXISTS image_metadata (
				id TEXT PRIMARY KEY,
				image_url TEXT NOT NULL,
				storage_path TEXT NOT NULL DEFAULT '',
				alt_text TEXT NOT NULL DEFAULT '',
				title TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				keywords TEXT NOT NULL DEFAULT '[]',
				category TEXT NOT NULL DEFAULT '',
				source TEXT NOT NULL DEFAULT '',
				provider TEXT NOT NULL DEFAULT '',
				prompt TEXT NOT NULL DEFAULT '',
				original_url TEXT NOT NULL DEFAULT '',
				width INTEGER NOT NULL DEFAULT 0,
				height INTEGER NOT NULL DEFAULT 0,
				file_size INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
		},
	},
	{
		Version: 3,
		Name:    "booking_schedule",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS booking_settings (
				id TEXT PRIMARY KEY,
				disable_same_day BOOLEAN NOT NULL DEFAULT FALSE,
				disable_weekend BOOLEAN NOT NULL DEFAULT FALSE,
				min_advance_hours INTEGER NOT NULL DEFAULT 24,
				max_advance_days INTEGER NOT NULL DEFAULT 14,
				max_weekly_slots INTEGER NOT NULL DEFAULT 10,
				show_call_message BOOLEAN NOT NULL DEFAULT TRUE,
				call_message_text TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS booking_hours (
				id TEXT PRIMARY KEY,
				day_of_week INTEGER NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				is_available BOOLEAN NOT NULL DEFAULT TRUE
			)`,
			`CREATE TABLE IF NOT EXISTS booking_blocks (
				id TEXT PRIMARY KEY,
				date TEXT NOT NULL,
				time TEXT NOT NULL,
				duration INTEGER NOT NULL DEFAULT 60,
				is_virtual BOOLEAN NOT NULL DEFAULT FALSE,
				reason TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_booking_blocks_date ON booking_blocks (date)`,
		},
	},
	{
		Version: 4,
		Name:    "outbox_next_attempt",
		Statements: []string{
			// unix milliseconds; 0 means due now
			`ALTER TABLE outbox ADD COLUMN next_attempt_at BIGINT NOT NULL DEFAULT 0`,
			`CREATE INDEX IF NOT EXISTS idx_outbox_due ON outbox (status, next_attempt_at)`,
		},
	},
}

// LatestSchemaVersion returns the highest migration version known to this build.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].Version
}

// Migrate applies every pending migration in order, each inside its own transaction.
// PRE: db is a valid connection for dialect
// POST: schema_version holds every applied version; re-running is a no-op
func Migrate(ctx context.Context, db SQLDB, dialect Dialect) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	qb := dialect.Builder()
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := WithTx(ctx, db, func(tx *sql.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
				}
			}
			query, args, err := qb.Insert("schema_version").
				Columns("version", "name", "applied_at").
				Values(m.Version, m.Name, FormatTime(time.Now())).
				ToSql()
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, query, args...)
			return err
		})
		if err != nil {
			return err
		}
		slog.Info("schema_migrated", "version", m.Version, "name", m.Name)
	}
	return nil
}

func currentVersion(ctx context.Context, db SQLDB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
