package fakeapi

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is one schema step of the fake backend database.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// Timestamps are stored as unix nanoseconds.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "accounts",
		Up: `
			CREATE TABLE IF NOT EXISTS roles (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL COLLATE NOCASE UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL
			);

			-- company_id is optional, so it carries no foreign key
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				user_name TEXT NOT NULL COLLATE NOCASE,
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL COLLATE NOCASE UNIQUE,
				phone_number TEXT NOT NULL DEFAULT '',
				gender TEXT NOT NULL DEFAULT '',
				role_name TEXT NOT NULL DEFAULT '',
				company_id TEXT NOT NULL DEFAULT '',
				is_active INTEGER NOT NULL DEFAULT 1,
				password_hash TEXT NOT NULL,
				created_at INTEGER NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_users_user_name ON users(user_name);
		`,
	},
	{
		Version: 2,
		Name:    "tracking",
		Up: `
			CREATE TABLE IF NOT EXISTS code_sequences (
				prefix TEXT PRIMARY KEY,
				counter INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS companies (
				id TEXT PRIMARY KEY,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL COLLATE NOCASE UNIQUE,
				name_prefix TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				phone_number TEXT NOT NULL DEFAULT '',
				is_active INTEGER NOT NULL DEFAULT 1,
				documents TEXT NOT NULL DEFAULT '[]',
				created_at INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS company_activity (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
				summary TEXT NOT NULL,
				actor TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_company_activity_company ON company_activity(company_id);

			CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				company_id TEXT NOT NULL REFERENCES companies(id),
				supervisor_id TEXT NOT NULL DEFAULT '',
				documents TEXT NOT NULL DEFAULT '[]',
				created_at INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS phases (
				id TEXT PRIMARY KEY,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				project_id TEXT NOT NULL REFERENCES projects(id),
				documents TEXT NOT NULL DEFAULT '[]',
				created_at INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS issues (
				id TEXT PRIMARY KEY,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				severity TEXT NOT NULL,
				status TEXT NOT NULL,
				phase_id TEXT NOT NULL REFERENCES phases(id),
				documents TEXT NOT NULL DEFAULT '[]',
				created_at INTEGER NOT NULL
			);
		`,
	},
	{
		Version: 3,
		Name:    "claims_and_documents",
		Up: `
			CREATE TABLE IF NOT EXISTS claims (
				name TEXT PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS user_claims (
				subject_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				claim TEXT NOT NULL REFERENCES claims(name),
				PRIMARY KEY (subject_id, claim)
			);

			CREATE TABLE IF NOT EXISTS role_claims (
				subject_id TEXT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
				claim TEXT NOT NULL REFERENCES claims(name),
				PRIMARY KEY (subject_id, claim)
			);

			CREATE TABLE IF NOT EXISTS documents (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				uploaded_by TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL
			);
		`,
	},
}

// runMigrations applies every migration newer than the recorded version.
func runMigrations(ctx context.Context, db *sql.DB, now func() time.Time) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	err = db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, now().UTC().UnixNano(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}
