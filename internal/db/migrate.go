package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// Local cache keyspace: termPlan_<id>, user, userId, demoUserId.
	`CREATE TABLE IF NOT EXISTS kv_store (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	// Backend store used by `termplan serve` with the sqlite driver.
	`CREATE TABLE IF NOT EXISTS term_plans (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		academic_term TEXT NOT NULL DEFAULT '',
		term_type     TEXT NOT NULL DEFAULT '',
		term_year     INTEGER NOT NULL DEFAULT 0,
		goals         TEXT NOT NULL DEFAULT '[]',
		data          TEXT NOT NULL DEFAULT '{}',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_term_plans_user ON term_plans(user_id)`,

	// Added after the first release; older databases lack the column.
	`ALTER TABLE term_plans ADD COLUMN version INTEGER NOT NULL DEFAULT 0`,
}
