package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// A second run is a no-op.
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"kv_store", "term_plans"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, "idx_term_plans_user").Scan(&name)
	require.NoError(t, err)
}

func TestMigrate_UpgradeAddsVersionColumn(t *testing.T) {
	db, err := sql.Open("sqlite", MemoryPath)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	// Schema as shipped before plans were versioned.
	_, err = db.Exec(`CREATE TABLE term_plans (
		id TEXT PRIMARY KEY, user_id TEXT NOT NULL,
		academic_term TEXT NOT NULL DEFAULT '', term_type TEXT NOT NULL DEFAULT '',
		term_year INTEGER NOT NULL DEFAULT 0, goals TEXT NOT NULL DEFAULT '[]',
		data TEXT NOT NULL DEFAULT '{}', created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO term_plans (id, user_id, created_at, updated_at) VALUES ('p1', 'u1', 'x', 'x')`)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM term_plans WHERE id = 'p1'`).Scan(&version))
	assert.Equal(t, 0, version)
}
