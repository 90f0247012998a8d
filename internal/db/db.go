package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// OpenDB opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database pinned to a single
// connection, since every new connection would see an empty database.
// Sets WAL mode and enables foreign keys.
// Runs migrations automatically.
func OpenDB(path string) (*sql.DB, error) {
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	// busy_timeout is per connection; the _pragma DSN parameter applies it
	// to every connection the pool opens.
	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode so the CLI and a running TUI can share the cache file.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
