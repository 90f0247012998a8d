package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/termplan/internal/db"
)

// SQLiteKVRepo implements KVRepo using a SQLite database.
type SQLiteKVRepo struct {
	db db.DBTX
}

// NewSQLiteKVRepo creates a new SQLiteKVRepo.
func NewSQLiteKVRepo(conn db.DBTX) *SQLiteKVRepo {
	return &SQLiteKVRepo{db: conn}
}

func (r *SQLiteKVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("reading key %q: %w", key, err)
	}
	return []byte(value), nil
}

func (r *SQLiteKVRepo) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), nowUTC())
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteKVRepo) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	return nil
}

func (r *SQLiteKVRepo) ListPrefix(ctx context.Context, prefix string) ([]KVEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM kv_store
		 WHERE key LIKE ? ESCAPE '\' AND substr(key, 1, length(?)) = ?
		 ORDER BY key`,
		escapeLike(prefix)+"%", prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing keys with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var entries []KVEntry
	for rows.Next() {
		var (
			e       KVEntry
			value   string
			updated string
		)
		if err := rows.Scan(&e.Key, &value, &updated); err != nil {
			return nil, fmt.Errorf("scanning kv entry: %w", err)
		}
		e.Value = []byte(value)
		e.UpdatedAt = parseTime(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
