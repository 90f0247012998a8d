package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/termplan/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAbort = errors.New("abort")

func newUoW(t *testing.T) (*db.SQLiteUnitOfWork, db.DBTX) {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database), database
}

func putKey(ctx context.Context, tx db.DBTX, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, 'now')`, key, value)
	return err
}

func hasKey(t *testing.T, conn db.DBTX, key string) bool {
	t.Helper()
	var n int
	err := conn.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM kv_store WHERE key = ?`, key).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestWithinTx_CommitsBothWrites(t *testing.T) {
	uow, conn := newUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putKey(ctx, tx, "termPlan_a", "{}"); err != nil {
			return err
		}
		return putKey(ctx, tx, "termPlan_b", "{}")
	})
	require.NoError(t, err)

	assert.True(t, hasKey(t, conn, "termPlan_a"))
	assert.True(t, hasKey(t, conn, "termPlan_b"))
}

func TestWithinTx_ErrorRollsBack(t *testing.T) {
	uow, conn := newUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putKey(ctx, tx, "termPlan_a", "{}"); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	assert.False(t, hasKey(t, conn, "termPlan_a"))
}

func TestWithinTx_PanicRollsBackAndRepanics(t *testing.T) {
	uow, conn := newUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = putKey(ctx, tx, "termPlan_a", "{}")
			panic("boom")
		})
	})
	assert.False(t, hasKey(t, conn, "termPlan_a"))
}
