package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UnitOfWork runs a callback inside one transaction. The callback gets a
// DBTX backed by the *sql.Tx and builds tx-scoped repositories from it;
// the backend store uses this to make its owner check and upsert atomic.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork implements UnitOfWork using database/sql transactions.
type SQLiteUnitOfWork struct {
	db *sql.DB
}

// NewSQLiteUnitOfWork creates a UnitOfWork backed by the given *sql.DB.
func NewSQLiteUnitOfWork(db *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: db}
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
