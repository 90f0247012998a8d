package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/termplan/internal/codec"
)

var (
	// ErrNotFound indicates the requested key or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates a write to a record owned by another user.
	ErrForbidden = errors.New("record belongs to another user")

	// ErrConflict indicates a create with an id that is already taken.
	ErrConflict = errors.New("record already exists")
)

// KVEntry is one row of the local key/value store.
type KVEntry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// KVRepo is the persistent local keyspace shared by every view of the
// same profile. Writes overwrite unconditionally.
type KVRepo interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	ListPrefix(ctx context.Context, prefix string) ([]KVEntry, error)
}

// TermPlanRepo is the backend's term_plans store.
type TermPlanRepo interface {
	GetByID(ctx context.Context, id string) (*codec.Record, error)
	// Create inserts a new record. The id must be unused.
	Create(ctx context.Context, rec *codec.Record) error
	// Upsert writes rec on behalf of rec.UserID. Overwriting a record owned
	// by another user fails with ErrForbidden. Returns the stored record.
	Upsert(ctx context.Context, rec *codec.Record) (*codec.Record, error)
	ListByUser(ctx context.Context, userID string) ([]*codec.Record, error)
}
