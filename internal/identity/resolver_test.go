package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/auth"
	"github.com/alexanderramin/termplan/internal/repository"
	"github.com/alexanderramin/termplan/internal/testutil"
)

type fakeLookup struct {
	id    string
	err   error
	calls int
}

func (f *fakeLookup) Me(context.Context) (string, error) {
	f.calls++
	return f.id, f.err
}

func newKV(t *testing.T) repository.KVRepo {
	t.Helper()
	return repository.NewSQLiteKVRepo(testutil.NewTestDB(t))
}

func TestResolve_SessionWinsAndSkipsLaterSources(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, UserIDKey, []byte("stored")))
	tok, err := auth.IssueToken("s", "from-session", time.Hour)
	require.NoError(t, err)
	lookup := &fakeLookup{id: "from-remote"}

	r := NewResolver(kv, zap.NewNop(), DefaultSources(tok, lookup, kv)...)
	id, ok := r.Resolve(ctx)

	require.True(t, ok)
	assert.Equal(t, "from-session", id)
	assert.Zero(t, lookup.calls)
}

func TestResolve_FailingRemoteFallsThroughToStoredUser(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, UserKey, []byte(`{"id":"stored-user","email":"a@b.c"}`)))
	require.NoError(t, kv.Put(ctx, UserIDKey, []byte("plain")))

	r := NewResolver(kv, nil, DefaultSources("", &fakeLookup{err: errors.New("offline")}, kv)...)
	id, ok := r.Resolve(ctx)

	require.True(t, ok)
	assert.Equal(t, "stored-user", id)
}

func TestResolve_UserIDBeforeDemoUserID(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, DemoUserIDKey, []byte("demo")))

	r := NewResolver(kv, nil, DefaultSources("", nil, kv)...)
	id, ok := r.Resolve(ctx)
	require.True(t, ok)
	assert.Equal(t, "demo", id)

	require.NoError(t, r.Remember(ctx, "real"))
	id, ok = r.Resolve(ctx)
	require.True(t, ok)
	assert.Equal(t, "real", id)
}

func TestResolve_QuotedFallbackValue(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, UserIDKey, []byte(`"u9"`)))

	id, ok := NewResolver(kv, nil, FallbackIDSource{KV: kv, Keys: []string{UserIDKey}}).Resolve(ctx)
	require.True(t, ok)
	assert.Equal(t, "u9", id)
}

func TestResolve_NothingAvailable(t *testing.T) {
	kv := newKV(t)

	id, ok := NewResolver(kv, nil, DefaultSources("garbage-token", nil, kv)...).Resolve(context.Background())
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lookup := &fakeLookup{id: "x"}

	_, ok := NewResolver(nil, nil, RemoteSource{Lookup: lookup}).Resolve(ctx)
	assert.False(t, ok)
	assert.Zero(t, lookup.calls)
}
