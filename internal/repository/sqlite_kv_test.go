package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/termplan/internal/testutil"
)

func TestKVRepo_PutGetOverwrite(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "termPlan_1", []byte(`{"id":"1"}`)))
	require.NoError(t, repo.Put(ctx, "termPlan_1", []byte(`{"id":"1","goals":["x"]}`)))

	got, err := repo.Get(ctx, "termPlan_1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","goals":["x"]}`, string(got))
}

func TestKVRepo_GetMissing(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVRepo_Delete(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "userId", []byte("u1")))
	require.NoError(t, repo.Delete(ctx, "userId"))

	_, err := repo.Get(ctx, "userId")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "userId"), ErrNotFound)
}

func TestKVRepo_ListPrefixIsLiteral(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, k := range []string{"termPlan_b", "termPlan_a", "termPlanXc", "user"} {
		require.NoError(t, repo.Put(ctx, k, []byte("{}")))
	}

	entries, err := repo.ListPrefix(ctx, "termPlan_")
	require.NoError(t, err)

	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key)
		assert.False(t, e.UpdatedAt.IsZero())
	}
	// "_" must not act as a single-character wildcard.
	assert.Equal(t, []string{"termPlan_a", "termPlan_b"}, keys)
}

func TestKVRepo_ListPrefixIsCaseSensitive(t *testing.T) {
	repo := NewSQLiteKVRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, k := range []string{"termPlan_a", "termplan_x", "TERMPLAN_y"} {
		require.NoError(t, repo.Put(ctx, k, []byte("{}")))
	}

	entries, err := repo.ListPrefix(ctx, "termPlan_")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "termPlan_a", entries[0].Key)
}
