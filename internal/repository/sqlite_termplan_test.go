package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/testutil"
)

func newRecord(t *testing.T, id, userID string) *codec.Record {
	t.Helper()
	rec, err := codec.ToRecord(testutil.NewTestPlan(testutil.WithPlanID(id), testutil.WithUserID(userID)))
	require.NoError(t, err)
	return &rec
}

func TestTermPlanRepo_CreateAndGet(t *testing.T) {
	repo := NewSQLiteTermPlanRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	rec := newRecord(t, "plan-1", "u1")
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Fall", got.AcademicTerm)
	assert.Equal(t, []string{"Finish Algebra I"}, got.Goals)
	assert.Equal(t, int64(1), got.Version)

	plan := codec.FromRecord(*got)
	require.Len(t, plan.Students, 1)
	assert.Equal(t, "Enoch", plan.Students[0].FirstName)
}

func TestTermPlanRepo_CreateDuplicate(t *testing.T) {
	repo := NewSQLiteTermPlanRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRecord(t, "plan-1", "u1")))
	err := repo.Create(ctx, newRecord(t, "plan-1", "u1"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTermPlanRepo_GetMissing(t *testing.T) {
	repo := NewSQLiteTermPlanRepo(testutil.NewTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTermPlanRepo_UpsertInsertsThenUpdates(t *testing.T) {
	repo := NewSQLiteTermPlanRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	rec := newRecord(t, "plan-1", "u1")
	stored, err := repo.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)

	rec.Version = 4
	rec.Goals = []string{"Memorize Psalm 23"}
	stored, err = repo.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.Version)
	assert.Equal(t, []string{"Memorize Psalm 23"}, stored.Goals)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestTermPlanRepo_UpsertNeverMovesVersionBackwards(t *testing.T) {
	repo := NewSQLiteTermPlanRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	ahead := newRecord(t, "plan-1", "u1")
	ahead.Version = 5
	ahead.Goals = []string{"device B"}
	stored, err := repo.Upsert(ctx, ahead)
	require.NoError(t, err)
	require.Equal(t, int64(5), stored.Version)

	stale := newRecord(t, "plan-1", "u1")
	stale.Version = 3
	stale.Goals = []string{"device A"}
	stored, err = repo.Upsert(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stored.Version, "stale write lands past the stored version")
	assert.Equal(t, []string{"device A"}, stored.Goals)

	same := newRecord(t, "plan-1", "u1")
	same.Version = 6
	stored, err = repo.Upsert(ctx, same)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.Version)
}

func TestNextVersion(t *testing.T) {
	tests := []struct {
		existing, incoming, want int64
	}{
		{existing: 1, incoming: 4, want: 4},
		{existing: 5, incoming: 3, want: 6},
		{existing: 5, incoming: 5, want: 6},
		{existing: 0, incoming: 0, want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextVersion(tt.existing, tt.incoming), "existing=%d incoming=%d", tt.existing, tt.incoming)
	}
}

func TestTermPlanRepo_UpsertRejectsOtherOwner(t *testing.T) {
	repo := NewSQLiteTermPlanRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRecord(t, "plan-1", "u1")))

	_, err := repo.Upsert(ctx, newRecord(t, "plan-1", "intruder"))
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := repo.GetByID(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}

func TestTermPlanRepo_UpsertRollsBackOnFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteTermPlanRepo(database)
	ctx := context.Background()

	rec := newRecord(t, "plan-1", "u1")
	require.NoError(t, repo.Create(ctx, rec))

	boom := errors.New("disk full")
	failing := repo.WithUnitOfWork(&testutil.FailOnNthExecUoW{DB: database, FailOn: 1, Err: boom})

	rec.Version = 9
	_, err := failing.Upsert(ctx, rec)
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestTermPlanRepo_StringDataIsReturnedVerbatim(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteTermPlanRepo(database)
	ctx := context.Background()

	legacy, err := json.Marshal(`{"students":{"sarah":{"firstName":"Sarah"}}}`)
	require.NoError(t, err)
	rec := &codec.Record{ID: "legacy", UserID: "u1", Data: legacy}
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, "legacy")
	require.NoError(t, err)
	plan := codec.FromRecord(*got)
	require.Len(t, plan.Students, 1)
	assert.Equal(t, "sarah", plan.Students[0].ID)
}

func TestTermPlanRepo_ListByUser(t *testing.T) {
	repo := NewSQLiteTermPlanRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRecord(t, "a", "u1")))
	require.NoError(t, repo.Create(ctx, newRecord(t, "b", "u1")))
	require.NoError(t, repo.Create(ctx, newRecord(t, "c", "u2")))

	records, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "u1", r.UserID)
	}
}
