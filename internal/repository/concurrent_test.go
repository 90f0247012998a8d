package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/db"
	"github.com/alexanderramin/termplan/internal/testutil"
)

// newConcurrentTestDB creates a file-backed SQLite database in a temp directory.
// Unlike :memory:, a file-backed DB shares state across all connections in the
// pool, which is required to test real concurrent access with WAL mode.
func newConcurrentTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "concurrent_test.db")
	database, err := db.OpenDB(dbPath)
	require.NoError(t, err, "failed to create concurrent test database")
	t.Cleanup(func() { database.Close() })
	return database
}

// TestConcurrentAccess_ReadDuringWrite mirrors a CLI command saving a plan
// while an open TUI keeps reading the same cache key. Readers must always
// see a complete document.
func TestConcurrentAccess_ReadDuringWrite(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()
	repo := NewSQLiteKVRepo(database)

	plan := testutil.NewTestPlan(testutil.WithPlanID("shared"))
	raw, err := codec.Encode(plan)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, "termPlan_shared", raw))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			p := plan
			p.Version = int64(i + 2)
			b, err := codec.Encode(p)
			if err != nil {
				t.Errorf("writer: encode %d: %v", i, err)
				return
			}
			if err := repo.Put(ctx, "termPlan_shared", b); err != nil {
				t.Errorf("writer: put %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				b, err := repo.Get(ctx, "termPlan_shared")
				if err != nil {
					t.Errorf("reader %d: get: %v", reader, err)
					return
				}
				got, err := codec.Normalize(b)
				if err != nil {
					t.Errorf("reader %d: half-written document: %v", reader, err)
					return
				}
				if got.ID != "shared" || len(got.Students) != 1 {
					t.Errorf("reader %d: inconsistent plan %+v", reader, got)
				}
			}
		}(r)
	}

	wg.Wait()

	b, err := repo.Get(ctx, "termPlan_shared")
	require.NoError(t, err)
	final, err := codec.Normalize(b)
	require.NoError(t, err)
	assert.Equal(t, int64(21), final.Version)
}

// TestConcurrentAccess_LastWriterWins checks that concurrent writers to one
// key never interleave: the stored value is exactly one writer's document.
func TestConcurrentAccess_LastWriterWins(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()
	repo := NewSQLiteKVRepo(database)

	const writers = 10
	var wg sync.WaitGroup
	errCh := make(chan error, writers)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			p := testutil.NewTestPlan(testutil.WithPlanID("race"), testutil.WithGoals(fmt.Sprintf("goal-%d", w)))
			b, err := codec.Encode(p)
			if err != nil {
				errCh <- err
				return
			}
			if err := repo.Put(ctx, "termPlan_race", b); err != nil {
				errCh <- err
			}
		}(w)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	b, err := repo.Get(ctx, "termPlan_race")
	require.NoError(t, err)
	got, err := codec.Normalize(b)
	require.NoError(t, err)
	require.Len(t, got.Goals, 1)
	assert.Regexp(t, `^goal-\d$`, got.Goals[0])
}
