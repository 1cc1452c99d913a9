package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordExecution(context.Background(), &Execution{
		Task:   "smoke",
		OpID:   "op-1",
		Status: "completed",
	}))
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &Execution{
		Task:       "parse plan",
		OpID:       "op-1",
		Status:     "completed",
		Duration:   120 * time.Millisecond,
		Confidence: 0.85,
	}
	require.NoError(t, store.RecordExecution(ctx, first))
	assert.NotZero(t, first.ID)

	second := &Execution{
		Task:         "run checks",
		OpID:         "op-2",
		Status:       "failed",
		ErrorMessage: "assertion failed",
		Duration:     40 * time.Millisecond,
		Confidence:   0.72,
	}
	require.NoError(t, store.RecordExecution(ctx, second))

	execs, err := store.RecentExecutions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, execs, 2)

	// Newest first.
	assert.Equal(t, "run checks", execs[0].Task)
	assert.Equal(t, "assertion failed", execs[0].ErrorMessage)
	assert.Equal(t, 40*time.Millisecond, execs[0].Duration)
	assert.Equal(t, "parse plan", execs[1].Task)
	assert.Empty(t, execs[1].ErrorMessage)
}

func TestRecentExecutionsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordExecution(ctx, &Execution{
			Task:   "bulk",
			OpID:   "op",
			Status: "completed",
		}))
	}

	execs, err := store.RecentExecutions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, execs, 3)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalExecutions)
	assert.Equal(t, 0.0, empty.SuccessRate)

	for _, status := range []string{"completed", "completed", "completed", "failed"} {
		require.NoError(t, store.RecordExecution(ctx, &Execution{
			Task:   "t",
			OpID:   "op",
			Status: status,
		}))
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalExecutions)
	assert.Equal(t, 3, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.InDelta(t, 0.75, stats.SuccessRate, 1e-9)
}
