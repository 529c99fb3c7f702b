package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndLatestRunningRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFrozenClock(t, start)
	cp := New("cp-1", "pipeline-a", "baseline", []string{"h1", "h2"})

	require.NoError(t, store.Save(context.Background(), cp))

	loaded, ok, err := store.LatestRunning("pipeline-a", "baseline")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cp.ID, loaded.ID)
	assert.Equal(t, cp.Total, loaded.Total)
	assert.Equal(t, cp.SampleContentHashes, loaded.SampleContentHashes)
}

func TestStoreLatestRunningIgnoresCompletedCheckpoints(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cp := New("cp-1", "pipeline-a", "baseline", []string{"h1"})
	cp.Finish(false)
	require.NoError(t, store.Save(context.Background(), cp))

	_, ok, err := store.LatestRunning("pipeline-a", "baseline")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreLatestRunningMissingReturnsNotOK(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.LatestRunning("no-such-pipeline", "baseline")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreLatestAnyReturnsCompletedCheckpoint(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cp := New("cp-1", "pipeline-a", "baseline", []string{"h1"})
	cp.Finish(false)
	require.NoError(t, store.Save(context.Background(), cp))

	loaded, ok, err := store.LatestAny("pipeline-a", "baseline")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cp.ID, loaded.ID)
	assert.Equal(t, StatusCompleted, loaded.Status)
}

func TestStoreLatestAnyMissingReturnsNotOK(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.LatestAny("no-such-pipeline", "baseline")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreCleanupKeepsOnlyLatestN(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		withFrozenClock(t, at)
		cp := New("cp", "pipeline-a", "baseline", nil)
		cp.CreatedAt = at
		require.NoError(t, store.Save(context.Background(), cp))
	}

	require.NoError(t, store.Cleanup("pipeline-a", "baseline", 2))

	remaining, err := store.listFor("pipeline-a", "baseline")
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
