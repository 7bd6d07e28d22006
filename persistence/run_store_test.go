package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/toolgate/pipeline"
	"github.com/lexcodex/toolgate/transport"
)

func newTestStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	store, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun() *pipeline.Run {
	return &pipeline.Run{
		Steps: []pipeline.StepOutcome{
			{Name: "review", Result: &transport.ToolResult{Success: true}, Duration: 12 * time.Millisecond},
			{Name: "summarize", Skip: pipeline.SkipMissingDependency},
		},
		TotalDuration: 15 * time.Millisecond,
		Success:       false,
		Errors:        []string{"Step 'summarize' missing dependencies: review"},
	}
}

func TestRecordFromRun(t *testing.T) {
	record := RecordFromRun("release-check", sampleRun())

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "release-check", record.Name)
	assert.False(t, record.Success)
	assert.Equal(t, int64(15), record.DurationMs)
	require.Len(t, record.Steps, 2)
	assert.True(t, record.Steps[0].Success)
	assert.Equal(t, int64(12), record.Steps[0].DurationMs)
	assert.False(t, record.Steps[1].Success)
	assert.Equal(t, string(pipeline.SkipMissingDependency), record.Steps[1].Skip)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := RecordFromRun("release-check", sampleRun())
	require.NoError(t, store.Save(ctx, record))

	loaded, found, err := store.Load(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, record.Name, loaded.Name)
	assert.Equal(t, record.Errors, loaded.Errors)
	assert.Equal(t, record.Steps, loaded.Steps)
	assert.Equal(t, record.DurationMs, loaded.DurationMs)
}

func TestLoadUnknownID(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.Load(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := RecordFromRun("first", &pipeline.Run{Success: true, Errors: []string{}})
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := RecordFromRun("second", &pipeline.Run{Success: true, Errors: []string{}})
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	records, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].Name)
	assert.Equal(t, "first", records[1].Name)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "second", limited[0].Name)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := RecordFromRun("doomed", &pipeline.Run{Success: true, Errors: []string{}})
	require.NoError(t, store.Save(ctx, record))
	require.NoError(t, store.Delete(ctx, record.ID))

	_, found, err := store.Load(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveNilRecordIsMisuse(t *testing.T) {
	store := newTestStore(t)
	require.Error(t, store.Save(context.Background(), nil))
}
