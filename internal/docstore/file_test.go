package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "store")
		s, err := NewFileStore(dir)
		require.NoError(t, err)
		assert.NotNil(t, s)
		assert.DirExists(t, dir)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := NewFileStore("")
		require.Error(t, err)
	})
}

func TestFileStore_CommitAndGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	writes := []Write{
		{Key: "12951-NDLS-1", Data: map[string]any{"station_name": "NEW DELHI", "sequence": 1}},
		{Key: "12951-BRC-2", Data: map[string]any{"station_name": "VADODARA", "sequence": 2}},
	}
	require.NoError(t, s.CommitBatch(ctx, "train_data", writes))

	doc, err := s.Get("train_data", "12951-NDLS-1")
	require.NoError(t, err)
	assert.Equal(t, "NEW DELHI", doc["station_name"])
	assert.InDelta(t, 1.0, doc["sequence"], 0)

	n, err := s.Count("train_data")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFileStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(ctx, "c", []Write{{Key: "k", Data: map[string]any{"v": "old", "x": true}}}))
	require.NoError(t, s.CommitBatch(ctx, "c", []Write{{Key: "k", Data: map[string]any{"v": "new"}}}))

	doc, err := s.Get("c", "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": "new"}, doc)

	n, err := s.Count("c")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFileStore_EscapesKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(ctx, "c", []Write{
		{Key: "a/b", Data: map[string]any{"n": 1}},
		{Key: "a%2Fb", Data: map[string]any{"n": 2}},
	}))

	one, err := s.Get("c", "a/b")
	require.NoError(t, err)
	two, err := s.Get("c", "a%2Fb")
	require.NoError(t, err)
	assert.NotEqual(t, one["n"], two["n"])

	entries, err := os.ReadDir(filepath.Join(dir, "c"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileStore_FailedStagingLeavesNothing(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	writes := []Write{
		{Key: "ok", Data: map[string]any{"n": 1}},
		{Key: "bad", Data: map[string]any{"ch": make(chan int)}},
	}
	require.Error(t, s.CommitBatch(ctx, "c", writes))

	n, err := s.Count("c")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Get("c", "ok")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_Add(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	id, err := s.Add(ctx, "data_upload_logs", map[string]any{"recordCount": 3})
	require.NoError(t, err)
	assert.Len(t, id, 26)

	doc, err := s.Get("data_upload_logs", id)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, doc["recordCount"], 0)
	require.NoError(t, s.Close())
}

func TestFileStore_CountMissingCollection(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	n, err := s.Count("nothing")
	require.NoError(t, err)
	assert.Zero(t, n)
}
