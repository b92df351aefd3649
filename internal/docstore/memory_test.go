package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CommitBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.CommitBatch(ctx, "train_data", []Write{
		{Key: "12-NDLS-1", Data: map[string]any{"sequence": int64(1)}},
		{Key: "12-NDLS-2", Data: map[string]any{"sequence": int64(2)}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Count("train_data"))
	assert.Equal(t, []string{"12-NDLS-1", "12-NDLS-2"}, s.Keys("train_data"))
	require.Len(t, s.Commits(), 1)
	assert.Equal(t, "train_data", s.Commits()[0].Collection)
}

func TestMemoryStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CommitBatch(ctx, "c", []Write{{Key: "k", Data: map[string]any{"v": 1, "old": true}}}))
	require.NoError(t, s.CommitBatch(ctx, "c", []Write{{Key: "k", Data: map[string]any{"v": 2}}}))

	doc, err := s.Get("c", "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": 2}, doc)
	assert.Equal(t, 1, s.Count("c"))
}

func TestMemoryStore_FailCommitAppliesNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("unavailable")
	s.FailCommit = func(attempt int, _ string, _ []Write) error {
		if attempt == 1 {
			return boom
		}
		return nil
	}

	require.NoError(t, s.CommitBatch(ctx, "c", []Write{{Key: "a", Data: map[string]any{}}}))
	err := s.CommitBatch(ctx, "c", []Write{{Key: "b", Data: map[string]any{}}})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"a"}, s.Keys("c"))
	assert.Equal(t, 2, s.Attempts())
	assert.Len(t, s.Commits(), 1)
}

func TestMemoryStore_Validation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.ErrorIs(t, s.CommitBatch(ctx, "", nil), ErrEmptyCollection)
	require.ErrorIs(t, s.CommitBatch(ctx, "c", []Write{{Key: ""}}), ErrEmptyKey)

	tooMany := make([]Write, MaxWritesPerCommit+1)
	for i := range tooMany {
		tooMany[i] = Write{Key: "k"}
	}
	require.ErrorIs(t, s.CommitBatch(ctx, "c", tooMany), ErrBatchTooLarge)
	assert.Zero(t, s.Attempts())
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	require.ErrorIs(t, s.CommitBatch(ctx, "c", []Write{{Key: "k"}}), context.Canceled)
	assert.Zero(t, s.Count("c"))
}

func TestMemoryStore_Add(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id1, err := s.Add(ctx, "logs", map[string]any{"n": 1})
	require.NoError(t, err)
	id2, err := s.Add(ctx, "logs", map[string]any{"n": 2})
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, s.Count("logs"))

	s.FailAdd = errors.New("denied")
	_, err = s.Add(ctx, "logs", nil)
	require.Error(t, err)
	assert.Equal(t, 2, s.Count("logs"))
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	data := map[string]any{"v": 1}
	require.NoError(t, s.CommitBatch(ctx, "c", []Write{{Key: "k", Data: data}}))

	data["v"] = 99
	doc, err := s.Get("c", "k")
	require.NoError(t, err)
	assert.Equal(t, 1, doc["v"])

	_, err = s.Get("c", "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Close())
	assert.True(t, s.Closed())
}
