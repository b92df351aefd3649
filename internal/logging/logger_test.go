package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerWithPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trainload.log")

	result := NewLoggerWithPath(Config{Level: "info", Format: FormatJSON, Output: OutputFile, File: path})
	t.Cleanup(func() { _ = result.Close() })

	require.True(t, result.UsingFile)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t, path, result.FilePath)

	result.Logger.Info().Str("component", "test").Msg("hello")
	require.NoError(t, result.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestNewLoggerWithPath_FileFallback(t *testing.T) {
	result := NewLoggerWithPath(Config{Output: OutputFile})
	assert.False(t, result.UsingFile)
	assert.True(t, result.FallbackUsed)
	assert.NotEmpty(t, result.FallbackReason)
	assert.NoError(t, result.Close())
}

func TestComponentLoggerAndContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	l := ComponentLogger(base, "uploader")

	ctx := l.WithContext(context.Background())
	FromContext(ctx).Info().Msg("committed")

	assert.Contains(t, buf.String(), `"component":"uploader"`)
	assert.Contains(t, buf.String(), `"message":"committed"`)
}

func TestFromContext_NoLogger(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	// Must not panic.
	l.Info().Msg("dropped")
}

func TestRunID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RunIDFromContext(ctx))

	generated := GetOrGenerateRunID(ctx)
	assert.Len(t, generated, 26)

	ctx = ContextWithRunID(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	assert.Equal(t, "01HZZZZZZZZZZZZZZZZZZZZZZZ", GetOrGenerateRunID(ctx))
}

func TestNewID_Sortable(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}
