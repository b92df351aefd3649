package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{name: "local", raw: "train_data.csv"},
		{name: "absolute local", raw: "/data/train_data.csv"},
		{name: "gcs", raw: "gs://rail-bucket/exports/train_data.csv", wantBucket: "rail-bucket", wantObject: "exports/train_data.csv"},
		{name: "gcs without object", raw: "gs://rail-bucket", wantErr: true},
		{name: "gcs empty object", raw: "gs://rail-bucket/", wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocation(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, loc.Bucket)
			assert.Equal(t, tt.wantObject, loc.Object)
			assert.Equal(t, tt.wantBucket != "", loc.IsRemote())
		})
	}
}

func TestOpen_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("train_no\n1\n"), 0600))

	rc, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "train_no\n1\n", string(data))
}

func TestOpen_LocalMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_Directory(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), Options{})
	require.ErrorIs(t, err, ErrInvalidLocation)
}
