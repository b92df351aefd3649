package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/trainload/internal/cli"
	"github.com/rshade/trainload/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	work := t.TempDir()
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvLogLevel, "error")
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(work))
	t.Setenv("PWD", work)
	t.Cleanup(func() { _ = os.Chdir(prevWD) })
	t.Cleanup(config.ResetGlobalConfigForTest)
	return work
}

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version)
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version)
		require.NotNil(t, root)
		assert.Equal(t, "trainload", root.Use)
	})
}

func TestRun_Success(t *testing.T) {
	work := isolate(t)
	input := filepath.Join(work, "train_data.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"train_no,station_code,sequence,station_name,distance_from_source\n"+
			"12301,HWH,1,HOWRAH JN,0\n"+
			"12301,NDLS,2,NEW DELHI,1451\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"upload", "--dry-run"}, &stdout, &stderr)
	assert.Equal(t, cli.ExitOK, code)
	assert.Contains(t, stdout.String(), "Upload complete: 2 records")
	assert.Empty(t, stderr.String())
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "missing input", args: []string{"upload", "missing.csv", "--dry-run"}, want: cli.ExitLoad},
		{name: "stations missing input", args: []string{"stations", "missing.csv", "--dry-run"}, want: cli.ExitLoad},
		{name: "split missing input", args: []string{"split", "missing.csv"}, want: cli.ExitLoad},
		{name: "invalid batch size", args: []string{"upload", "--dry-run", "--batch-size", "0"}, want: cli.ExitError},
		{name: "unknown command", args: []string{"download"}, want: cli.ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, 1, strings.Count(stdout.String()+stderr.String(), "❌"),
				"the failure is reported exactly once")
			assert.Contains(t, stderr.String(), "❌")
		})
	}
}
