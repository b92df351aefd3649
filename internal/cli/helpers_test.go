package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rshade/trainload/internal/cli"
	"github.com/rshade/trainload/internal/config"
)

const csvHeader = "train_no,station_code,sequence,station_name,distance_from_source"

// setupCLITest isolates a command run: a private config home, a temporary
// working directory and quiet logging.
func setupCLITest(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	work := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvLogFile, "")
	t.Setenv(config.EnvDriver, "")
	t.Setenv(config.EnvBatchSize, "")
	t.Setenv(config.EnvStations, "")
	t.Setenv(config.EnvDistances, "")
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(work))
	t.Setenv("PWD", work)
	t.Cleanup(func() { _ = os.Chdir(prevWD) })
	t.Cleanup(config.ResetGlobalConfigForTest)

	return work
}

func writeTimetable(t *testing.T, dir string, rows int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(csvHeader + "\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,ST%d,%d,STATION %d,%d\n", 12000+i/10, i%10, i%10+1, i, i*7)
	}
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}
