package cli

import (
	"context"
	"errors"

	"github.com/rshade/trainload/internal/uploader"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitLoad        = 2
	ExitBatchCommit = 3
	ExitLogWrite    = 4
	ExitInterrupted = 130
)

// ExitCode maps an error returned by a command to a process exit code.
// Interruption wins over the error kind it surfaced as.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	var (
		loadErr   *uploader.LoadError
		commitErr *uploader.BatchCommitError
		logErr    *uploader.LogWriteError
	)
	switch {
	case errors.As(err, &loadErr):
		return ExitLoad
	case errors.As(err, &commitErr):
		return ExitBatchCommit
	case errors.As(err, &logErr):
		return ExitLogWrite
	default:
		return ExitError
	}
}
