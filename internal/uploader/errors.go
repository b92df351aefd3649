package uploader

import (
	"errors"
	"fmt"
)

// ErrAlreadyRun is returned when Run is called on an Uploader that has
// already left the Idle state.
var ErrAlreadyRun = errors.New("uploader has already run")

// LoadError reports that the input could not be opened or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// BatchCommitError reports a failed batch commit. Batches before Index were
// committed; nothing from this batch or later ones was written.
type BatchCommitError struct {
	// Index is the 0-based batch number.
	Index int
	// Offset is the position of the batch's first record in the input.
	Offset int
	// Size is the number of records in the batch.
	Size int
	Err  error
}

func (e *BatchCommitError) Error() string {
	return fmt.Sprintf("commit batch %d (records %d-%d): %v",
		e.Index+1, e.Offset+1, e.Offset+e.Size, e.Err)
}

func (e *BatchCommitError) Unwrap() error {
	return e.Err
}

// LogWriteError reports that the upload summary could not be written. All
// batches were committed when this happens.
type LogWriteError struct {
	Collection string
	Err        error
}

func (e *LogWriteError) Error() string {
	return fmt.Sprintf("write upload log to %s: %v", e.Collection, e.Err)
}

func (e *LogWriteError) Unwrap() error {
	return e.Err
}
