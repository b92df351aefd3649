package uploader

import "github.com/rshade/trainload/internal/engine/batch"

// Reporter receives progress events from a run. Calls happen on the
// goroutine executing Run, in order.
type Reporter interface {
	// Loaded is called once the input has been read.
	Loaded(source string, rows int)
	// BatchCommitted is called after every successful batch commit.
	BatchCommitted(snap batch.ProgressSnapshot)
	// Done is called after the upload log entry was written.
	Done(summary Summary)
	// Aborted is called once when the run stops in state from.
	Aborted(from State, err error)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Loaded(string, int)                    {}
func (NopReporter) BatchCommitted(batch.ProgressSnapshot) {}
func (NopReporter) Done(Summary)                          {}
func (NopReporter) Aborted(State, error)                  {}
