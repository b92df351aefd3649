// Package uploader moves a timetable CSV into a document store.
//
// A run loads the input, normalizes every row, commits the records in
// fixed-size atomic batches keyed by train, station and sequence, and finally
// writes one summary entry to the upload log collection. The first failure
// aborts the run; batches after a failed one are never attempted and no log
// entry is written.
package uploader
