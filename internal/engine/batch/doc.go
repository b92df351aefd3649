// Package batch splits an ordered slice into fixed-size batches and hands them,
// one at a time and in order, to a callback.
//
// It is the chunking loop behind the timetable upload: each batch maps to one
// atomic commit against the document store, so the batch size is capped at
// the largest write set a store accepts in a single commit (500). Processing
// is strictly sequential and stops at the first failing batch; nothing after
// a failed batch is attempted.
package batch
