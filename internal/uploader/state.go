package uploader

import (
	"fmt"
	"slices"
)

// State is a step in the life of an upload run.
type State int

// Run states, in the order a successful run visits them.
const (
	StateIdle State = iota
	StateLoading
	StateNormalizing
	StateUploading
	StateLogging
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateNormalizing:
		return "normalizing"
	case StateUploading:
		return "uploading"
	case StateLogging:
		return "logging"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateAborted
}

//nolint:gochecknoglobals // Static transition table.
var transitions = map[State][]State{
	StateIdle:        {StateLoading},
	StateLoading:     {StateNormalizing, StateAborted},
	StateNormalizing: {StateUploading},
	StateUploading:   {StateLogging, StateAborted},
	StateLogging:     {StateDone, StateAborted},
}

// CanTransition reports whether a run may move from s to next.
func (s State) CanTransition(next State) bool {
	return slices.Contains(transitions[s], next)
}
