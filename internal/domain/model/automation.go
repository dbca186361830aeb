package model

import "time"

// LoopState is the position of an automation run in its state machine.
type LoopState string

const (
	LoopStateIdle       LoopState = "idle"
	LoopStatePositioned LoopState = "positioned"
	LoopStateReplying   LoopState = "replying"
	LoopStateAdvancing  LoopState = "advancing"
	LoopStateStopped    LoopState = "stopped"
	LoopStateExhausted  LoopState = "exhausted"
)

// IsTerminal reports whether the run has ended.
func (s LoopState) IsTerminal() bool {
	return s == LoopStateStopped || s == LoopStateExhausted
}

// CommentRef is an opaque handle to one comment element on the page.
// The zero value means "no comment".
type CommentRef struct {
	ID string
}

// IsZero reports whether the ref points at nothing.
func (r CommentRef) IsZero() bool {
	return r.ID == ""
}

// RunStatus is a point-in-time snapshot of an automation run.
type RunStatus struct {
	State      LoopState
	Running    bool
	Model      string
	Visited    int
	Replied    int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
	LastError  string
}
