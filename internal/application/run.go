package application

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/replybot/internal/domain/model"
)

// Run is the state of one automation run. A fresh Run is created on every
// start and is owned by the loop executing it.
type Run struct {
	prompt string
	model  string

	stopRequested atomic.Bool
	done          chan struct{}

	mu     sync.Mutex
	status model.RunStatus
}

func newRun(prompt, modelName string, startedAt time.Time) *Run {
	return &Run{
		prompt: prompt,
		model:  modelName,
		done:   make(chan struct{}),
		status: model.RunStatus{
			State:     model.LoopStateIdle,
			Running:   true,
			Model:     modelName,
			StartedAt: startedAt,
		},
	}
}

// RequestStop asks the loop to halt at the next iteration boundary.
func (r *Run) RequestStop() {
	r.stopRequested.Store(true)
}

// StopRequested reports whether RequestStop was called.
func (r *Run) StopRequested() bool {
	return r.stopRequested.Load()
}

// Done is closed once the loop has reached a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// active reports whether r exists and has not reached a terminal state.
func (r *Run) active() bool {
	return r != nil && !r.Status().State.IsTerminal()
}

// Status returns a snapshot of the run.
func (r *Run) Status() model.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Run) update(fn func(*model.RunStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.status)
}

func (r *Run) setState(state model.LoopState) {
	r.update(func(s *model.RunStatus) { s.State = state })
}

// finish moves the run to a terminal state and releases Done waiters.
func (r *Run) finish(state model.LoopState, finishedAt time.Time, err error) {
	r.update(func(s *model.RunStatus) {
		s.State = state
		s.Running = false
		s.FinishedAt = finishedAt
		if err != nil {
			s.LastError = err.Error()
		}
	})
	close(r.done)
}
