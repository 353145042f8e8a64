// Package stage implements a Stage that binds one input JournalReader,
// one pipe, and one output Journal writer, and exposes the single
// per-iteration Step the engine's worker loop drives.
package stage

import (
	"sync/atomic"
	"time"

	"github.com/tislib/roda-state/journal"
	"github.com/tislib/roda-state/pipe"
)

// Result is what a single Step call accomplished.
type Result int

const (
	// Idle means the input reader had no item available this iteration.
	Idle Result = iota
	// Worked means an item was consumed (and possibly emitted downstream).
	Worked
)

// State is the stage lifecycle: Running, Draining, Stopped.
type State int32

const (
	Running State = iota
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stage binds an input reader, a pipe, and an output journal writer.
// Out is the pipe's output type; when a stage is
// terminal (no downstream journal), construct it with NewTerminal and
// consume emitted items via the sink callback instead of a writer.
type Stage[In, Out any] struct {
	reader *journal.Reader[In]
	step   pipe.Step[In, Out]
	writer *journal.Writer[Out]
	sink   func(Out)

	state         atomic.Int32
	graceTimeout  time.Duration
	drainDeadline atomic.Int64 // unix nanos; 0 means "not yet set"
	now           func() time.Time
}

// New binds reader -> step -> writer into a running stage. graceTimeout
// bounds how long Draining waits for the input reader to go quiet before
// transitioning to Stopped.
func New[In, Out any](reader *journal.Reader[In], step pipe.Step[In, Out], writer *journal.Writer[Out], graceTimeout time.Duration) *Stage[In, Out] {
	return &Stage[In, Out]{
		reader:       reader,
		step:         step,
		writer:       writer,
		graceTimeout: graceTimeout,
		now:          time.Now,
	}
}

// NewTerminal binds reader -> step -> sink, for a stage whose output
// leaves the pipeline (e.g. an ingress/egress send/receive surface)
// instead of feeding another journal.
func NewTerminal[In, Out any](reader *journal.Reader[In], step pipe.Step[In, Out], sink func(Out), graceTimeout time.Duration) *Stage[In, Out] {
	return &Stage[In, Out]{
		reader:       reader,
		step:         step,
		sink:         sink,
		graceTimeout: graceTimeout,
		now:          time.Now,
	}
}

// State returns the stage's current lifecycle state.
func (s *Stage[In, Out]) State() State {
	return State(s.state.Load())
}

// RequestShutdown transitions Running -> Draining. It is a no-op if the
// stage is already draining or stopped.
func (s *Stage[In, Out]) RequestShutdown() {
	s.state.CompareAndSwap(int32(Running), int32(Draining))
}

// Step runs one iteration:
//  1. try_advance the input reader; on failure return Idle.
//  2. obtain the borrowed view of the current item.
//  3. run the pipe; if it yields Some(out), append to the output journal.
//  4. return Worked.
//
// A non-nil error means the output journal rejected the append
// (ErrCapacityExceeded) — a caller sizing bug, surfaced directly rather
// than retried.
func (s *Stage[In, Out]) Step() (Result, error) {
	if s.State() == Stopped {
		return Idle, nil
	}

	if !s.reader.TryAdvance() {
		if s.State() == Draining {
			s.advanceDrainClock()
		}
		return Idle, nil
	}
	s.drainDeadline.Store(0)

	v, ok := s.reader.Get()
	if !ok {
		return Idle, nil
	}

	out, emit := s.step(*v)
	if !emit {
		return Worked, nil
	}

	if s.writer != nil {
		if err := s.writer.Append(out); err != nil {
			return Worked, err
		}
	} else if s.sink != nil {
		s.sink(out)
	}
	return Worked, nil
}

// advanceDrainClock implements the Draining -> Stopped transition: the
// first idle iteration while draining starts a grace-period clock; once
// the clock expires with no further work having reset it, the stage
// stops.
func (s *Stage[In, Out]) advanceDrainClock() {
	now := s.now()
	dl := s.drainDeadline.Load()
	if dl == 0 {
		s.drainDeadline.Store(now.Add(s.graceTimeout).UnixNano())
		return
	}
	if now.UnixNano() >= dl {
		s.state.CompareAndSwap(int32(Draining), int32(Stopped))
	}
}
