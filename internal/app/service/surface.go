package service

import (
	"sync"
	"sync/atomic"

	"jpeg_swap/internal/domain/entity"
)

// TransitionFunc observes command state changes on a surface.
type TransitionFunc func(surface string, from, to entity.CommandState)

// Surface is one group of controls that submits commands, such as a pool card
// or the staking panel. At most one command per surface is in flight; a second
// submission while busy is rejected, never queued.
type Surface[F any] struct {
	name         string
	state        atomic.Int32
	mu           sync.Mutex
	form         F
	onTransition TransitionFunc
}

// NewSurface creates an idle surface with an empty form.
func NewSurface[F any](name string, onTransition TransitionFunc) *Surface[F] {
	return &Surface[F]{name: name, onTransition: onTransition}
}

// Name identifies the surface in logs.
func (s *Surface[F]) Name() string { return s.name }

// State is the current command state.
func (s *Surface[F]) State() entity.CommandState {
	return entity.CommandState(s.state.Load())
}

// Form returns a copy of the current inputs.
func (s *Surface[F]) Form() F {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// UpdateForm edits the inputs in place.
func (s *Surface[F]) UpdateForm(fn func(*F)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.form)
}

// begin moves Idle -> Submitting. It reports false if a command is already in flight.
func (s *Surface[F]) begin() bool {
	if !s.state.CompareAndSwap(int32(entity.StateIdle), int32(entity.StateSubmitting)) {
		return false
	}
	s.notify(entity.StateIdle, entity.StateSubmitting)
	return true
}

// finish records the outcome and returns the surface to Idle.
func (s *Surface[F]) finish(outcome entity.CommandState) {
	s.state.Store(int32(outcome))
	s.notify(entity.StateSubmitting, outcome)
	s.state.Store(int32(entity.StateIdle))
	s.notify(outcome, entity.StateIdle)
}

func (s *Surface[F]) notify(from, to entity.CommandState) {
	if s.onTransition != nil {
		s.onTransition(s.name, from, to)
	}
}
