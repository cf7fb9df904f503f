// File: evloop/scope.go
// Author: momentics <momentics@gmail.com>
//
// Package evloop implements the Async Context and Service Host of
// spec.md §4.3-4.4. Scope is the async scope of spec.md §3/§9: a count of
// in-flight continuations (not goroutines — every continuation in this
// runtime resumes on the loop thread via a reactor readiness callback or
// a timer handler, so Scope is bookkeeping, never a wait group of actual
// concurrent work).
package evloop

import (
	"sync"
	"sync/atomic"
)

// Scope tracks the set of in-flight asynchronous operations owned by a
// Context, per spec.md §3's "async scope" and the GLOSSARY entry.
type Scope struct {
	live          atomic.Int64
	stopRequested atomic.Bool

	mu       sync.Mutex
	onEmpty  chan struct{}
	armed    bool
	fired    bool
}

// NewScope constructs an empty Scope.
func NewScope() *Scope {
	return &Scope{}
}

// Spawn registers one in-flight operation. Paired with a later Done.
func (s *Scope) Spawn() {
	s.live.Add(1)
}

// Done marks one in-flight operation as complete, firing the one-shot
// OnEmpty signal if this was the last one and OnEmpty has been armed.
func (s *Scope) Done() {
	if n := s.live.Add(-1); n == 0 {
		s.fireEmpty()
	}
}

func (s *Scope) fireEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed && !s.fired && s.live.Load() == 0 {
		s.fired = true
		close(s.onEmpty)
	}
}

// RequestStop records that the scope should wind down. Continuations
// that check StopRequested may short-circuit rather than resubmit.
func (s *Scope) RequestStop() {
	s.stopRequested.Store(true)
}

// StopRequested reports whether RequestStop has been called.
func (s *Scope) StopRequested() bool {
	return s.stopRequested.Load()
}

// Empty reports whether the live count is currently zero.
func (s *Scope) Empty() bool {
	return s.live.Load() == 0
}

// OnEmpty arms (idempotently) the one-shot empty notification and returns
// its channel. Per SPEC_FULL.md §10, callers must arm this before the
// last operation can possibly complete, to avoid a race where the scope
// empties before the listener is armed — Context.Run does this before
// entering its wait loop.
func (s *Scope) OnEmpty() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onEmpty == nil {
		s.onEmpty = make(chan struct{})
	}
	s.armed = true
	if !s.fired && s.live.Load() == 0 {
		s.fired = true
		close(s.onEmpty)
	}
	return s.onEmpty
}
