package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Session is the process-wide run state shared between the worker and
// the interactive surface. Exactly one run may be active at a time;
// stop requests are idempotent.
type Session struct {
	running   atomic.Bool
	stop      atomic.Bool
	forceStop atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// TryStart claims the session for a new run. It returns false when a
// run is already active.
func (s *Session) TryStart() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.stop.Store(false)
	s.forceStop.Store(false)
	return true
}

// Finish releases the session after a run completes or aborts.
func (s *Session) Finish() {
	s.mu.Lock()
	s.cancel = nil
	s.mu.Unlock()
	s.running.Store(false)
	s.stop.Store(false)
	s.forceStop.Store(false)
}

// Running reports whether a run is active.
func (s *Session) Running() bool { return s.running.Load() }

// RequestStop asks the worker to halt at the next item boundary. The
// in-flight file finishes first.
func (s *Session) RequestStop() { s.stop.Store(true) }

// RequestForceStop aborts the in-flight external operation immediately
// and halts the worker.
func (s *Session) RequestForceStop() {
	s.stop.Store(true)
	s.forceStop.Store(true)
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// StopRequested reports whether any stop has been requested.
func (s *Session) StopRequested() bool { return s.stop.Load() }

// ForceStopRequested reports whether a forceful stop was requested.
func (s *Session) ForceStopRequested() bool { return s.forceStop.Load() }

// armCancel registers the cancel function for the in-flight operation
// so a force stop can kill it.
func (s *Session) armCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

func (s *Session) disarmCancel() {
	s.mu.Lock()
	s.cancel = nil
	s.mu.Unlock()
}
