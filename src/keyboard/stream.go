package keyboard

import "sync/atomic"

// Waker is the minimal contract a scheduler needs to satisfy for a
// Stream to register interest: a single idempotent wake notification.
// Defined here (rather than imported from the task package) so keyboard
// has no dependency on the executor; task.Executor's per-task waker
// satisfies this structurally.
type Waker interface {
	Wake()
}

// Stream adapts a Queue into the lazy, single-consumer poll protocol
// spec.md §4.6 requires: fast-path pop, register waker, re-poll,
// deregister-or-pend. Creating a second Stream over the same Queue is a
// programming error (spec.md §4.6); callers that need to enforce this
// should hand out at most one Stream per Queue, which NewStream does not
// itself police since nothing else in this kernel attempts a second one.
type Stream struct {
	q     *Queue
	waker atomic.Pointer[Waker]
}

// NewStream returns a consumer view over q.
func NewStream(q *Queue) *Stream {
	return &Stream{q: q}
}

// Poll implements the four-step protocol from spec.md §4.6:
//  1. fast-path pop; if present, return ready
//  2. register waker
//  3. re-poll; if present, deregister and return ready
//  4. return pending
//
// Step 2 before step 3 is what closes the lost-wakeup window: if the ISR
// pushes a byte after step 1's pop found nothing but before step 2
// registers the waker, step 3's re-poll still observes it. If the ISR
// instead fires after step 3, the registered waker (still installed)
// receives the wake and the executor will poll again.
func (s *Stream) Poll(w Waker) (scancode byte, ready bool) {
	if b, ok := s.q.Pop(); ok {
		return b, true
	}

	s.waker.Store(&w)

	if b, ok := s.q.Pop(); ok {
		s.waker.Store(nil)
		return b, true
	}
	return 0, false
}

// WakeIfWaiting atomically takes the registered waker, if any, and wakes
// it. The ISR calls Queue.Push then Stream.WakeIfWaiting, so each
// interrupt performs a single atomic swap and at most one wake (none when
// no waker is registered).
func (s *Stream) WakeIfWaiting() {
	if p := s.waker.Swap(nil); p != nil {
		(*p).Wake()
	}
}
