package task

import (
	"runtime"
	"sync/atomic"
)

// spinlock guards the ready queue and waker cache. Never parks on a
// channel: the keyboard ISR calls Wake, which takes this lock, so it must
// stay acquirable from ISR context without ever suspending (spec.md §5).
// Same shape as heap's spinlock; kept as its own small type rather than a
// shared package since each caller's critical section is a handful of
// lines and the two packages have no other reason to depend on each
// other.
type spinlock struct {
	held atomic.Bool
}

func (s *spinlock) Lock() {
	for !s.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (s *spinlock) Unlock() {
	s.held.Store(false)
}
