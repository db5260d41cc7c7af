// Package keyboard implements the ISR-producer / task-consumer scancode
// channel described in spec.md §4.6: a bounded ring buffer fed from the
// keyboard ISR and drained by a single async consumer task, with the
// lost-wakeup-safe poll protocol spec.md §4.6 requires. The ring buffer
// itself is grounded on circbuf.Circbuf_t's head/tail modulo-indexed
// design, trimmed to a fixed byte queue: the teacher's circbuf carries a
// page-allocator-backed, Userio_i-based copy path built for daemon pipes,
// none of which applies to a single ISR pushing one byte at a time, so
// this is a rewrite in the same idiom rather than a reuse of the file.
package keyboard

import "nucleus/src/klog"

// capacity is the bounded queue size named by spec.md §4.6.
const capacity = 100

// Queue is a single-producer (ISR), single-consumer (the keyboard task)
// ring buffer of scancodes. It contains no locks: the ISR and the
// consumer never run concurrently on this single-core, non-preemptive
// kernel (spec.md §5), and the head/tail arithmetic below is safe under
// that one-writer/one-reader discipline the same way circbuf's is safe
// under its single-daemon discipline.
type Queue struct {
	buf        [capacity]byte
	head, tail int // head is the next write slot, tail the next read slot; both increase monotonically (never wrapped), so head-tail alone gives the depth and head==tail means empty.
	dropped    uint64
	pushed     uint64
	popped     uint64
}

// NewQueue returns an empty scancode queue.
func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) full() bool {
	return q.head-q.tail == capacity
}

func (q *Queue) empty() bool {
	return q.head == q.tail
}

// Push is called only from ISR context. On overflow it drops the newest
// byte and logs a warning, never blocking (spec.md §4.6).
func (q *Queue) Push(b byte) {
	q.pushed++
	if q.full() {
		q.dropped++
		klog.Warnf("keyboard: scancode queue full, dropping byte %#x", b)
		return
	}
	q.buf[q.head%capacity] = b
	q.head++
}

// Pop removes and returns the oldest scancode, or ok=false if empty.
func (q *Queue) Pop() (b byte, ok bool) {
	if q.empty() {
		return 0, false
	}
	b = q.buf[q.tail%capacity]
	q.tail++
	q.popped++
	return b, true
}

// Dropped returns the number of scancodes discarded to overflow so far.
func (q *Queue) Dropped() uint64 {
	return q.dropped
}

// QueueStats reports the queue's lifetime push/pop/drop counts and its
// current depth, per SPEC_FULL.md §4.6's observability expansion.
type QueueStats struct {
	Pushed  uint64
	Popped  uint64
	Dropped uint64
	Depth   int
}

// Stats returns a snapshot of the queue's counters. Pushed counts every
// call to Push, including ones that were dropped for overflow.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Pushed:  q.pushed,
		Popped:  q.popped,
		Dropped: q.dropped,
		Depth:   q.head - q.tail,
	}
}
