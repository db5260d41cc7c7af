// Package task implements the cooperative, single-threaded task executor
// and its priority-inheritance lock table (spec.md §4.7, §4.8). It is
// ported from original_source's src/task/{mod,executor,pinh}.rs: a
// BTreeMap of tasks keyed by TaskId, a priority-ordered ready queue
// shared with wakers, and a lock table the executor itself owns so that
// completion can release orphaned locks without a second package
// reaching back into task state (the original keeps the lock table as a
// field of Executor for exactly this reason). This is the Go kernel's
// only package importing container/heap: the rest of the corpus builds
// queues over channels or slices, but a priority-ordered ready set with
// O(log n) push/pop is the textbook case for the standard library's heap
// interface, and nothing in the examples ships a third-party priority
// queue, so this is one of the few places the implementation is
// stdlib-only by necessity rather than by choice.
package task

import "sync/atomic"

// TaskId uniquely names a task for its lifetime in a single Executor.
type TaskId uint64

var nextTaskId atomic.Uint64

func newTaskId() TaskId {
	return TaskId(nextTaskId.Add(1) - 1)
}

// Future is the unit of work an Executor polls. Poll returns true once
// the task has completed; everything else about its internal state is
// opaque to the executor.
type Future interface {
	Poll(cx *Context) bool
}

// Context is handed to a Future's Poll method so it can register the
// waker that will re-admit it to the ready queue.
type Context struct {
	Waker *TaskWaker
}

// meta tracks the scheduling state the executor and its lock table both
// read and mutate: base/dynamic priority and the set of locks currently
// held (spec.md §4.7's `Task` data model).
type meta struct {
	basePriority uint8
	dynPriority  uint8
	locksHeld    []LockId
}

// Task pairs a future with its scheduling metadata.
type Task struct {
	id     TaskId
	future Future
	meta   meta
}

// NewTask wraps future for scheduling at the given base priority. Base
// and dynamic priority start equal (spec.md §4.2).
func NewTask(priority uint8, future Future) *Task {
	return &Task{
		id:     newTaskId(),
		future: future,
		meta: meta{
			basePriority: priority,
			dynPriority:  priority,
		},
	}
}

// ID returns the task's identifier, stable for its lifetime.
func (t *Task) ID() TaskId {
	return t.id
}

func (t *Task) poll(cx *Context) bool {
	return t.future.Poll(cx)
}
