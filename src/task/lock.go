package task

// LockId uniquely names a lock for the lifetime of the Executor that
// created it.
type LockId uint64

// Lock is a priority-inheritance mutex over an opaque resource: the
// executor never looks inside the resource itself, only at the
// owner/waiters bookkeeping (spec.md §4.8, ported from pinh.rs's
// PriLock). The zero value is a free, unowned lock.
type Lock struct {
	owner   *TaskId
	waiters []TaskId
}
