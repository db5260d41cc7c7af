package task

// TaskWaker is the executor-issued handle a Future stashes in its
// registered waker cell. Calling Wake (from any context, including an
// ISR: spec.md §4.7's "Waker contract") pushes the task back onto the
// ready queue at priority 0; the executor re-evaluates its real priority
// on the next aging pass rather than trusting the priority at wake time,
// matching the original's wake_task pushing Reverse((0, task_id)) and
// leaving re-evaluation to run_ready_tasks.
type TaskWaker struct {
	id TaskId
	ex *Executor
}

// Wake re-admits the task to the ready queue. Safe to call from ISR
// context: it only touches the ready queue's spin lock, never the
// allocator (spec.md §5).
func (w *TaskWaker) Wake() {
	w.ex.wake(w.id)
}

// WakeByRef exists so callers that hold a *TaskWaker by reference (as
// opposed to consuming it) have the same entry point as Wake; the
// original distinguishes wake/wake_by_ref only because Rust's Wake trait
// requires both an owned and borrowed form, which Go's method set makes
// redundant, so WakeByRef just forwards to Wake here.
func (w *TaskWaker) WakeByRef() {
	w.ex.wake(w.id)
}
