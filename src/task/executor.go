package task

import (
	"container/heap"

	"nucleus/src/cpu"
)

// Executor owns every task, the priority-ordered ready queue, cached
// wakers, and the lock table — the complete state spec.md §4.7 names.
// Single-threaded and non-preemptive: Run never hands work to another
// goroutine, it only polls futures inline, so no field here needs
// anything heavier than the ready-queue spinlock shared with Wake's
// ISR-safe path.
type Executor struct {
	lock   spinlock
	ready  readyHeap
	tasks  map[TaskId]*Task
	wakers map[TaskId]*TaskWaker
	locks  map[LockId]*Lock

	nextLockId LockId
}

// NewExecutor returns an empty executor.
func NewExecutor() *Executor {
	return &Executor{
		tasks:  make(map[TaskId]*Task),
		wakers: make(map[TaskId]*TaskWaker),
		locks:  make(map[LockId]*Lock),
	}
}

// Spawn admits a new task at its base priority. Panics if the task's ID
// somehow collides with one already tracked — this can only happen if a
// Task value is spawned twice, a caller bug (spec.md §4.7).
func (ex *Executor) Spawn(t *Task) {
	if _, exists := ex.tasks[t.id]; exists {
		panic("task: task with same ID already spawned")
	}
	ex.tasks[t.id] = t

	ex.lock.Lock()
	ex.ready.push(t.meta.basePriority, t.id)
	ex.lock.Unlock()
}

// wake re-admits id to the ready queue at priority 0; the executor
// re-evaluates the task's real dyn_priority on the next aging pass
// (spec.md §4.7's waker contract). Safe to call from ISR context.
func (ex *Executor) wake(id TaskId) {
	ex.lock.Lock()
	ex.ready.push(0, id)
	ex.lock.Unlock()
}

// RunReadyTasks executes one scheduling cycle (spec.md §4.7): age every
// task's dynamic priority, pop the highest-priority ready entry, poll it
// (unless its task is waiting on a held lock), and handle completion or
// pending accordingly. Returns false if the
// ready queue was empty, signaling the caller (Run) to go idle.
func (ex *Executor) RunReadyTasks() bool {
	ex.agePriorities()

	ex.lock.Lock()
	id, ok := ex.ready.pop()
	ex.lock.Unlock()
	if !ok {
		return false
	}

	t, exists := ex.tasks[id]
	if !exists {
		// Stale entry: the task completed (or was never spawned under
		// this id) between push and pop. Nothing to do.
		return true
	}
	for _, l := range ex.locks {
		for _, wid := range l.waiters {
			if wid == id {
				// Blocked on a held lock: not polled; releaseLock wakes
				// it once it becomes the owner.
				return true
			}
		}
	}

	w, ok := ex.wakers[id]
	if !ok {
		w = &TaskWaker{id: id, ex: ex}
		ex.wakers[id] = w
	}

	cx := &Context{Waker: w}
	if t.poll(cx) {
		ex.completeTask(id)
	}
	// Pending: t remains in ex.tasks; it re-enters the ready queue only
	// when its waker fires (spec.md §4.7 step 5).
	return true
}

// completeTask releases every lock the task still holds (so nothing is
// ever orphaned) and drops the task and its cached waker.
func (ex *Executor) completeTask(id TaskId) {
	t := ex.tasks[id]
	held := t.meta.locksHeld
	t.meta.locksHeld = nil
	for _, lid := range held {
		ex.releaseLock(id, lid)
	}
	delete(ex.tasks, id)
	delete(ex.wakers, id)
}

// agePriorities increments every task's dyn_priority by 1, saturating at
// 255, then re-keys every queued ready entry to its task's current
// dyn_priority, preventing starvation of low-priority tasks (spec.md §4.7
// step 1).
func (ex *Executor) agePriorities() {
	for _, t := range ex.tasks {
		if t.meta.dynPriority < 255 {
			t.meta.dynPriority++
		}
	}
	ex.lock.Lock()
	for i := range ex.ready {
		if t, ok := ex.tasks[ex.ready[i].id]; ok {
			ex.ready[i].priority = t.meta.dynPriority
		}
	}
	heap.Init(&ex.ready)
	ex.lock.Unlock()
}

// Run drives the scheduler forever: process ready tasks while any exist,
// otherwise idle-halt (spec.md §4.7). Intended to be the kernel's main
// loop; never returns.
func (ex *Executor) Run() {
	for {
		if ex.RunReadyTasks() {
			continue
		}
		ex.idleIfEmpty()
	}
}

// idleIfEmpty implements the lost-interrupt-safe idle sequence (spec.md
// §4.7): disable interrupts, re-check the ready queue under that
// disabled-interrupts window, and only then execute "sti; hlt" as one
// atomic pair. If an interrupt raced in and populated the ready queue
// between RunReadyTasks's check and here, re-enable and loop instead of
// halting past a wakeup that already happened.
func (ex *Executor) idleIfEmpty() {
	cpu.DisableInterrupts()

	ex.lock.Lock()
	empty := ex.ready.Len() == 0
	ex.lock.Unlock()

	if empty {
		cpu.HaltAndEnable()
	} else {
		cpu.EnableInterrupts()
	}
}
