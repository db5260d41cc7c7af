package task

import "testing"

// recordingFuture polls to completion on its Nth call, appending its
// task's id to a shared order slice every time it runs.
type recordingFuture struct {
	order      *[]TaskId
	id         *TaskId
	pollsUntil int
	polls      int
}

func (f *recordingFuture) Poll(cx *Context) bool {
	f.polls++
	*f.order = append(*f.order, *f.id)
	return f.polls >= f.pollsUntil
}

func spawnRecording(ex *Executor, priority uint8, order *[]TaskId, pollsUntil int) TaskId {
	id := new(TaskId)
	t := NewTask(priority, &recordingFuture{order: order, id: id, pollsUntil: pollsUntil})
	*id = t.ID()
	ex.Spawn(t)
	return t.ID()
}

func TestHigherPriorityTaskPollsFirst(t *testing.T) {
	ex := NewExecutor()
	var order []TaskId

	low := spawnRecording(ex, 10, &order, 1)
	high := spawnRecording(ex, 200, &order, 1)

	ex.RunReadyTasks()
	ex.RunReadyTasks()

	if len(order) != 2 || order[0] != high || order[1] != low {
		t.Fatalf("poll order = %v, want [%d %d]", order, high, low)
	}
}

// blockOnceFuture returns pending exactly once (registering cx.Waker for
// an external caller to fire) before completing on its second poll.
type blockOnceFuture struct {
	blocked bool
	waker   **TaskWaker
}

func (f *blockOnceFuture) Poll(cx *Context) bool {
	if !f.blocked {
		f.blocked = true
		*f.waker = cx.Waker
		return false
	}
	return true
}

func TestLowPriorityTaskIsNotStarvedByAFiniteReadyQueue(t *testing.T) {
	ex := NewExecutor()
	var order []TaskId

	// A pile of higher-priority one-shot tasks must not prevent a
	// low-priority task from ever being polled; the ready heap drains in
	// priority order, so the low task surfaces once everything ahead of
	// it has run exactly once (spec.md §4.7 step 1's anti-starvation
	// intent, observed here at the ready-queue level).
	lowID := spawnRecording(ex, 1, &order, 1)

	hogsRemaining := 300
	for i := 0; i < hogsRemaining; i++ {
		spawnRecording(ex, 200, &order, 1)
	}

	polledLow := false
	for i := 0; i < 10_000 && !polledLow; i++ {
		ex.RunReadyTasks()
		for _, id := range order {
			if id == lowID {
				polledLow = true
				break
			}
		}
	}

	if !polledLow {
		t.Fatal("low-priority task was never polled despite priority aging")
	}
}

func TestPriorityInheritanceBoostsAndReverts(t *testing.T) {
	ex := NewExecutor()
	var order []TaskId

	lowID := spawnRecording(ex, 10, &order, 100)
	midID := spawnRecording(ex, 50, &order, 100)
	highID := spawnRecording(ex, 200, &order, 100)

	lockID := ex.CreateLock()
	if ok := ex.AcquireLock(lowID, lockID); !ok {
		t.Fatal("initial AcquireLock on a free lock should succeed")
	}

	if ok := ex.AcquireLock(highID, lockID); ok {
		t.Fatal("AcquireLock on a held lock should fail (queue the waiter)")
	}

	lowTask := ex.tasks[lowID]
	if lowTask.meta.dynPriority != 200 {
		t.Fatalf("low holder's dyn_priority = %d, want boosted to 200", lowTask.meta.dynPriority)
	}

	if ok := ex.AcquireLock(midID, lockID); ok {
		t.Fatal("AcquireLock on a held lock should fail for the mid waiter too")
	}
	if lowTask.meta.dynPriority != 200 {
		t.Fatalf("low holder's dyn_priority dropped to %d after a lower-priority waiter queued, want still 200", lowTask.meta.dynPriority)
	}

	ex.ReleaseLock(lowID, lockID)
	if lowTask.meta.dynPriority != lowTask.meta.basePriority {
		t.Fatalf("releaser's dyn_priority = %d after release, want reverted to base %d", lowTask.meta.dynPriority, lowTask.meta.basePriority)
	}

	highTask := ex.tasks[highID]
	if highTask.meta.locksHeld == nil || highTask.meta.locksHeld[0] != lockID {
		t.Fatalf("lock did not transfer to the highest-priority waiter (high, prio 200)")
	}
}

func TestCompleteTaskReleasesHeldLocks(t *testing.T) {
	ex := NewExecutor()
	var order []TaskId

	ownerID := spawnRecording(ex, 50, &order, 1)
	waiterID := spawnRecording(ex, 100, &order, 1)

	lockID := ex.CreateLock()
	ex.AcquireLock(ownerID, lockID)
	ex.AcquireLock(waiterID, lockID)

	// Both tasks complete on their first poll, but a priority tie (the
	// boost from AcquireLock) leaves the ready order between them
	// unspecified, so drive the executor until the owner is gone rather
	// than assuming which pops first.
	for i := 0; i < 10 && ex.tasks[ownerID] != nil; i++ {
		ex.RunReadyTasks()
	}
	if ex.tasks[ownerID] != nil {
		t.Fatal("owner task never completed")
	}

	l := ex.locks[lockID]
	if l.owner == nil || *l.owner != waiterID {
		t.Fatalf("lock not transferred to the waiting task after owner completed")
	}
}
