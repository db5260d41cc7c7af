package task

// CreateLock allocates a new, unowned lock and returns its ID.
func (ex *Executor) CreateLock() LockId {
	ex.nextLockId++
	id := ex.nextLockId
	ex.locks[id] = &Lock{}
	return id
}

// AcquireLock attempts to give lock id to task by. If the lock is free,
// by becomes the owner immediately and true is returned. If it is held
// by another task, by is queued as a waiter and the owner's dyn_priority
// is boosted to at least by's current priority — priority inheritance
// (spec.md §4.8) — and false is returned; the caller (the task's own
// Poll method) must then return pending, since AcquireLock never blocks.
func (ex *Executor) AcquireLock(by TaskId, id LockId) bool {
	l, ok := ex.locks[id]
	if !ok {
		panic("task: invalid LockId")
	}
	waiter := ex.tasks[by]

	if l.owner == nil {
		owner := by
		l.owner = &owner
		waiter.meta.locksHeld = append(waiter.meta.locksHeld, id)
		return true
	}

	if *l.owner == by {
		// Already the owner; acquiring a lock one already holds is a
		// caller bug in this non-reentrant model, but returning true is
		// harmless and matches the original's owner_id != task_id guard
		// (it simply skips queuing in that case).
		return true
	}

	l.waiters = append(l.waiters, by)

	owner := ex.tasks[*l.owner]
	if waiter.meta.dynPriority > owner.meta.dynPriority {
		owner.meta.dynPriority = waiter.meta.dynPriority
		ex.lock.Lock()
		ex.ready.push(owner.meta.dynPriority, owner.id)
		ex.lock.Unlock()
	}
	return false
}

// releaseLock hands lock id from by to its highest-priority waiter (FIFO
// among ties, since waiters is scanned in arrival order and the first
// maximum found wins), or frees it if none are waiting. by's own
// dyn_priority reverts to the maximum of its base priority and the
// highest waiter across every OTHER lock it still holds (spec.md §4.8).
func (ex *Executor) releaseLock(by TaskId, id LockId) {
	l, ok := ex.locks[id]
	if !ok {
		panic("task: invalid LockId")
	}
	if l.owner == nil || *l.owner != by {
		panic("task: release of a lock not owned by the caller")
	}

	releaser := ex.tasks[by]
	releaser.meta.locksHeld = removeLockId(releaser.meta.locksHeld, id)

	newPriority := releaser.meta.basePriority
	for _, otherId := range releaser.meta.locksHeld {
		other := ex.locks[otherId]
		if p, ok := highestWaiterPriority(ex, other); ok && p > newPriority {
			newPriority = p
		}
	}
	releaser.meta.dynPriority = newPriority

	if len(l.waiters) == 0 {
		l.owner = nil
		return
	}

	bestIdx, bestPriority := 0, uint8(0)
	for i, wid := range l.waiters {
		if p := ex.tasks[wid].meta.dynPriority; i == 0 || p > bestPriority {
			bestIdx, bestPriority = i, p
		}
	}
	newOwner := l.waiters[bestIdx]
	l.waiters = append(l.waiters[:bestIdx], l.waiters[bestIdx+1:]...)

	l.owner = &newOwner
	ex.tasks[newOwner].meta.locksHeld = append(ex.tasks[newOwner].meta.locksHeld, id)

	ex.wake(newOwner)
}

// ReleaseLock is the public entry point a task's Future calls when it is
// done with a resource it owns.
func (ex *Executor) ReleaseLock(by TaskId, id LockId) {
	ex.releaseLock(by, id)
}

func highestWaiterPriority(ex *Executor, l *Lock) (uint8, bool) {
	found := false
	var best uint8
	for _, wid := range l.waiters {
		p := ex.tasks[wid].meta.dynPriority
		if !found || p > best {
			best, found = p, true
		}
	}
	return best, found
}

func removeLockId(ids []LockId, target LockId) []LockId {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
