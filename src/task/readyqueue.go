package task

import "container/heap"

// readyEntry is one (priority, TaskId) pair in the ready set (spec.md
// §4.7). Priority is set at push time and re-keyed to the task's current
// dyn_priority on every aging pass; a stale entry for a task that has
// since completed is simply skipped when popped. A task that gets pushed
// twice (e.g. woken again before its first entry is popped) is polled
// once per entry while it is still live; entries popped after it has
// completed are skipped.
type readyEntry struct {
	priority uint8
	id       TaskId
}

// readyHeap implements container/heap.Interface as a max-heap on
// priority: Less is inverted so Pop returns the highest priority, not the
// lowest, matching the original's Reverse((priority, id)) wrapper over
// Rust's BinaryHeap (already a max-heap, so Reverse turns it into a
// min-heap there; Go's heap is a min-heap by default, so inverting Less
// here turns it back into the max-heap the scheduler wants).
type readyHeap []readyEntry

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(i, j int) bool {
	return h[i].priority > h[j].priority
}
func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x any) {
	*h = append(*h, x.(readyEntry))
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (h *readyHeap) push(priority uint8, id TaskId) {
	heap.Push(h, readyEntry{priority: priority, id: id})
}

func (h *readyHeap) pop() (TaskId, bool) {
	if h.Len() == 0 {
		return 0, false
	}
	e := heap.Pop(h).(readyEntry)
	return e.id, true
}
