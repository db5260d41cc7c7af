// Package accnt exports the task executor's per-task scheduling counters
// as a pprof-compatible profile for offline analysis (spec.md §2/§4.7
// EXPANSION): one Location/Function per task, one Sample per task
// carrying its poll count and current dynamic priority as sample values.
// Grounded on the teacher's own accounting package (a per-process
// Userns/Sysns counter struct collected under a mutex and later
// serialized for export) but re-targeted at this kernel's single
// executor instead of a per-process rusage record, and serialized as a
// real pprof.Profile instead of a hand-rolled rusage byte layout, since
// github.com/google/pprof/profile is already required by the teacher's
// go.mod but otherwise unexercised anywhere in the pack.
package accnt

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/pprof/profile"

	"nucleus/src/task"
)

// Recorder accumulates per-task poll counts as the executor runs.
// RunReadyTasks itself is lock-serialized only by the executor's own
// spinlock (spec.md §5) and knows nothing of Recorder; Recorder is an optional,
// separately-locked side table a caller wires in around Poll calls, not
// a dependency of the scheduler itself.
type Recorder struct {
	mu    sync.Mutex
	polls map[task.TaskId]*atomic.Uint64
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{polls: make(map[task.TaskId]*atomic.Uint64)}
}

// RecordPoll increments id's poll counter, creating it on first use. Safe
// to call from the executor's poll loop; it takes its own lock rather
// than the executor's, so it never lengthens a scheduling cycle's
// critical section.
func (r *Recorder) RecordPoll(id task.TaskId) {
	r.mu.Lock()
	c, ok := r.polls[id]
	if !ok {
		c = &atomic.Uint64{}
		r.polls[id] = c
	}
	r.mu.Unlock()
	c.Add(1)
}

// PollCount returns the number of times id has been polled, or 0 if
// never recorded.
func (r *Recorder) PollCount(id task.TaskId) uint64 {
	r.mu.Lock()
	c, ok := r.polls[id]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	return c.Load()
}

// Export builds a pprof profile from a point-in-time executor snapshot:
// one sample per live task, with "polls" and "dyn_priority" value types
// and a "locks_held" numeric label for the count of locks that task
// currently owns — enough to spot a starved or lock-hoarding task in a
// standard pprof viewer without needing bespoke tooling.
func Export(snapshots []task.TaskSnapshot, polls *Recorder) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "polls", Unit: "count"},
			{Type: "dyn_priority", Unit: "priority"},
		},
	}

	for i, snap := range snapshots {
		fn := &profile.Function{
			ID:   uint64(i + 1),
			Name: fmt.Sprintf("task#%d", snap.ID),
		}
		loc := &profile.Location{
			ID:   uint64(i + 1),
			Line: []profile.Line{{Function: fn}},
		}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)

		var pollCount uint64
		if polls != nil {
			pollCount = polls.PollCount(snap.ID)
		}

		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{int64(pollCount), int64(snap.DynPriority)},
			NumLabel: map[string][]int64{
				"locks_held": {int64(len(snap.LocksHeld))},
			},
		})
	}
	return p
}
