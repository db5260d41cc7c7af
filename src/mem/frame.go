package mem

import "sync"

// FrameAllocator hands out distinct 4 KiB physical frames from the usable
// regions of the boot memory map. It is a pure bump allocator: frames are
// never returned to it (spec.md §4.1) — acceptable for this kernel's
// lifetime, matching the teacher's observation in mem.go that Physmem_t
// page free lists exist but physical memory handed to the frame allocator
// directly (as opposed to pages later freed by the kernel heap/VM) is never
// reclaimed here.
type FrameAllocator struct {
	mu      sync.Mutex
	regions MemoryMap
	region  int // index into regions of the region the cursor is in
	next    Pa_t // next candidate frame within regions[region]
}

// NewFrameAllocator builds an allocator over the given boot memory map.
// The map is walked in the order given; usable regions are consumed in
// order, reserved regions are skipped entirely.
func NewFrameAllocator(mm MemoryMap) *FrameAllocator {
	fa := &FrameAllocator{regions: mm}
	fa.seekUsable()
	return fa
}

// seekUsable advances (region, next) to the first candidate frame at or
// past the current cursor, skipping reserved/exhausted regions. Must be
// called with mu held.
func (fa *FrameAllocator) seekUsable() {
	for fa.region < len(fa.regions) {
		r := fa.regions[fa.region]
		if !r.Usable {
			fa.region++
			continue
		}
		if fa.next < r.Start {
			fa.next = alignUp(r.Start)
		}
		if fa.next+Pa_t(PGSIZE) > r.End {
			fa.region++
			fa.next = 0
			continue
		}
		return
	}
}

func alignUp(p Pa_t) Pa_t {
	rem := p & PGOFFSET
	if rem == 0 {
		return p
	}
	return (p - rem) + Pa_t(PGSIZE)
}

// Allocate returns the next distinct usable frame, or ok=false once the
// memory map is exhausted (spec.md §4.1).
func (fa *FrameAllocator) Allocate() (frame Pa_t, ok bool) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	fa.seekUsable()
	if fa.region >= len(fa.regions) {
		return 0, false
	}
	frame = fa.next
	fa.next += Pa_t(PGSIZE)
	return frame, true
}
