// Package heap implements the kernel's byte allocator: a fixed-size-block
// allocator with a linked-list fallback, serialized by a non-reentrant
// spin lock (spec.md §4.3). It is ported from original_source's
// src/allocator/fixed_size_block.rs and src/allocator/linked_list.rs,
// re-expressed with Go's unsafe.Pointer arithmetic in the idiom the
// teacher uses throughout mem/vm (raw addresses, intrusive lists threaded
// through the memory itself, no allocation on the hot path).
package heap

import (
	"unsafe"

	"nucleus/src/mem"
	"nucleus/src/stats"
	"nucleus/src/vm"
)

// sizeClasses are the block sizes served by the fixed-size-block
// allocator; each doubles the last and is also used as the block's
// alignment, per spec.md §4.3.
var sizeClasses = [...]uintptr{8, 16, 32, 64, 128, 256, 512, 1024, 2048}

// Heap is the kernel's single global byte allocator.
type Heap struct {
	lock      spinlock
	freeLists [len(sizeClasses)]uintptr // head of each size class's free list, or 0
	fallback  linkedListAllocator

	inUse         [len(sizeClasses)]stats.Counter_t
	fallbackInUse stats.Counter_t
}

// InitRange points the heap at a single contiguous, already-mapped region
// of memory: [start, start+size). Must be called exactly once before any
// Alloc/Free. It is the common tail of both the production path (after
// InitHeap has mapped HeapStart..HeapStart+HeapSize, spec.md §4.3) and a
// test path that hands the heap a plain Go-backed buffer.
func (h *Heap) InitRange(start uintptr, size int) {
	h.fallback.init(start, uintptr(size))
}

// InitHeap maps every page in [start, start+size) to a freshly allocated
// frame with Present+Writable (spec.md §4.3; the frames are not zeroed),
// then initializes h
// over that range. This is the only place in the package that touches the
// page mapper; everything else operates on plain addresses so it can also
// be driven by tests against a non-kernel buffer via InitRange.
func InitHeap(h *Heap, mapper *vm.Mapper, frames *mem.FrameAllocator, start mem.VAddr, size int) error {
	pageCount := (size + mem.PGSIZE - 1) / mem.PGSIZE
	flags := vm.PageTableFlags{Writable: true}
	for i := 0; i < pageCount; i++ {
		frame, ok := frames.Allocate()
		if !ok {
			return vm.ErrFrameAllocationFailed
		}
		page := vm.Page{Start: start + mem.VAddr(i*mem.PGSIZE)}
		if err := mapper.MapTo(page, vm.Frame{Start: frame}, flags); err != nil {
			return err
		}
	}
	h.InitRange(uintptr(start), size)
	return nil
}

// classIndex chooses the smallest size class with size_class >= max(size,
// align), or -1 if the request must go to the fallback allocator
// (spec.md §4.3).
func classIndex(size, align uintptr) int {
	required := size
	if align > required {
		required = align
	}
	for i, class := range sizeClasses {
		if class >= required {
			return i
		}
	}
	return -1
}

// Alloc returns a pointer to a block of at least size bytes aligned to
// align, or 0 on failure. size and align must be positive; align must be
// a power of two.
func (h *Heap) Alloc(size, align uintptr) uintptr {
	h.lock.Lock()
	defer h.lock.Unlock()

	idx := classIndex(size, align)
	if idx < 0 {
		p := h.fallback.alloc(size, align)
		if p != 0 {
			h.fallbackInUse.Add(int64(size))
		}
		return p
	}

	class := sizeClasses[idx]
	if head := h.freeLists[idx]; head != 0 {
		// A free block's first pointer-sized word links to the next one.
		h.freeLists[idx] = *(*uintptr)(unsafe.Pointer(head))
		h.inUse[idx].Add(int64(class))
		return head
	}

	p := h.fallback.alloc(class, class)
	if p != 0 {
		h.inUse[idx].Add(int64(class))
	}
	return p
}

// Free releases a block previously returned by Alloc for a request of the
// given size/align. Freeing a null (0) pointer is forbidden, per spec.md
// §4.3.
func (h *Heap) Free(ptr, size, align uintptr) {
	if ptr == 0 {
		panic("heap: free of null pointer")
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	idx := classIndex(size, align)
	if idx < 0 {
		h.fallback.free(ptr, size, align)
		h.fallbackInUse.Add(-int64(size))
		return
	}

	class := sizeClasses[idx]
	if unsafe.Sizeof(uintptr(0)) > class {
		panic("heap: size class too small to hold a free-list link")
	}
	*(*uintptr)(unsafe.Pointer(ptr)) = h.freeLists[idx]
	h.freeLists[idx] = ptr
	h.inUse[idx].Add(-int64(class))
}

// ClassStats reports bytes currently checked out of each size class and
// of the fallback allocator, following the teacher's stats.Counter_t
// convention (a zero-cost no-op unless stats.Stats is enabled at build
// time). Intended for diagnostics, not the allocation hot path.
type ClassStats struct {
	InUse         [len(sizeClasses)]int64
	FallbackInUse int64
}

// Stats returns a snapshot of per-class and fallback bytes in use.
func (h *Heap) Stats() ClassStats {
	var s ClassStats
	for i := range h.inUse {
		s.InUse[i] = h.inUse[i].Get()
	}
	s.FallbackInUse = h.fallbackInUse.Get()
	return s
}

// AllocU64 is a convenience matching spec.md §8's "allocating a single u64
// HEAP_SIZE times" scenario: it allocates and initializes an 8-byte,
// 8-byte-aligned value.
func (h *Heap) AllocU64(v uint64) uintptr {
	p := h.Alloc(8, 8)
	if p == 0 {
		return 0
	}
	*(*uint64)(unsafe.Pointer(p)) = v
	return p
}

// FreeU64 frees a pointer obtained from AllocU64.
func (h *Heap) FreeU64(p uintptr) {
	h.Free(p, 8, 8)
}
