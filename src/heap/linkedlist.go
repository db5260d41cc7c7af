package heap

import (
	"unsafe"

	"nucleus/src/util"
)

// freeNode is the intrusive header written at the start of every free
// region tracked by the fallback allocator: size of the region and a
// pointer to the next free region, threaded directly through the freed
// memory itself — ported from original_source's allocator/linked_list.rs
// ListNode into Go's unsafe-pointer idiom (the teacher's mem/dmap.go and
// vm packages write and traverse structures the same way, via raw
// unsafe.Pointer casts over addresses rather than Rust references).
type freeNode struct {
	size uintptr
	next uintptr // address of next freeNode, or 0
}

const nodeSize = unsafe.Sizeof(freeNode{})
const nodeAlign = unsafe.Alignof(freeNode{})

func nodeAt(addr uintptr) *freeNode {
	return (*freeNode)(unsafe.Pointer(addr))
}

// linkedListAllocator is a first-fit free-list allocator over a single
// contiguous region. It splits regions on allocation but never coalesces
// adjacent free regions back together (spec.md §9's documented
// fragmentation caveat, mirroring original_source's linked_list.rs).
type linkedListAllocator struct {
	head freeNode // dummy head; head.next is the first real free region
}

func (a *linkedListAllocator) init(start, size uintptr) {
	a.head = freeNode{}
	a.addFreeRegion(start, size)
}

// addFreeRegion pushes a new free region onto the front of the list. addr
// must already be aligned to nodeAlign and size must be at least nodeSize,
// the same precondition the teacher's and original's allocators assert.
func (a *linkedListAllocator) addFreeRegion(addr, size uintptr) {
	if addr%uintptr(nodeAlign) != 0 {
		panic("heap: free region misaligned for freeNode")
	}
	if size < uintptr(nodeSize) {
		panic("heap: free region too small to hold a freeNode")
	}
	n := nodeAt(addr)
	n.size = size
	n.next = a.head.next
	a.head.next = addr
}

// findRegion locates and unlinks the first free region able to satisfy an
// allocation of the given size/align, returning the aligned allocation
// address inside it and the number of bytes from that address to the
// region's end. Any alignment gap before that address is not kept.
func (a *linkedListAllocator) findRegion(size, align uintptr) (addr, regionSize uintptr, ok bool) {
	current := &a.head
	for current.next != 0 {
		region := nodeAt(current.next)
		if allocStart, fits := allocFromRegion(current.next, region.size, size, align); fits {
			addr = allocStart
			regionSize = region.size - (allocStart - current.next)
			next := region.next
			current.next = next
			return addr, regionSize, true
		}
		current = region
	}
	return 0, 0, false
}

func allocFromRegion(regionStart, regionSize, size, align uintptr) (allocStart uintptr, ok bool) {
	allocStart = util.Roundup(regionStart, align)
	allocEnd := allocStart + size
	regionEnd := regionStart + regionSize
	if allocEnd > regionEnd {
		return 0, false
	}
	excess := regionEnd - allocEnd
	if excess > 0 && excess < uintptr(nodeSize) {
		// leftover too small to host a freeNode of its own; reject so the
		// region stays intact for a better-fitting request.
		return 0, false
	}
	return allocStart, true
}

// sizeAlign adjusts a requested (size, align) so the resulting allocation
// is itself capable of later holding a freeNode when freed.
func sizeAlign(size, align uintptr) (uintptr, uintptr) {
	if align < nodeAlign {
		align = nodeAlign
	}
	size = util.Roundup(size, align)
	if size < uintptr(nodeSize) {
		size = uintptr(nodeSize)
	}
	return size, align
}

func (a *linkedListAllocator) alloc(size, align uintptr) uintptr {
	size, align = sizeAlign(size, align)
	addr, regionSize, ok := a.findRegion(size, align)
	if !ok {
		return 0
	}
	allocEnd := addr + size
	regionEnd := addr + regionSize
	if excess := regionEnd - allocEnd; excess > 0 {
		a.addFreeRegion(allocEnd, excess)
	}
	return addr
}

func (a *linkedListAllocator) free(ptr, size, align uintptr) {
	size, _ = sizeAlign(size, align)
	a.addFreeRegion(ptr, size)
}
