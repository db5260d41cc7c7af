package mem

import "unsafe"

// PhysicalMemoryOffset is the virtual base of the linear mapping of all of
// physical memory, handed to the kernel by the boot stage (spec.md §3/§6).
// It is set once during Init and treated as read-only afterward, per the
// re-architecture guidance in spec.md §9 ("global mutable statics ...
// initialized once in init").
var PhysicalMemoryOffset VAddr

// SetPhysicalMemoryOffset installs the boot-supplied linear-map base. Must
// be called exactly once, before any call to Dmap.
func SetPhysicalMemoryOffset(off VAddr) {
	PhysicalMemoryOffset = off
}

// Dmap converts a physical frame address into the virtual address at which
// that frame is linearly mapped, named after the teacher's
// Physmem_t.Dmap — here driven by physical_memory_offset rather than a
// dedicated recursive page-table slot, per spec.md §3.
func Dmap(p Pa_t) VAddr {
	return PhysicalMemoryOffset + VAddr(p)
}

// Dmap8 returns a byte slice of length n backed by the linear mapping of
// physical address p. The caller must ensure p..p+n lies in mapped, usable
// physical memory.
func Dmap8(p Pa_t, n int) []byte {
	va := Dmap(p)
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(va))), n)
}
