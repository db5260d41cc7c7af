package vm

import (
	"unsafe"

	"nucleus/src/cpu"
	"nucleus/src/mem"
)

// tablePointer turns a linearly-mapped virtual address into a pointer at
// a page-table page, kept in its own small function (mirroring the
// teacher's caddr/Dmap helpers in mem/dmap.go) so the single unsafe cast
// needed by the mapper lives in one place.
func tablePointer(va mem.VAddr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(va))
}

// flushTLB invalidates the single TLB entry for a page just mapped or
// unmapped (spec.md §4.2's MapTo postcondition).
func flushTLB(va mem.VAddr) {
	cpu.InvalidatePage(uintptr(va))
}
