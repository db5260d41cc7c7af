// Package gdt builds the kernel's Global Descriptor Table and Task State
// Segment: a kernel code segment, a TSS descriptor, and an Interrupt
// Stack Table entry dedicated to the double-fault handler (spec.md
// §4.4), grounded on original_source's src/gdt.rs and re-expressed in
// the teacher's style of a package-level singleton initialized once by
// Init (spec.md §9's "global mutable statics" guidance — mem.Physmem and
// mem.Kpmapp in the teacher follow the identical shape).
package gdt

import "nucleus/src/cpu"

// DoubleFaultISTIndex is the IST slot (spec.md §4.4) used by the
// double-fault handler.
const DoubleFaultISTIndex = 0

// doubleFaultStackSize is 20 KiB — five 4 KiB pages — per spec.md §4.4.
const doubleFaultStackSize = 20 * 1024

// doubleFaultStack is the statically allocated stack the double-fault
// handler runs on. Declared package-level (not heap-allocated) so it is
// available before the kernel heap is initialized.
var doubleFaultStack [doubleFaultStackSize]byte

// Selectors are the GDT entries the kernel cares about after Init.
type Selectors struct {
	KernelCode uint16
	TSS        uint16
}

// tss mirrors the fields of an x86_64 Task State Segment that this kernel
// actually uses: the Interrupt Stack Table. Reserved/unused fields are
// omitted from the in-memory struct but accounted for by tssWireSize,
// which callers use to size the byte-exact descriptor base/limit.
type tss struct {
	ist [7]uint64
}

var activeTSS tss

// entries holds the raw 8-byte GDT descriptors, in order: null, kernel
// code, then the two 8-byte halves of the TSS descriptor (a system
// descriptor is 16 bytes in long mode).
type table struct {
	entries []uint64
}

const (
	accessPresent   = 1 << 47
	accessNotSystem = 1 << 44
	accessExec      = 1 << 43
	accessRW        = 1 << 41
	accessDPL0      = 0 << 45
	flagLong        = 1 << 53

	accessSystemTSS = 0x9 // available 64-bit TSS type, in the low access nibble
)

func kernelCodeDescriptor() uint64 {
	return accessPresent | accessNotSystem | accessExec | accessRW | accessDPL0 | flagLong
}

// tssDescriptor builds the two 8-byte halves of a 64-bit TSS descriptor
// pointing at t, sized to cover the whole tss struct.
func tssDescriptor(t *tss) (low, high uint64) {
	base := uint64(uintptr(ptrOf(t)))
	limit := uint64(unsafeSizeofTSS()) - 1

	low = limit & 0xffff
	low |= (base & 0xffffff) << 16
	low |= uint64(accessSystemTSS) << 40
	low |= accessPresent
	low |= ((limit >> 16) & 0xf) << 48
	low |= ((base >> 24) & 0xff) << 56

	high = (base >> 32) & 0xffffffff
	return low, high
}

// GDT is the kernel's singleton descriptor table, built once by Init.
var GDT table

// Selected holds the selectors installed by the most recent Init call.
var Selected Selectors

// Init builds the kernel code segment and TSS descriptors, points the
// TSS's double-fault IST entry at the top of the static stack (stacks
// grow down, so the initial stack pointer is the end of the array), loads
// the GDT and TSS registers, and reloads CS (spec.md §4.4).
func Init() Selectors {
	stackTop := uint64(uintptr(ptrOf(&doubleFaultStack))) + doubleFaultStackSize
	activeTSS.ist[DoubleFaultISTIndex] = stackTop

	codeSel := uint64(1) << 3 // index 1, GDT, ring 0
	tssLow, tssHigh := tssDescriptor(&activeTSS)
	tssSel := uint64(2) << 3 // index 2 (occupies slots 2 and 3)

	GDT.entries = []uint64{
		0, // null descriptor
		kernelCodeDescriptor(),
		tssLow,
		tssHigh,
	}

	ptr := descriptorTablePointer(GDT.entries)
	cpu.LoadGDT(ptr)
	cpu.SetCS(uint16(codeSel))
	cpu.LoadTR(uint16(tssSel))

	Selected = Selectors{KernelCode: uint16(codeSel), TSS: uint16(tssSel)}
	return Selected
}
