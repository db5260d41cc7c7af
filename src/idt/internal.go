package idt

import "unsafe"

// The runtime-patched toolchain this kernel targets (see package cpu's
// doc comment) installs fixed entry-stub trampolines for each exception
// and IRQ vector that save the interrupt frame, call the matching On*
// handler in idt.go, and execute iretq. These functions return that trampoline's
// address; the real asm lives in the patched runtime, mirrored here the
// same way cpu.go declares bodiless functions bound by go:linkname.

//go:linkname breakpointHandlerAddr runtime.IdtBreakpointTrampoline
func breakpointHandlerAddr() uintptr

//go:linkname doubleFaultHandlerAddr runtime.IdtDoubleFaultTrampoline
func doubleFaultHandlerAddr() uintptr

//go:linkname pageFaultHandlerAddr runtime.IdtPageFaultTrampoline
func pageFaultHandlerAddr() uintptr

//go:linkname timerHandlerAddr runtime.IdtTimerTrampoline
func timerHandlerAddr() uintptr

//go:linkname keyboardHandlerAddr runtime.IdtKeyboardTrampoline
func keyboardHandlerAddr() uintptr

type descriptorPointer struct {
	limit uint16
	base  uint64
}

var idtr descriptorPointer

// descriptorTablePointer packs table's limit and base for LIDT, mirroring
// gdt.descriptorTablePointer.
func descriptorTablePointer() uintptr {
	idtr.limit = uint16(len(table)*16 - 1)
	idtr.base = uint64(uintptr(unsafe.Pointer(&table[0])))
	return uintptr(unsafe.Pointer(&idtr))
}
