// Package idt builds the kernel's Interrupt Descriptor Table and remaps
// the legacy 8259 PIC pair, per spec.md §4.5. It is grounded on
// original_source's src/interrupts.rs (breakpoint and double-fault
// handlers, IST-0 selection for the double fault) and extended with the
// page-fault, timer, and keyboard entries and the PIC remap the original
// left for a later commit (spec.md §4.5 names all five). Diagnostic
// formatting is delegated to package klog, the same separation of
// "build the table" from "describe the fault" the teacher keeps between
// its vm package and caller.Callerdump.
package idt

import (
	"nucleus/src/cpu"
	"nucleus/src/gdt"
	"nucleus/src/keyboard"
	"nucleus/src/klog"
)

// Interrupt vectors used by the kernel (spec.md §4.5).
const (
	VectorBreakpoint  = 3
	VectorDoubleFault = 8
	VectorPageFault   = 14
	VectorTimer       = 32 // PIC1_OFFSET
	VectorKeyboard    = 33
)

// Legacy 8259 PIC I/O ports and remap offsets.
const (
	pic1Command = 0x20
	pic1Data    = 0x21
	pic2Command = 0xA0
	pic2Data    = 0xA1

	pic1Offset = 32
	pic2Offset = 40

	icw1Init = 0x11
	icw4x86  = 0x01

	eoi = 0x20
)

// gatePresent is the type/attribute byte of a present, ring-0, 64-bit
// interrupt gate.
const gatePresent = 0x8E

// entry is a single 16-byte IDT gate descriptor.
type entry struct {
	offsetLow  uint16
	selector   uint16
	istIndex   uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

func makeEntry(handler uintptr, selector uint16, ist uint8) entry {
	return entry{
		offsetLow:  uint16(handler),
		selector:   selector,
		istIndex:   ist,
		typeAttr:   gatePresent,
		offsetMid:  uint16(handler >> 16),
		offsetHigh: uint32(handler >> 32),
	}
}

// table is the kernel's singleton IDT.
var table [256]entry

// Queue is the keyboard scancode ring buffer the keyboard ISR feeds.
// Stream is the single consumer view over it (spec.md §4.6: "creating
// two streams is a programming error" — the kernel only ever constructs
// this one).
var (
	Queue  = keyboard.NewQueue()
	Stream = keyboard.NewStream(Queue)
)

// Init populates the vectors spec.md §4.5 names, remaps the PIC, and
// loads the IDT register. Must run after gdt.Init (the double fault gate
// references gdt.DoubleFaultISTIndex) and before interrupts are enabled.
func Init(selectors gdt.Selectors) {
	table[VectorBreakpoint] = makeEntry(breakpointHandlerAddr(), selectors.KernelCode, 0)
	table[VectorDoubleFault] = makeEntry(doubleFaultHandlerAddr(), selectors.KernelCode, gdt.DoubleFaultISTIndex+1)
	table[VectorPageFault] = makeEntry(pageFaultHandlerAddr(), selectors.KernelCode, 0)
	table[VectorTimer] = makeEntry(timerHandlerAddr(), selectors.KernelCode, 0)
	table[VectorKeyboard] = makeEntry(keyboardHandlerAddr(), selectors.KernelCode, 0)

	remapPIC()
	cpu.LoadIDT(descriptorTablePointer())
}

// remapPIC reprograms the master/slave 8259 pair so IRQs 0-15 land on
// vectors 32-47 instead of colliding with CPU exception vectors 0-31
// (spec.md §4.5: "master offset 32, slave offset 40").
func remapPIC() {
	savedMask1 := cpu.Inb(pic1Data)
	savedMask2 := cpu.Inb(pic2Data)

	cpu.Outb(pic1Command, icw1Init)
	cpu.Outb(pic2Command, icw1Init)
	cpu.Outb(pic1Data, pic1Offset)
	cpu.Outb(pic2Data, pic2Offset)
	cpu.Outb(pic1Data, 4) // tell master about slave at IRQ2
	cpu.Outb(pic2Data, 2) // tell slave its cascade identity
	cpu.Outb(pic1Data, icw4x86)
	cpu.Outb(pic2Data, icw4x86)

	cpu.Outb(pic1Data, savedMask1)
	cpu.Outb(pic2Data, savedMask2)
}

// sendEOI signals end-of-interrupt to the PIC(s) for the given vector,
// required before returning from any hardware ISR (spec.md §4.5).
func sendEOI(vector int) {
	if vector >= pic2Offset {
		cpu.Outb(pic2Command, eoi)
	}
	cpu.Outb(pic1Command, eoi)
}

// OnBreakpoint is the vector-3 handler body: log and return (spec.md
// §4.5). The low-level entry stub (wherever the runtime-patched
// trampoline lives) is expected to call this with the captured frame.
func OnBreakpoint(frame klog.ExceptionFrame) {
	klog.LogException("BREAKPOINT", frame, nil)
}

// OnDoubleFault is the vector-8 handler body: diverging, logs and halts
// forever (spec.md §4.5). Runs on the IST-0 stack set up by gdt.Init, so
// it executes correctly even if the faulting task's own stack is blown.
func OnDoubleFault(frame klog.ExceptionFrame, errorCode uint64) {
	klog.LogException("DOUBLE_FAULT", frame, &errorCode)
	klog.Logf(klog.LevelFatal, "%s", klog.Backtrace(1))
	for {
		cpu.Halt()
	}
}

// OnPageFault is the vector-14 handler body (spec.md §4.5): read CR2,
// decode the error code, log, then halt. code is the (possibly empty)
// instruction bytes at the faulting rip, used for the disassembly line in
// klog.LogPageFault.
func OnPageFault(frame klog.ExceptionFrame, rawErrorCode uint64, code []byte) {
	faultAddr := cpu.ReadCR2()
	klog.LogPageFault(faultAddr, klog.PageFaultErrorCode(rawErrorCode), frame.InstructionPointer, code)
	for {
		cpu.Halt()
	}
}

// OnTimer is the vector-32 handler body: signal EOI (spec.md §4.5). The
// executor's own aging/scheduling runs from the cooperative poll loop,
// not from this ISR; the timer interrupt exists only to keep the PIC
// cadence alive and unblock the idle halt.
func OnTimer() {
	sendEOI(VectorTimer)
}

// OnKeyboard is the vector-33 handler body (spec.md §4.5 and §4.6): read
// the scancode from port 0x60 exactly once, push it into the scancode
// queue (dropping on overflow), wake the stream's waker, then signal EOI.
func OnKeyboard() {
	scancode := cpu.Inb(0x60)
	Queue.Push(scancode)
	Stream.WakeIfWaiting()
	sendEOI(VectorKeyboard)
}
