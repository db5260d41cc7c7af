// Package cpu exposes the privileged x86_64 primitives the kernel needs:
// port I/O, interrupt masking, the halt instruction, and loading the
// GDT/IDT/TSS descriptor-table registers. The teacher's kernel runs under a
// Go runtime patched to export hardware hooks directly (see e.g.
// runtime.Gptr/Setgptr in tinfo.go, runtime.CPUHint and runtime.Rcr4/Vtop in
// mem.go, runtime.Rdtsc in stats.go); this package follows the same idiom,
// assuming an equivalently patched runtime exports the symbols below. A
// freestanding build would instead implement these in a .s file, but the
// runtime-hook shape keeps the kernel's Go source portable across both.
package cpu

import _ "unsafe" // for go:linkname

// Inb reads a byte from the given I/O port.
//
//go:linkname Inb runtime.Inb
func Inb(port uint16) uint8

// Outb writes a byte to the given I/O port.
//
//go:linkname Outb runtime.Outb
func Outb(port uint16, val uint8)

// Outl writes a 32-bit value to the given I/O port (used by the test-exit
// channel, spec.md §6).
//
//go:linkname Outl runtime.Outl
func Outl(port uint16, val uint32)

// EnableInterrupts executes sti.
//
//go:linkname EnableInterrupts runtime.StiKernel
func EnableInterrupts()

// DisableInterrupts executes cli.
//
//go:linkname DisableInterrupts runtime.CliKernel
func DisableInterrupts()

// HaltAndEnable executes "sti; hlt" as a single, non-interruptible pair of
// instructions so that enabling interrupts and halting cannot be split by
// an interrupt landing in between (the lost-wakeup window closed by the
// executor's idle loop, spec.md §4.7).
//
//go:linkname HaltAndEnable runtime.StiHlt
func HaltAndEnable()

// Halt executes hlt without touching the interrupt-enable flag.
//
//go:linkname Halt runtime.HltKernel
func Halt()

// LoadGDT loads the GDT register from a descriptor-table pointer already
// written to memory at ptr (limit:base packed the way LGDT expects).
//
//go:linkname LoadGDT runtime.Lgdt
func LoadGDT(ptr uintptr)

// LoadIDT loads the IDT register.
//
//go:linkname LoadIDT runtime.Lidt
func LoadIDT(ptr uintptr)

// LoadTR loads the task register with the given GDT selector.
//
//go:linkname LoadTR runtime.Ltr
func LoadTR(selector uint16)

// SetCS performs a far jump/return sequence that reloads CS with the given
// selector, as required after installing a new GDT.
//
//go:linkname SetCS runtime.SetCS
func SetCS(selector uint16)

// ReadCR2 returns the faulting address recorded by the CPU on the most
// recent page fault.
//
//go:linkname ReadCR2 runtime.Rcr2
func ReadCR2() uintptr

// InvalidatePage flushes a single TLB entry for the given virtual address.
//
//go:linkname InvalidatePage runtime.Invlpg
func InvalidatePage(vaddr uintptr)
