package klog

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// PageFaultErrorCode decodes the error code the CPU pushes for vector 14
// (spec.md §4.5).
type PageFaultErrorCode uint64

const (
	pfPresent  PageFaultErrorCode = 1 << 0
	pfWrite    PageFaultErrorCode = 1 << 1
	pfUser     PageFaultErrorCode = 1 << 2
	pfReserved PageFaultErrorCode = 1 << 3
	pfInstr    PageFaultErrorCode = 1 << 4
)

func (c PageFaultErrorCode) String() string {
	s := "protection-violation"
	if c&pfPresent == 0 {
		s = "not-present"
	}
	if c&pfWrite != 0 {
		s += "|write"
	} else {
		s += "|read"
	}
	if c&pfUser != 0 {
		s += "|user"
	} else {
		s += "|supervisor"
	}
	if c&pfReserved != 0 {
		s += "|reserved-bit"
	}
	if c&pfInstr != 0 {
		s += "|instruction-fetch"
	}
	return s
}

// LogPageFault prints the faulting address (read from CR2 by the caller),
// the decoded error code, and a best-effort disassembly of the faulting
// instruction bytes at rip (spec.md §4.5: "log CR2, error code, and stack
// frame"). code may be nil or short if the bytes at rip were themselves
// unreadable; disassembly failure is logged, not fatal.
func LogPageFault(faultingAddress uintptr, errorCode PageFaultErrorCode, rip uintptr, code []byte) {
	inst := "<unavailable>"
	if len(code) > 0 {
		if decoded, err := x86asm.Decode(code, 64); err == nil {
			inst = x86asm.GNUSyntax(decoded, uint64(rip), nil)
		} else {
			inst = fmt.Sprintf("<decode error: %v>", err)
		}
	}
	Logf(LevelFatal, "EXCEPTION: PAGE_FAULT\ncr2=%#x error_code=%s (%#x)\nrip=%#x instr=%s",
		faultingAddress, errorCode, uint64(errorCode), rip, inst)
}
