// Package klog is the kernel's logging surface: leveled fmt.Printf-style
// output plus the exception-diagnostic formatting used by the double
// fault, page fault, and breakpoint handlers in package idt. It follows
// the teacher's caller package (fmt.Printf plus runtime.Caller-based
// stack capture) rather than introducing a generic logging framework,
// since the kernel has no stdout beyond whatever the boot environment
// wires up.
package klog

import (
	"fmt"
	"runtime"

	"github.com/ianlancetaylor/demangle"
)

// Level selects log verbosity, checked by Logf before formatting.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Min is the minimum level that Logf actually prints. Defaults to Info.
var Min = LevelInfo

// Logf prints a leveled message if lvl is at or above Min.
func Logf(lvl Level, format string, args ...any) {
	if lvl < Min {
		return
	}
	fmt.Printf("[%s] %s\n", lvl, fmt.Sprintf(format, args...))
}

// Warnf logs at WARN, used by the keyboard ISR's overflow path (spec.md
// §4.6) and similar never-block-never-allocate call sites.
func Warnf(format string, args ...any) {
	Logf(LevelWarn, format, args...)
}

// Backtrace captures and formats the current call stack starting at
// skip frames above its own caller, demangling any mangled symbol names
// it encounters. Grounded on caller.Callerdump's runtime.Caller loop,
// extended with demangling since a kernel crash dump may carry symbols
// from cross-compiled components that use C++/Rust mangling schemes.
func Backtrace(skip int) string {
	s := ""
	for i := skip + 1; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		name := "?"
		if fn := runtime.FuncForPC(pc); fn != nil {
			name = demangleName(fn.Name())
		}
		if s == "" {
			s = fmt.Sprintf("%s (%s:%d)\n", name, file, line)
		} else {
			s += fmt.Sprintf("\t<-%s (%s:%d)\n", name, file, line)
		}
	}
	return s
}

// demangleName returns sym demangled if it looks mangled, or sym
// unchanged otherwise; demangle.Filter already implements exactly this
// fallback but is spelled out here so a failed demangle never panics the
// handler that's trying to print a crash report.
func demangleName(sym string) (out string) {
	out = sym
	defer func() {
		recover()
	}()
	return demangle.Filter(sym)
}

// ExceptionFrame is the subset of interrupt-frame fields the kernel logs
// on an unhandled exception (spec.md §4.5).
type ExceptionFrame struct {
	InstructionPointer uintptr
	CodeSegment        uint64
	StackPointer       uintptr
	CPUFlags           uint64
}

// LogException formats an exception stack frame as a header line naming
// the exception, then one line carrying rip, cs, rsp, rflags and, when
// given, the error code; no allocation beyond what fmt.Sprintf itself
// needs.
func LogException(name string, frame ExceptionFrame, errorCode *uint64) {
	msg := fmt.Sprintf("EXCEPTION: %s\nrip=%#x cs=%#x rsp=%#x rflags=%#x",
		name, frame.InstructionPointer, frame.CodeSegment, frame.StackPointer, frame.CPUFlags)
	if errorCode != nil {
		msg += fmt.Sprintf(" error_code=%#x", *errorCode)
	}
	Logf(LevelFatal, "%s", msg)
}
