package gdt

import "unsafe"

// ptrOf returns the address of the memory backing v, for building
// descriptor base fields without importing unsafe into the main file's
// arithmetic-heavy code.
func ptrOf(v any) unsafe.Pointer {
	switch p := v.(type) {
	case *tss:
		return unsafe.Pointer(p)
	case *[doubleFaultStackSize]byte:
		return unsafe.Pointer(p)
	default:
		panic("gdt: ptrOf of unsupported type")
	}
}

// unsafeSizeofTSS reports the in-memory size of the tss struct this
// package defines, used as the TSS descriptor's segment limit.
func unsafeSizeofTSS() uintptr {
	return unsafe.Sizeof(tss{})
}

// descriptorPointer is the packed limit:base pair LGDT/LIDT expect at the
// address passed to them.
type descriptorPointer struct {
	limit uint16
	base  uint64
}

var gdtr descriptorPointer

// descriptorTablePointer packs entries' limit and base into the
// package-level gdtr value (kept alive for the lifetime of the kernel,
// since the CPU dereferences it again on every privilege-level change)
// and returns its address for LoadGDT.
func descriptorTablePointer(entries []uint64) uintptr {
	gdtr.limit = uint16(len(entries)*8 - 1)
	gdtr.base = uint64(uintptr(unsafe.Pointer(&entries[0])))
	return uintptr(unsafe.Pointer(&gdtr))
}
