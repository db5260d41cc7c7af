// Package vm implements the page mapper: translating virtual addresses
// through the active 4-level page table and installing new mappings
// (spec.md §4.2). It wraps mem.Dmap so that page-table pages — wherever
// they physically live — are always reached through the linear map, the
// same discipline the teacher's vm.Vm_t applies via mem.Physmem.Dmap,
// except here against physical_memory_offset rather than a recursive
// slot (spec.md §3's data model calls for the offset-based scheme).
package vm

import (
	"errors"

	"nucleus/src/mem"
)

// Page describes one 4 KiB virtual page.
type Page struct {
	Start mem.VAddr
}

// Frame describes one 4 KiB physical frame.
type Frame struct {
	Start mem.Pa_t
}

// PageTableFlags are installed on the leaf PTE by MapTo.
type PageTableFlags struct {
	Writable     bool
	NoExecute    bool
	WriteThrough bool
}

func (f PageTableFlags) bits() mem.Pa_t {
	b := mem.PTE_P
	if f.Writable {
		b |= mem.PTE_W
	}
	if f.NoExecute {
		b |= mem.PTE_NX
	}
	if f.WriteThrough {
		b |= mem.PTE_PWT
	}
	return b
}

// pmap is one level of the 4-level hierarchy: 512 entries, each empty, a
// next-level table frame, or (unsupported here) a leaf huge-page mapping.
type pmap [512]mem.Pa_t

// ErrHugePage is returned by Translate when a walk encounters a huge-page
// (PS bit set) mapping, which this mapper does not support (spec.md §4.2).
var ErrHugePage = errors.New("vm: huge-page mapping encountered, unsupported")

// ErrFrameAllocationFailed is returned by MapTo when the frame allocator is
// exhausted while creating an intermediate table.
var ErrFrameAllocationFailed = errors.New("vm: frame allocation failed")

// ErrAlreadyMapped is returned by MapTo when the target page already has a
// present leaf mapping.
var ErrAlreadyMapped = errors.New("vm: page already mapped")

// Mapper wraps the page table rooted at Root (a physical frame holding the
// top-level, or "L4", table) via the kernel's linear map.
type Mapper struct {
	Root   mem.Pa_t
	Frames *mem.FrameAllocator
}

// NewMapper returns a Mapper over the given active top-level table.
func NewMapper(root mem.Pa_t, frames *mem.FrameAllocator) *Mapper {
	return &Mapper{Root: root, Frames: frames}
}

// indices splits a virtual address into its four page-table indices,
// highest level first, following the standard 9/9/9/9/12 x86_64 split
// (teacher's mem/dmap.go pgbits helper does the equivalent decomposition
// for its recursive-mapping scheme).
func indices(va mem.VAddr) (l4, l3, l2, l1 int) {
	v := uintptr(va)
	l4 = int((v >> 39) & 0x1ff)
	l3 = int((v >> 30) & 0x1ff)
	l2 = int((v >> 21) & 0x1ff)
	l1 = int((v >> 12) & 0x1ff)
	return
}

func (m *Mapper) tableAt(frame mem.Pa_t) *pmap {
	va := mem.Dmap(frame)
	return (*pmap)(tablePointer(va))
}

// Translate walks L4→L1 and returns the physical address the given virtual
// address maps to, or ok=false if any level is not present.
func (m *Mapper) Translate(va mem.VAddr) (pa mem.Pa_t, ok bool, err error) {
	l4i, l3i, l2i, l1i := indices(va)

	l4 := m.tableAt(m.Root)
	l4e := l4[l4i]
	if l4e&mem.PTE_P == 0 {
		return 0, false, nil
	}

	l3 := m.tableAt(l4e & mem.PTE_ADDR)
	l3e := l3[l3i]
	if l3e&mem.PTE_P == 0 {
		return 0, false, nil
	}
	if l3e&mem.PTE_PS != 0 {
		return 0, false, ErrHugePage
	}

	l2 := m.tableAt(l3e & mem.PTE_ADDR)
	l2e := l2[l2i]
	if l2e&mem.PTE_P == 0 {
		return 0, false, nil
	}
	if l2e&mem.PTE_PS != 0 {
		return 0, false, ErrHugePage
	}

	l1 := m.tableAt(l2e & mem.PTE_ADDR)
	l1e := l1[l1i]
	if l1e&mem.PTE_P == 0 {
		return 0, false, nil
	}

	offset := mem.Pa_t(va) & mem.PGOFFSET
	return (l1e & mem.PTE_ADDR) | offset, true, nil
}

// ensureTable returns the next-level table frame referenced by entry *e,
// allocating and zeroing a fresh one (as a present, writable intermediate
// table; the user bit is not set) if *e is not yet present.
func (m *Mapper) ensureTable(e *mem.Pa_t) (mem.Pa_t, error) {
	if *e&mem.PTE_P != 0 {
		return *e & mem.PTE_ADDR, nil
	}
	frame, ok := m.Frames.Allocate()
	if !ok {
		return 0, ErrFrameAllocationFailed
	}
	tbl := m.tableAt(frame)
	for i := range tbl {
		tbl[i] = 0
	}
	*e = frame | mem.PTE_P | mem.PTE_W
	return frame, nil
}

// MapTo creates any missing intermediate tables (via Frames) and installs
// a present leaf mapping from page to frame with the given flags. It
// fails with ErrFrameAllocationFailed on allocator exhaustion and with
// ErrAlreadyMapped if the leaf is already present (spec.md §4.2).
func (m *Mapper) MapTo(page Page, frame Frame, flags PageTableFlags) error {
	l4i, l3i, l2i, l1i := indices(page.Start)

	l4 := m.tableAt(m.Root)
	l3frame, err := m.ensureTable(&l4[l4i])
	if err != nil {
		return err
	}
	l3 := m.tableAt(l3frame)
	l2frame, err := m.ensureTable(&l3[l3i])
	if err != nil {
		return err
	}
	l2 := m.tableAt(l2frame)
	l1frame, err := m.ensureTable(&l2[l2i])
	if err != nil {
		return err
	}
	l1 := m.tableAt(l1frame)

	if l1[l1i]&mem.PTE_P != 0 {
		return ErrAlreadyMapped
	}
	l1[l1i] = (frame.Start & mem.PTE_ADDR) | flags.bits()
	flushTLB(page.Start)
	return nil
}

// Unmap clears a present leaf mapping, flushing its TLB entry. It is a
// no-op if the page was not mapped.
func (m *Mapper) Unmap(page Page) {
	l4i, l3i, l2i, l1i := indices(page.Start)
	l4 := m.tableAt(m.Root)
	if l4[l4i]&mem.PTE_P == 0 {
		return
	}
	l3 := m.tableAt(l4[l4i] & mem.PTE_ADDR)
	if l3[l3i]&mem.PTE_P == 0 {
		return
	}
	l2 := m.tableAt(l3[l3i] & mem.PTE_ADDR)
	if l2[l2i]&mem.PTE_P == 0 {
		return
	}
	l1 := m.tableAt(l2[l2i] & mem.PTE_ADDR)
	l1[l1i] = 0
	flushTLB(page.Start)
}
