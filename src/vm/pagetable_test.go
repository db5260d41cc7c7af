package vm

import (
	"testing"
	"unsafe"

	"nucleus/src/mem"
)

// newTestMapper backs "physical memory" with a plain Go byte slice and
// points mem.PhysicalMemoryOffset at it, so frame numbers handed out by a
// FrameAllocator over [0, len(backing)) behave like real physical
// addresses reachable through the linear map — the same trick
// heap_test.go uses to exercise the allocator without an MMU.
func newTestMapper(t *testing.T, physSize int) (*Mapper, *mem.FrameAllocator) {
	t.Helper()
	backing := make([]byte, physSize)
	mem.SetPhysicalMemoryOffset(mem.VAddr(uintptr(unsafe.Pointer(&backing[0]))))

	mm := mem.MemoryMap{{Start: 0, End: mem.Pa_t(physSize), Usable: true}}
	frames := mem.NewFrameAllocator(mm)

	root, ok := frames.Allocate()
	if !ok {
		t.Fatal("failed to allocate root table frame")
	}
	m := NewMapper(root, frames)
	tbl := m.tableAt(root)
	for i := range tbl {
		tbl[i] = 0
	}
	return m, frames
}

func TestTranslateUnmapped(t *testing.T) {
	m, _ := newTestMapper(t, 16*mem.PGSIZE)
	if _, ok, err := m.Translate(mem.VAddr(0x1000)); ok || err != nil {
		t.Fatalf("expected unmapped, got ok=%v err=%v", ok, err)
	}
}

func TestMapToThenTranslate(t *testing.T) {
	m, frames := newTestMapper(t, 64*mem.PGSIZE)

	frame, ok := frames.Allocate()
	if !ok {
		t.Fatal("no frame for leaf")
	}
	page := Page{Start: mem.VAddr(0x4000_0000_0000)}
	if err := m.MapTo(page, Frame{Start: frame}, PageTableFlags{Writable: true}); err != nil {
		t.Fatalf("MapTo: %v", err)
	}

	want := frame + 0x10
	got, ok, err := m.Translate(page.Start + 0x10)
	if err != nil || !ok {
		t.Fatalf("translate after map: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("translate = %#x, want %#x", got, want)
	}
}

func TestMapToRejectsDoubleMap(t *testing.T) {
	m, frames := newTestMapper(t, 64*mem.PGSIZE)
	frame, _ := frames.Allocate()
	page := Page{Start: mem.VAddr(0x4000_0000_0000)}

	if err := m.MapTo(page, Frame{Start: frame}, PageTableFlags{Writable: true}); err != nil {
		t.Fatalf("first MapTo: %v", err)
	}
	frame2, _ := frames.Allocate()
	if err := m.MapTo(page, Frame{Start: frame2}, PageTableFlags{Writable: true}); err != ErrAlreadyMapped {
		t.Fatalf("expected ErrAlreadyMapped, got %v", err)
	}
}

func TestUnmapClearsTranslation(t *testing.T) {
	m, frames := newTestMapper(t, 64*mem.PGSIZE)
	frame, _ := frames.Allocate()
	page := Page{Start: mem.VAddr(0x4000_0000_0000)}
	if err := m.MapTo(page, Frame{Start: frame}, PageTableFlags{Writable: true}); err != nil {
		t.Fatalf("MapTo: %v", err)
	}
	m.Unmap(page)
	if _, ok, _ := m.Translate(page.Start); ok {
		t.Fatal("expected unmapped after Unmap")
	}
}

func TestMapToFrameExhaustion(t *testing.T) {
	// Only enough frames for the root table; ensureTable calls for the
	// intermediate levels must fail with ErrFrameAllocationFailed.
	m, _ := newTestMapper(t, 1*mem.PGSIZE)
	page := Page{Start: mem.VAddr(0x4000_0000_0000)}
	if err := m.MapTo(page, Frame{Start: 0}, PageTableFlags{Writable: true}); err != ErrFrameAllocationFailed {
		t.Fatalf("expected ErrFrameAllocationFailed, got %v", err)
	}
}
