package heap

import (
	"testing"
	"unsafe"
)

func bufAddr(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}

// newTestHeap backs a Heap with a plain Go buffer instead of a mapped
// kernel range, exercising the allocator logic without an MMU.
func newTestHeap(t *testing.T, size int) *Heap {
	t.Helper()
	buf := make([]byte, size+int(nodeAlign))
	start := alignedStart(buf)
	h := &Heap{}
	h.InitRange(start, size)
	return h
}

func alignedStart(buf []byte) uintptr {
	addr := bufAddr(buf)
	rem := addr % uintptr(nodeAlign)
	if rem == 0 {
		return addr
	}
	return addr + uintptr(nodeAlign) - rem
}

func TestHeapU64ReuseDoesNotExhaust(t *testing.T) {
	h := newTestHeap(t, 4096)

	// Allocating and freeing a single u64 many times in succession must
	// never exhaust the heap (spec.md §8, "Heap reuse").
	var first uintptr
	for i := 0; i < 10_000; i++ {
		p := h.AllocU64(uint64(i))
		if p == 0 {
			t.Fatalf("allocation %d failed", i)
		}
		if i == 0 {
			first = p
		} else if p != first {
			t.Fatalf("allocation %d returned %x, want reused address %x", i, p, first)
		}
		h.FreeU64(p)
	}
}

func TestHeapSizeClassRoundTrip(t *testing.T) {
	h := newTestHeap(t, 64*1024)

	var ptrs []uintptr
	for _, class := range sizeClasses {
		p := h.Alloc(class, class)
		if p == 0 {
			t.Fatalf("alloc of class %d failed", class)
		}
		ptrs = append(ptrs, p)
	}
	for i, class := range sizeClasses {
		h.Free(ptrs[i], class, class)
	}

	// Second round must reuse the freed blocks rather than grow into the
	// fallback allocator.
	var second []uintptr
	for _, class := range sizeClasses {
		p := h.Alloc(class, class)
		if p == 0 {
			t.Fatalf("second alloc of class %d failed", class)
		}
		second = append(second, p)
	}
	seen := make(map[uintptr]bool)
	for _, p := range ptrs {
		seen[p] = true
	}
	for i, p := range second {
		if !seen[p] {
			t.Fatalf("second round pointer %x for class %d is not a reused block", p, sizeClasses[i])
		}
	}
}

func TestHeapFallbackForOversizeRequest(t *testing.T) {
	h := newTestHeap(t, 64*1024)

	p := h.Alloc(4096, 8)
	if p == 0 {
		t.Fatal("oversize allocation should be served by the fallback allocator")
	}
	h.Free(p, 4096, 8)
}

func TestHeapStatsAccessorDoesNotPanic(t *testing.T) {
	h := newTestHeap(t, 4096)
	p := h.Alloc(64, 64)
	if p == 0 {
		t.Fatal("alloc failed")
	}
	// stats.Stats is compiled out in this build, so the counters always
	// read zero; this only guards against the accessor panicking or
	// indexing out of range as size classes change.
	s := h.Stats()
	for i, inUse := range s.InUse {
		if inUse != 0 {
			t.Fatalf("class %d: expected 0 with stats disabled, got %d", i, inUse)
		}
	}
	h.Free(p, 64, 64)
}

func TestHeapFreeNullPanics(t *testing.T) {
	h := newTestHeap(t, 4096)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic freeing a null pointer")
		}
	}()
	h.Free(0, 8, 8)
}
