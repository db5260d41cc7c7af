package mem

import "testing"

func TestFrameAllocatorUniqueAndUsable(t *testing.T) {
	mm := MemoryMap{
		{Start: 0x1000, End: 0x1000 + 4*uintptrToPa(PGSIZE), Usable: true},
		{Start: 0x100000, End: 0x100000 + 1000, Usable: false},
		{Start: 0x200000, End: 0x200000 + 2*uintptrToPa(PGSIZE), Usable: true},
	}
	fa := NewFrameAllocator(mm)

	seen := map[Pa_t]bool{}
	var got []Pa_t
	for {
		f, ok := fa.Allocate()
		if !ok {
			break
		}
		if seen[f] {
			t.Fatalf("frame %#x returned twice", f)
		}
		seen[f] = true
		got = append(got, f)

		inUsableRegion := false
		for _, r := range mm {
			if r.Usable && f >= r.Start && f+Pa_t(PGSIZE) <= r.End {
				inUsableRegion = true
			}
		}
		if !inUsableRegion {
			t.Fatalf("frame %#x not within a usable region", f)
		}
	}

	if len(got) != 6 {
		t.Fatalf("expected 6 usable frames across both regions, got %d", len(got))
	}
}

func TestFrameAllocatorExhausted(t *testing.T) {
	mm := MemoryMap{{Start: 0, End: Pa_t(PGSIZE), Usable: true}}
	fa := NewFrameAllocator(mm)

	if _, ok := fa.Allocate(); !ok {
		t.Fatal("expected one frame")
	}
	if _, ok := fa.Allocate(); ok {
		t.Fatal("expected exhaustion")
	}
}

func uintptrToPa(v int) Pa_t { return Pa_t(v) }
