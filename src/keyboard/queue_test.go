package keyboard

import "testing"

// TestQueueFIFOOrder checks that scancodes are observed in push order
// with no gaps (spec.md §8, "Scancode ordering").
func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	want := []byte{0x1E, 0x9E, 0x20, 0xA0}
	for _, b := range want {
		q.Push(b)
	}
	for i, wantByte := range want {
		b, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly empty", i)
		}
		if b != wantByte {
			t.Fatalf("pop %d = %#x, want %#x", i, b, wantByte)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("queue should be empty after draining all pushed bytes")
	}
}

// TestQueueOverflowDropsNewest verifies the overflow policy in spec.md
// §4.6: once full, the ISR drops the newest byte rather than blocking
// or evicting an older one.
func TestQueueOverflowDropsNewest(t *testing.T) {
	q := NewQueue()
	for i := 0; i < capacity; i++ {
		q.Push(byte(i))
	}
	q.Push(0xFF) // one past capacity, must be dropped

	if got := q.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}

	first, ok := q.Pop()
	if !ok || first != 0 {
		t.Fatalf("first popped byte = %#x, ok=%v; want 0x00, true", first, ok)
	}

	stats := q.Stats()
	if stats.Dropped != 1 {
		t.Fatalf("Stats().Dropped = %d, want 1", stats.Dropped)
	}
	if stats.Pushed != capacity+1 {
		t.Fatalf("Stats().Pushed = %d, want %d", stats.Pushed, capacity+1)
	}
	if stats.Popped != 1 {
		t.Fatalf("Stats().Popped = %d, want 1", stats.Popped)
	}
	if stats.Depth != capacity-1 {
		t.Fatalf("Stats().Depth = %d, want %d", stats.Depth, capacity-1)
	}
}

func TestQueueStatsEmpty(t *testing.T) {
	q := NewQueue()
	stats := q.Stats()
	if stats != (QueueStats{}) {
		t.Fatalf("Stats() on a fresh queue = %+v, want zero value", stats)
	}
}
