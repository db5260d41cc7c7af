package keyboard

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// recordingWaker satisfies Waker and makes a single Wake() observable
// across goroutines via a buffered channel.
type recordingWaker struct {
	woken chan struct{}
}

func newRecordingWaker() *recordingWaker {
	return &recordingWaker{woken: make(chan struct{}, 1)}
}

func (w *recordingWaker) Wake() {
	select {
	case w.woken <- struct{}{}:
	default:
	}
}

var errQueueNotEmptyAtStart = errors.New("queue was non-empty before the ISR pushed anything")
var errStreamDidNotDeliver = errors.New("stream did not report the pushed scancode as ready after waking")

// TestStreamNeverLosesAWakeup drives a producer ("ISR") and a consumer
// through the four-step poll protocol (spec.md §4.6) on separate
// goroutines, using a weighted semaphore as a strict handoff so the push
// happens only after the consumer's first Poll has registered its waker
// and reported pending — the exact interleaving the protocol exists to
// survive without missing the wakeup.
func TestStreamNeverLosesAWakeup(t *testing.T) {
	q := NewQueue()
	s := NewStream(q)
	waker := newRecordingWaker()

	want := []byte{0x1E, 0x9E, 0x20, 0xA0}

	consumerRegistered := semaphore.NewWeighted(1)
	producerDone := semaphore.NewWeighted(1)
	if err := consumerRegistered.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := producerDone.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		if err := consumerRegistered.Acquire(ctx, 1); err != nil {
			return err
		}
		for _, b := range want {
			q.Push(b)
		}
		s.WakeIfWaiting()
		producerDone.Release(1)
		return nil
	})

	var got []byte
	g.Go(func() error {
		_, ready := s.Poll(waker)
		if ready {
			return errQueueNotEmptyAtStart
		}
		consumerRegistered.Release(1)

		select {
		case <-waker.woken:
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := producerDone.Acquire(ctx, 1); err != nil {
			return err
		}

		for len(got) < len(want) {
			b, ready := s.Poll(waker)
			if !ready {
				return errStreamDidNotDeliver
			}
			got = append(got, b)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("delivered scancodes = % X, want % X", got, want)
	}
}
