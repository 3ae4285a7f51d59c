package gutter

import (
	"context"
	"testing"
	"time"

	"github.com/gilchrisn/streamcc/pkg/graphcc"
)

func TestInsertRejectsOutOfRangeAndSelfLoop(t *testing.T) {
	g := New(4, 8)
	if err := g.Insert(graphcc.Edge{U: 0, V: 9}, graphcc.Insert); err == nil {
		t.Fatalf("expected out-of-range error")
	}
	if err := g.Insert(graphcc.Edge{U: 2, V: 2}, graphcc.Insert); err == nil {
		t.Fatalf("expected self-loop error")
	}
}

func TestForceFlushWaitsForDrain(t *testing.T) {
	g := New(4, 8)
	if err := g.Insert(graphcc.Edge{U: 0, V: 1}, graphcc.Insert); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	drainCtx, stopDrain := context.WithCancel(context.Background())
	defer stopDrain()
	batches := g.Drain(drainCtx, 0, 1)

	flushed := make(chan error, 1)
	go func() { flushed <- g.ForceFlush(ctx) }()

	// Insert queued one item per endpoint, so two batches must be drained.
	for i := 0; i < 2; i++ {
		select {
		case b, ok := <-batches:
			if !ok {
				t.Fatalf("channel closed before delivering batch")
			}
			if b.Src != 0 && b.Src != 1 {
				t.Fatalf("unexpected src %d", b.Src)
			}
			b.Done()
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for batch")
		}
	}

	select {
	case err := <-flushed:
		if err != nil {
			t.Fatalf("ForceFlush: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("ForceFlush did not return after drain")
	}
}

func TestForceFlushRespectsContextCancellation(t *testing.T) {
	g := New(4, 8)
	if err := g.Insert(graphcc.Edge{U: 0, V: 1}, graphcc.Insert); err != nil {
		t.Fatalf("insert: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := g.ForceFlush(ctx); err == nil {
		t.Fatalf("expected context deadline error, got nil")
	}
}

func TestDrainPartitionsByGroup(t *testing.T) {
	g := New(4, 8)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	seenGroup0 := map[uint64]bool{}
	ch := g.Drain(ctx, 0, 2)
	go func() {
		if err := g.Insert(graphcc.Edge{U: 0, V: 1}, graphcc.Insert); err != nil {
			t.Errorf("insert: %v", err)
		}
	}()

	for {
		select {
		case b, ok := <-ch:
			if !ok {
				goto done
			}
			seenGroup0[b.Src] = true
			b.Done()
		case <-ctx.Done():
			goto done
		}
	}
done:
	for src := range seenGroup0 {
		if src%2 != 0 {
			t.Fatalf("group 0 received batch for odd vertex %d", src)
		}
	}
}
