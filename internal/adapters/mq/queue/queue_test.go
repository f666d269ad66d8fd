package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

func job(i int) Job {
	return Job{Index: i, Competition: model.Competition{ID: fmt.Sprintf("Comp%d", i)}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job(1)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	j := <-q.Dequeue(ctx)
	if j.Competition.ID != "Comp1" || j.Index != 1 {
		t.Errorf("unexpected job %+v", j)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job(1)) || !q.Enqueue(ctx, job(2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job(3)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, job(1)) {
		t.Error("expected enqueue to fail on a cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentConsumers(t *testing.T) {
	const total = 500
	q := NewInMemoryQueue(WithCapacity(total))
	ctx := context.Background()

	for i := 0; i < total; i++ {
		if !q.Enqueue(ctx, job(i)) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
		wg   sync.WaitGroup
	)
	for c := 0; c < 8; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range q.Dequeue(ctx) {
				mu.Lock()
				seen[j.Index]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("expected %d distinct jobs, got %d", total, len(seen))
	}
	for i, n := range seen {
		if n != 1 {
			t.Errorf("job %d delivered %d times", i, n)
		}
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job(1)) || !q.Enqueue(ctx, job(2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job(3)) {
		t.Error("expected enqueue to fail after closing")
	}

	// queued jobs are still delivered, then the channel closes
	got := 0
	timeout := time.After(100 * time.Millisecond)
	ch := q.Dequeue(ctx)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if got != 2 {
					t.Errorf("expected 2 drained jobs, got %d", got)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			got++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
