package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCommitGate_AcquireRelease(t *testing.T) {
	gate := NewCommitGate(1, time.Second)

	if got := gate.ActiveCount(); got != 0 {
		t.Errorf("initial ActiveCount = %d, want 0", got)
	}

	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if got := gate.ActiveCount(); got != 1 {
		t.Errorf("after Acquire, ActiveCount = %d, want 1", got)
	}
	if gate.TryAcquire() {
		t.Error("TryAcquire succeeded while the slot is held")
	}

	gate.Release()

	if got := gate.ActiveCount(); got != 0 {
		t.Errorf("after Release, ActiveCount = %d, want 0", got)
	}
	if !gate.TryAcquire() {
		t.Fatal("TryAcquire failed on a free gate")
	}
	gate.Release()
}

func TestCommitGate_BusyAfterWait(t *testing.T) {
	gate := NewCommitGate(1, 100*time.Millisecond)

	ctx := context.Background()
	if err := gate.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer gate.Release()

	start := time.Now()
	err := gate.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrCommitBusy) {
		t.Errorf("expected ErrCommitBusy, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}
}

func TestCommitGate_ContextCancelled(t *testing.T) {
	gate := NewCommitGate(1, time.Second)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer gate.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gate.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCommitGate_SerializesWriters(t *testing.T) {
	const writers = 8

	gate := NewCommitGate(1, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gate.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer gate.Release()

			mu.Lock()
			if c := gate.ActiveCount(); c > maxObserved {
				maxObserved = c
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved != 1 {
		t.Errorf("max concurrent writers = %d, want 1", maxObserved)
	}
}

func TestCommitGate_WaitForDrain(t *testing.T) {
	gate := NewCommitGate(1, time.Second)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	go func() {
		time.Sleep(60 * time.Millisecond)
		gate.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := gate.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain() error = %v", err)
	}

	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer gate.Release()

	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	if err := gate.WaitForDrain(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain() with held slot = %v, want deadline exceeded", err)
	}
}
