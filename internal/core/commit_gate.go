package core

// commit_gate.go serializes writes to the prospect store.
//
// A commit holds the single slot for the duration of its store transaction,
// so two commits never interleave their writes. A commit that cannot get the
// slot within maxWait fails with ErrCommitBusy. WaitForDrain lets shutdown
// wait for the in-flight commit.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCommitBusy is returned when another commit holds the slot past the wait time.
var ErrCommitBusy = errors.New("too many commits in progress, please try again later")

// DefaultCommitWait is how long a commit waits for the slot before giving up.
const DefaultCommitWait = 30 * time.Second

// CommitGate is a semaphore guarding the prospect store's write path.
type CommitGate struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewCommitGate creates a gate that admits slots concurrent writers.
// Commits use one slot; other callers may pass a larger value for shared use.
func NewCommitGate(slots int, maxWait time.Duration) *CommitGate {
	if slots <= 0 {
		slots = 1
	}
	if maxWait <= 0 {
		maxWait = DefaultCommitWait
	}
	return &CommitGate{
		semaphore: make(chan struct{}, slots),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. The caller must call Release when done.
func (g *CommitGate) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.semaphore <- struct{}{}:
		g.mu.Lock()
		g.active++
		g.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrCommitBusy
	}
}

// TryAcquire takes a slot without blocking.
func (g *CommitGate) TryAcquire() bool {
	select {
	case g.semaphore <- struct{}{}:
		g.mu.Lock()
		g.active++
		g.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (g *CommitGate) Release() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	<-g.semaphore
}

// ActiveCount returns the number of held slots.
func (g *CommitGate) ActiveCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// WaitForDrain blocks until no slot is held or ctx is done.
func (g *CommitGate) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if g.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
