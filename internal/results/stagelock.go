package results

// stagelock.go serializes imports per educational stage.
//
// Two uploads racing on overlapping student ids would otherwise commit
// in an undefined order; the lock makes the outcome explicit: only one
// batch per stage runs at a time, and waiters past maxWait receive
// ErrImportBusy instead of queuing indefinitely.

import (
	"context"
	"sync"
	"time"
)

// DefaultLockWait is how long an import waits for the stage lock before
// giving up.
const DefaultLockWait = 30 * time.Second

// StageLocks hands out one exclusive slot per stage id.
type StageLocks struct {
	maxWait time.Duration

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewStageLocks creates a lock set with the given wait budget.
func NewStageLocks(maxWait time.Duration) *StageLocks {
	if maxWait <= 0 {
		maxWait = DefaultLockWait
	}
	return &StageLocks{
		maxWait: maxWait,
		slots:   make(map[string]chan struct{}),
	}
}

// slot returns the semaphore channel for a stage, creating it on first use.
func (l *StageLocks) slot(stageID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[stageID]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[stageID] = s
	}
	return s
}

// Acquire takes the exclusive import slot for a stage.
// Returns nil on success, ErrImportBusy when the wait budget expires.
// The caller MUST call Release with the same stage id when done.
func (l *StageLocks) Acquire(ctx context.Context, stageID string) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slot(stageID) <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrImportBusy
	}
}

// Release frees the slot taken by a successful Acquire.
func (l *StageLocks) Release(stageID string) {
	<-l.slot(stageID)
}

// TryAcquire takes the slot without blocking.
func (l *StageLocks) TryAcquire(stageID string) bool {
	select {
	case l.slot(stageID) <- struct{}{}:
		return true
	default:
		return false
	}
}
