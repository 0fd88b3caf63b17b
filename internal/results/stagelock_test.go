package results

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStageLocks_Exclusive(t *testing.T) {
	locks := NewStageLocks(50 * time.Millisecond)
	ctx := context.Background()

	if err := locks.Acquire(ctx, "stage-1"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	// Second acquire on the same stage times out.
	err := locks.Acquire(ctx, "stage-1")
	if !errors.Is(err, ErrImportBusy) {
		t.Fatalf("second acquire = %v, want ErrImportBusy", err)
	}

	// A different stage is unaffected.
	if err := locks.Acquire(ctx, "stage-2"); err != nil {
		t.Fatalf("other stage acquire failed: %v", err)
	}
	locks.Release("stage-2")

	locks.Release("stage-1")
	if err := locks.Acquire(ctx, "stage-1"); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	locks.Release("stage-1")
}

func TestStageLocks_TryAcquire(t *testing.T) {
	locks := NewStageLocks(time.Second)

	if !locks.TryAcquire("stage-1") {
		t.Fatal("first try should succeed")
	}
	if locks.TryAcquire("stage-1") {
		t.Fatal("second try should fail while held")
	}
	locks.Release("stage-1")
	if !locks.TryAcquire("stage-1") {
		t.Fatal("try after release should succeed")
	}
	locks.Release("stage-1")
}

func TestStageLocks_ContextCancel(t *testing.T) {
	locks := NewStageLocks(time.Minute)
	ctx := context.Background()

	if err := locks.Acquire(ctx, "stage-1"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer locks.Release("stage-1")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	err := locks.Acquire(cancelled, "stage-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("acquire with cancelled context = %v, want context.Canceled", err)
	}
}
