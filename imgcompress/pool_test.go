package imgcompress

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestNewPool_DefaultSize(t *testing.T) {
	p := NewPool(New(Options{}), 0)
	if p.Size() != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), p.Size())
	}
}

func TestPool_Compress(t *testing.T) {
	input := jpegBytes(t, photo(96, 96), 100)
	p := NewPool(New(Options{}), 2)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 6)
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = p.Compress(context.Background(), input, len(input), NewRequest())
		}()
	}
	wg.Wait()

	for i, o := range outcomes {
		if o.Kind != Compressed {
			t.Errorf("Compression %d: expected compressed, got %s (%v)", i, o.Kind, o.Err)
		}
	}
}

func TestPool_CancelledWhileWaiting(t *testing.T) {
	input := jpegBytes(t, photo(32, 32), 100)
	p := NewPool(New(Options{}), 1)

	// Occupy the only slot.
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	outcome := p.Compress(ctx, input, 0, NewRequest())
	if outcome.Kind != Cancelled {
		t.Fatalf("Expected cancelled, got %s", outcome.Kind)
	}
	if outcome.Format != FormatJPEG {
		t.Errorf("Expected jpeg, got %s", outcome.Format)
	}
	if outcome.OriginalSize != len(input) {
		t.Errorf("Expected original size %d, got %d", len(input), outcome.OriginalSize)
	}
}
