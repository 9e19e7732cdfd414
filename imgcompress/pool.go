package imgcompress

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many compressions run at once. Encoding is CPU-bound, so callers that accept
// requests concurrently should go through a Pool rather than calling [Compressor.Compress] directly.
type Pool struct {
	compressor *Compressor
	sem        *semaphore.Weighted
	size       int
}

// NewPool returns a Pool running at most size compressions concurrently; size <= 0 means one per CPU.
func NewPool(c *Compressor, size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		compressor: c,
		sem:        semaphore.NewWeighted(int64(size)),
		size:       size,
	}
}

// Size returns the maximum number of concurrent compressions.
func (p *Pool) Size() int {
	return p.size
}

// Options returns the effective options of the underlying [Compressor].
func (p *Pool) Options() Options {
	return p.compressor.Options()
}

// Compress waits for a free slot and then runs [Compressor.Compress]. If ctx ends while waiting,
// the outcome is [Cancelled].
func (p *Pool) Compress(ctx context.Context, data []byte, originalSize int, req Request) Outcome {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		if originalSize <= 0 {
			originalSize = len(data)
		}
		format, _ := Detect(data)
		return failed(Cancelled, format, originalSize, err)
	}
	defer p.sem.Release(1)
	return p.compressor.Compress(ctx, data, originalSize, req)
}
