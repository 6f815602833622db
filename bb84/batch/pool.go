// Package batch provides a small fixed-size worker pool for fanning
// independent, index-addressed work out across goroutines. Work is assigned
// as contiguous chunks of the index range, so a caller that derives one
// random source per chunk gets reproducible results no matter how the
// goroutines are scheduled.
package batch

import (
	"context"
	"runtime"
	"sync"
)

// A Chunk is a contiguous half-open sub-range [Start, End) of the mapped
// index space, assigned to a single worker.
type Chunk struct {
	// Worker is the index of the chunk itself, in [0, Pool workers).
	Worker int
	// Start and End bound the item indices this chunk covers.
	Start, End int
}

// Len returns the number of items in c.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// A Pool runs chunked index-range jobs on a fixed number of workers.
type Pool struct {
	workers int
}

// New returns a Pool with the given number of workers. A non-positive count
// defaults to GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the number of workers p schedules onto, which is also the
// number of chunks every call to Map produces.
func (p *Pool) Workers() int {
	return p.workers
}

// Map partitions [0, n) into exactly Workers() contiguous chunks (some
// possibly empty) and invokes fn once per chunk, concurrently. It returns
// after every chunk has finished. The first non-nil error cancels the shared
// context and is returned; if ctx is cancelled externally, ctx.Err() is
// returned.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, c Chunk) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	per := (n + p.workers - 1) / p.workers
	for w := 0; w < p.workers; w++ {
		c := Chunk{Worker: w, Start: w * per, End: (w + 1) * per}
		if c.Start > n {
			c.Start = n
		}
		if c.End > n {
			c.End = n
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx, c); err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
