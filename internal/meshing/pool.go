package meshing

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
)

// Pool runs chunk generation jobs on a bounded number of goroutines.
// Cancel makes queued jobs return the context error without running; jobs that
// already started run to completion.
type Pool struct {
	pool    pond.Pool
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewPool creates a pool. workers <= 0 means one per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		pool:    pond.NewPool(workers),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// Batch starts a new group of jobs that can be waited on together.
func (p *Pool) Batch() *Batch {
	return &Batch{
		group: p.pool.NewGroup(),
		ctx:   p.ctx,
	}
}

// Cancel stops queued jobs from starting. It does not wait.
func (p *Pool) Cancel() {
	p.cancel()
}

// Shutdown cancels pending jobs and waits for every submitted one to return.
func (p *Pool) Shutdown() {
	p.cancel()
	p.pool.StopAndWait()
}

// Batch is a set of jobs joined by a single Wait.
type Batch struct {
	group pond.TaskGroup
	ctx   context.Context

	mu   sync.Mutex
	size int
	errs []error
}

// Go queues job. Jobs see the pool context and should return early once it is
// done. A panicking job is reported as that job's error.
func (b *Batch) Go(job func(ctx context.Context) error) {
	b.mu.Lock()
	b.size++
	b.mu.Unlock()

	b.group.Submit(func() {
		if err := b.run(job); err != nil {
			b.mu.Lock()
			b.errs = append(b.errs, err)
			b.mu.Unlock()
		}
	})
}

func (b *Batch) run(job func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("meshing: job panicked: %v", r)
		}
	}()
	if ctxErr := b.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return job(b.ctx)
}

// Len returns the number of queued jobs.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Wait blocks until every job has finished and returns all job errors joined.
// Jobs never fail the group itself, so the group resolves only after the last
// one returns.
func (b *Batch) Wait() error {
	groupErr := b.group.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(append([]error{groupErr}, b.errs...)...)
}
