// Package worker runs background jobs on a bounded, reusable pool.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/kidsync/internal/logging"
	"golang.org/x/sync/semaphore"
)

// Job is a unit of background work.
type Job func(ctx context.Context)

// Pool limits how many jobs run at once. Jobs run on their own goroutine
// once a slot is free; Submit returns immediately after queuing.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
	log logging.Logger
}

func NewPool(size int, log logging.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), log: log.With("component", "worker")}
}

// Submit schedules job. The job waits for a free slot in the background; if
// ctx is cancelled first the job is dropped. A panicking job is logged and
// does not take the pool down.
func (p *Pool) Submit(ctx context.Context, job Job) {
	p.SubmitOr(ctx, job, nil)
}

// SubmitOr is Submit with a hook: dropped is called with the context error
// when the job never gets a slot. Exactly one of job and dropped runs.
func (p *Pool) SubmitOr(ctx context.Context, job Job, dropped func(err error)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(ctx, 1); err != nil {
			p.log.Warn(ctx, "job dropped", "error", err)
			if dropped != nil {
				dropped(err)
			}
			return
		}
		defer p.sem.Release(1)

		defer func() {
			if r := recover(); r != nil {
				p.log.Error(ctx, "job panicked", "panic", fmt.Sprint(r))
			}
		}()
		job(ctx)
	}()
}

// Wait blocks until every submitted job has finished or been dropped.
func (p *Pool) Wait() {
	p.wg.Wait()
}
