package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestPool_RunsAllJobs(t *testing.T) {
	p := NewPool(3, logging.Nop())
	var n atomic.Int32
	for i := 0; i < 20; i++ {
		p.Submit(context.Background(), func(ctx context.Context) { n.Add(1) })
	}
	p.Wait()
	assert.Equal(t, int32(20), n.Load())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(2, logging.Nop())
	var running, peak atomic.Int32

	for i := 0; i < 10; i++ {
		p.Submit(context.Background(), func(ctx context.Context) {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	p.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestPool_PanicIsContained(t *testing.T) {
	p := NewPool(1, logging.Nop())
	var ran atomic.Bool

	p.Submit(context.Background(), func(ctx context.Context) { panic("boom") })
	p.Submit(context.Background(), func(ctx context.Context) { ran.Store(true) })
	p.Wait()

	assert.True(t, ran.Load())
}

func TestPool_CancelledContextDropsQueuedJob(t *testing.T) {
	p := NewPool(1, logging.Nop())
	release := make(chan struct{})
	started := make(chan struct{})

	p.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	p.Submit(ctx, func(ctx context.Context) { ran.Store(true) })
	cancel()
	close(release)
	p.Wait()

	assert.False(t, ran.Load())
}

func TestPool_SubmitOrReportsDrop(t *testing.T) {
	p := NewPool(1, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	dropped := make(chan error, 1)
	p.SubmitOr(ctx, func(ctx context.Context) { ran.Store(true) }, func(err error) { dropped <- err })
	p.Wait()

	assert.False(t, ran.Load())
	select {
	case err := <-dropped:
		assert.ErrorIs(t, err, context.Canceled)
	default:
		t.Fatal("drop was not reported")
	}
}

func TestPool_SubmitOrSkipsHookWhenJobRuns(t *testing.T) {
	p := NewPool(1, logging.Nop())
	var ran, dropped atomic.Bool
	p.SubmitOr(context.Background(), func(ctx context.Context) { ran.Store(true) }, func(error) { dropped.Store(true) })
	p.Wait()

	assert.True(t, ran.Load())
	assert.False(t, dropped.Load())
}
