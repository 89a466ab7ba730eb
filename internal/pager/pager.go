// Package pager fetches remote search pages on demand, driven by a paged
// list reaching the end of its local data.
package pager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/common"
	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/merge"
	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/dmitrijs2005/kidsync/internal/observable"
	"github.com/dmitrijs2005/kidsync/internal/worker"
)

type State int

const (
	Idle State = iota
	FetchInFlight
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FetchInFlight:
		return "fetch_in_flight"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

type Fetcher interface {
	FetchPage(ctx context.Context, page int) (models.PageResponse, error)
}

type Store interface {
	UpsertMany(ctx context.Context, batch []models.Record) (merge.Counts, error)
	LastRequestedPage(ctx context.Context) (int, error)
	SetLastRequestedPage(ctx context.Context, page int) error
}

type Submitter interface {
	SubmitOr(ctx context.Context, job worker.Job, dropped func(err error))
}

// Pager allows at most one page fetch in flight. A failed fetch returns it
// to Idle with the page unchanged so the next trigger retries the same page;
// merging the last remote page exhausts it.
type Pager struct {
	ctx     context.Context
	remote  Fetcher
	store   Store
	pool    Submitter
	timeout time.Duration
	log     logging.Logger

	mu      sync.Mutex
	state   State
	settled chan struct{}

	network *observable.Value[models.NetworkState]
}

// New returns an idle pager. Fetches run on pool under ctx; each attempt is
// bounded by timeout unless it is 0.
func New(ctx context.Context, remote Fetcher, store Store, pool Submitter, timeout time.Duration, log logging.Logger) *Pager {
	return &Pager{
		ctx:     ctx,
		remote:  remote,
		store:   store,
		pool:    pool,
		timeout: timeout,
		log:     log.With("component", "pager"),
		network: observable.New(models.NetworkIdle),
	}
}

// OnZeroItemsLoaded starts a fetch. An empty list after the remote was
// exhausted means the store was reset, so the pager starts over.
func (p *Pager) OnZeroItemsLoaded() {
	p.mu.Lock()
	if p.state == Exhausted {
		p.state = Idle
	}
	p.mu.Unlock()
	p.Request()
}

func (p *Pager) OnItemAtEndLoaded(models.Record) {
	p.Request()
}

// Request starts a fetch of the next page unless one is already in flight
// or the remote has no more pages. It reports whether a fetch started and
// never blocks on I/O.
func (p *Pager) Request() bool {
	p.mu.Lock()
	if p.state != Idle {
		p.mu.Unlock()
		return false
	}
	p.state = FetchInFlight
	p.settled = make(chan struct{})
	p.network.Set(models.NetworkLoading)
	p.mu.Unlock()

	p.pool.SubmitOr(p.ctx, p.fetch, func(err error) {
		p.log.Warn(p.ctx, "page fetch never started", "error", err)
		p.finish(Idle, models.NetworkFailed(err.Error()))
	})
	return true
}

func (p *Pager) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// NetworkState is the observable fetch status.
func (p *Pager) NetworkState() *observable.Value[models.NetworkState] {
	return p.network
}

// Wait blocks until the current fetch settles or the pager's context ends.
func (p *Pager) Wait() {
	p.mu.Lock()
	ch := p.settled
	p.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-p.ctx.Done():
	}
}

func (p *Pager) fetch(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error(ctx, "page fetch panicked", "panic", fmt.Sprint(r))
			p.finish(Idle, models.NetworkFailed(fmt.Sprint(r)))
		}
	}()

	page, err := p.store.LastRequestedPage(ctx)
	if err != nil {
		p.fail(ctx, 0, err)
		return
	}

	fctx, cancel := ctx, context.CancelFunc(func() {})
	if p.timeout > 0 {
		fctx, cancel = context.WithTimeout(ctx, p.timeout)
	}
	resp, err := p.remote.FetchPage(fctx, page)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, common.ErrNetworkFailure) {
			err = fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
		}
		p.fail(ctx, page, err)
		return
	}

	counts, err := p.store.UpsertMany(ctx, resp.Records)
	if err != nil {
		p.fail(ctx, page, err)
		return
	}

	next := Idle
	if page >= resp.TotalPages {
		next = Exhausted
	} else if err := p.store.SetLastRequestedPage(ctx, page+1); err != nil {
		p.fail(ctx, page, err)
		return
	}

	p.log.Info(ctx, "page merged", "page", page, "total_pages", resp.TotalPages,
		"inserted", counts.Inserted, "updated", counts.Updated, "state", next.String())
	p.finish(next, models.NetworkLoaded)
}

func (p *Pager) fail(ctx context.Context, page int, err error) {
	if errors.Is(err, common.ErrNoData) {
		p.log.Info(ctx, "page returned no data", "page", page, "error", err)
	} else {
		p.log.Warn(ctx, "page fetch failed", "page", page, "error", err)
	}
	p.finish(Idle, models.NetworkFailed(err.Error()))
}

func (p *Pager) finish(next State, ns models.NetworkState) {
	p.mu.Lock()
	p.state = next
	ch := p.settled
	p.settled = nil
	p.network.Set(ns)
	p.mu.Unlock()

	if ch != nil {
		close(ch)
	}
}
