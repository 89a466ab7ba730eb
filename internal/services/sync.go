// Package services contains the application services of kidsync.
// This file defines the sync orchestrator: full resync of every remote page
// and on-demand detail sync for a single record.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/common"
	"github.com/dmitrijs2005/kidsync/internal/enrich"
	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/dmitrijs2005/kidsync/internal/remote"
	"github.com/dmitrijs2005/kidsync/internal/store"
	"github.com/dmitrijs2005/kidsync/internal/worker"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// SyncService runs background synchronization jobs.
//
// FullResync and SyncDetail return immediately and report through done,
// which is called exactly once from a background goroutine. When ctx ends
// before the job gets a worker, done receives the context error.
type SyncService interface {
	FullResync(ctx context.Context, done func(Result))
	RunFullResync(ctx context.Context) Result
	SyncDetail(ctx context.Context, key string, done func(enrich.Outcome, error))
	Reset(ctx context.Context) (int, error)
}

// Result summarises a full resync run.
type Result struct {
	RunID        string
	TotalPages   int
	TotalRecords int
	PagesMerged  int
	PagesEmpty   int
	Inserted     int
	Updated      int
	Err          error
}

func (r Result) Success() bool {
	return r.Err == nil
}

type SyncOptions struct {
	// Parallelism bounds concurrent page fetches.
	Parallelism int
	// Retries is how often a page failing with a network error is retried.
	Retries int
	// FetchTimeout bounds each remote call; 0 disables it.
	FetchTimeout time.Duration
	// RetryBase is the first backoff delay; it doubles per retry.
	RetryBase time.Duration
}

type syncService struct {
	remote   remote.Client
	store    *store.Store
	enricher *enrich.Enricher
	pool     *worker.Pool
	opts     SyncOptions
	log      logging.Logger
}

func NewSyncService(rc remote.Client, st *store.Store, en *enrich.Enricher, pool *worker.Pool, opts SyncOptions, log logging.Logger) SyncService {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 200 * time.Millisecond
	}
	return &syncService{remote: rc, store: st, enricher: en, pool: pool, opts: opts, log: log.With("component", "sync")}
}

func (s *syncService) FullResync(ctx context.Context, done func(Result)) {
	s.pool.SubmitOr(ctx, func(ctx context.Context) {
		r := s.RunFullResync(ctx)
		if done != nil {
			done(r)
		}
	}, func(err error) {
		if done != nil {
			done(Result{Err: fmt.Errorf("full resync not started: %w", err)})
		}
	})
}

func (s *syncService) SyncDetail(ctx context.Context, key string, done func(enrich.Outcome, error)) {
	s.pool.SubmitOr(ctx, func(ctx context.Context) {
		out, err := s.enricher.Enrich(ctx, key)
		if done != nil {
			done(out, err)
		}
	}, func(err error) {
		if done != nil {
			done(enrich.Failed, fmt.Errorf("detail sync[%s] not started: %w", key, err))
		}
	})
}

// RunFullResync fetches every remote page and merges it. Pages run with
// bounded parallelism; a page failing with a network error is retried with
// exponential backoff, an empty page is skipped.
func (s *syncService) RunFullResync(ctx context.Context) Result {
	res := Result{RunID: uuid.NewString()}
	log := s.log.With("run_id", res.RunID)
	start := time.Now()

	meta, err := s.pageCount(ctx)
	if err != nil {
		res.Err = fmt.Errorf("page count: %w", err)
		log.Warn(ctx, "full resync aborted", "error", res.Err)
		return res
	}
	res.TotalPages, res.TotalRecords = meta.TotalPages, meta.TotalRecords
	log.Info(ctx, "full resync started", "total_pages", meta.TotalPages, "total_records", meta.TotalRecords)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)

	for page := 1; page <= meta.TotalPages; page++ {
		g.Go(func() error {
			resp, err := s.fetchPage(gctx, page)
			if errors.Is(err, common.ErrNoData) {
				log.Info(gctx, "page returned no data", "page", page)
				mu.Lock()
				res.PagesEmpty++
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}

			counts, err := s.store.UpsertMany(gctx, resp.Records)
			if err != nil {
				return fmt.Errorf("merge page %d: %w", page, err)
			}

			mu.Lock()
			res.PagesMerged++
			res.Inserted += counts.Inserted
			res.Updated += counts.Updated
			mu.Unlock()
			return nil
		})
	}
	res.Err = g.Wait()

	merged := res.Inserted + res.Updated
	if res.Err == nil && merged != meta.TotalRecords {
		log.Info(ctx, "merged record count differs from reported total", "merged", merged, "total_records", meta.TotalRecords)
	}

	if res.Err != nil {
		log.Warn(ctx, "full resync failed", "error", res.Err, "pages_merged", res.PagesMerged, "elapsed", time.Since(start))
	} else {
		log.Info(ctx, "full resync complete", "pages_merged", res.PagesMerged, "inserted", res.Inserted,
			"updated", res.Updated, "elapsed", time.Since(start))
	}
	return res
}

func (s *syncService) backoff() retry.Backoff {
	return retry.WithMaxRetries(uint64(s.opts.Retries), retry.NewExponential(s.opts.RetryBase))
}

// withRetry runs fn, retrying only network failures.
func (s *syncService) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		err := s.timed(ctx, fn)
		if errors.Is(err, common.ErrNetworkFailure) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *syncService) timed(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.opts.FetchTimeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()
	err := fn(tctx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, common.ErrNetworkFailure) {
		err = fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
	}
	return err
}

func (s *syncService) pageCount(ctx context.Context) (models.SearchMetadata, error) {
	var meta models.SearchMetadata
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		meta, err = s.remote.FetchPageCount(ctx)
		return err
	})
	return meta, err
}

func (s *syncService) fetchPage(ctx context.Context, page int) (models.PageResponse, error) {
	var resp models.PageResponse
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		resp, err = s.remote.FetchPage(ctx, page)
		return err
	})
	return resp, err
}

// Reset empties the local store and rewinds pagination.
func (s *syncService) Reset(ctx context.Context) (int, error) {
	n, err := s.store.Reset(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "local store reset", "deleted", n)
	return n, nil
}
