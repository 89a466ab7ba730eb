package services

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/kidsync/internal/enrich"
	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/dmitrijs2005/kidsync/internal/observable"
	"github.com/dmitrijs2005/kidsync/internal/pager"
	"github.com/dmitrijs2005/kidsync/internal/remote"
	"github.com/dmitrijs2005/kidsync/internal/store"
	"github.com/dmitrijs2005/kidsync/internal/worker"
)

// RecordService exposes cached records to a UI layer.
//
// Contract:
//   - Search: a paged list over all records whose boundary callback is a
//     fresh pager, plus that pager's network state.
//   - Watch: a stream of one record, re-emitted on every change; the first
//     call starts detail enrichment in the background.
//   - Get / FindByName: plain lookups.
type RecordService interface {
	Search(ctx context.Context) (*SearchResult, error)
	Watch(ctx context.Context, key string) (<-chan models.Record, func())
	Get(ctx context.Context, key string) (*models.Record, error)
	FindByName(ctx context.Context, name string) ([]models.Record, error)
}

// SearchResult bundles what a list screen observes.
type SearchResult struct {
	List         *store.PagedList
	NetworkState *observable.Value[models.NetworkState]
	Pager        *pager.Pager
}

// Close stops the list from following the store.
func (r *SearchResult) Close() {
	r.List.Close()
}

type recordService struct {
	remote   remote.Client
	store    *store.Store
	enricher *enrich.Enricher
	pool     *worker.Pool
	pageSize int
	opts     SyncOptions
	log      logging.Logger
}

func NewRecordService(rc remote.Client, st *store.Store, en *enrich.Enricher, pool *worker.Pool, pageSize int, opts SyncOptions, log logging.Logger) RecordService {
	return &recordService{
		remote: rc, store: st, enricher: en, pool: pool,
		pageSize: pageSize, opts: opts,
		log: log.With("component", "records"),
	}
}

// Search builds a new pager and list and loads the first window. An empty
// store makes the pager fetch the first remote page right away.
func (s *recordService) Search(ctx context.Context) (*SearchResult, error) {
	p := pager.New(ctx, s.remote, s.store, s.pool, s.opts.FetchTimeout, s.log)
	list := s.store.NewPagedList(ctx, s.pageSize, p)
	if err := list.Load(ctx); err != nil {
		list.Close()
		return nil, err
	}
	return &SearchResult{List: list, NetworkState: p.NetworkState(), Pager: p}, nil
}

func (s *recordService) Get(ctx context.Context, key string) (*models.Record, error) {
	return s.store.GetByKey(ctx, key)
}

func (s *recordService) FindByName(ctx context.Context, name string) ([]models.Record, error) {
	return s.store.FindByName(ctx, name)
}

// Watch emits the record stored under key, then again after every change
// that touches it. Nothing is emitted while the key is absent. The channel
// closes when ctx ends or the returned cancel is called.
func (s *recordService) Watch(ctx context.Context, key string) (<-chan models.Record, func()) {
	out := make(chan models.Record, 4)
	changes, unsubscribe := s.store.Subscribe(16)
	ctx, cancel := context.WithCancel(ctx)

	emit := func() bool {
		rec, err := s.store.GetByKey(ctx, key)
		if err != nil {
			s.log.Warn(ctx, "watch lookup failed", "key", key, "error", err)
			return true
		}
		if rec == nil {
			return true
		}
		select {
		case out <- *rec:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(out)
		defer unsubscribe()

		if !emit() {
			return
		}
		s.pool.Submit(ctx, func(ctx context.Context) {
			if _, err := s.enricher.Enrich(ctx, key); err != nil {
				s.log.Warn(ctx, "background enrichment failed", "key", key, "error", err)
			}
		})

		for {
			select {
			case <-ctx.Done():
				return
			case ch, ok := <-changes:
				if !ok {
					return
				}
				if ch.Reset || slices.Contains(ch.Keys, key) {
					if !emit() {
						return
					}
				}
			}
		}
	}()

	return out, cancel
}
