// Package enrich lazily completes partial records with per-case detail data.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/merge"
	"github.com/dmitrijs2005/kidsync/internal/models"
	"golang.org/x/sync/singleflight"
)

type Outcome int

const (
	// NotFound: no local record has the key; nothing to enrich.
	NotFound Outcome = iota
	// AlreadyEnriched: the record holds detail; no remote call was made.
	AlreadyEnriched
	// NoDetail: the server has no detail for the case; the record is unchanged.
	NoDetail
	// Enriched: detail was fetched and merged.
	Enriched
	// Failed: the local store could not be read or written, or the job never
	// ran. The error says why.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "not_found"
	case AlreadyEnriched:
		return "already_enriched"
	case NoDetail:
		return "no_detail"
	case Enriched:
		return "enriched"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type DetailFetcher interface {
	FetchDetail(ctx context.Context, orgPrefix, caseNumber string) (*models.Detail, error)
}

type Store interface {
	GetByKey(ctx context.Context, key string) (*models.Record, error)
	UpsertMany(ctx context.Context, batch []models.Record) (merge.Counts, error)
}

type Enricher struct {
	remote  DetailFetcher
	store   Store
	timeout time.Duration
	log     logging.Logger
	group   singleflight.Group
}

func New(remote DetailFetcher, store Store, timeout time.Duration, log logging.Logger) *Enricher {
	return &Enricher{remote: remote, store: store, timeout: timeout, log: log.With("component", "enrich")}
}

// Enrich fetches and overlays detail for key unless the record already has
// it. Concurrent calls for the same key share one remote fetch.
func (e *Enricher) Enrich(ctx context.Context, key string) (Outcome, error) {
	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.enrich(ctx, key)
	})
	return v.(Outcome), err
}

func (e *Enricher) enrich(ctx context.Context, key string) (Outcome, error) {
	rec, err := e.store.GetByKey(ctx, key)
	if err != nil {
		return Failed, fmt.Errorf("load record[%s]: %w", key, err)
	}
	if rec == nil {
		e.log.Info(ctx, "nothing to enrich", "key", key)
		return NotFound, nil
	}
	if rec.HasDetail {
		return AlreadyEnriched, nil
	}

	fctx, cancel := ctx, context.CancelFunc(func() {})
	if e.timeout > 0 {
		fctx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	detail, err := e.remote.FetchDetail(fctx, rec.OrgPrefix, rec.CaseNumber)
	cancel()
	if err != nil {
		e.log.Warn(ctx, "detail fetch failed", "key", key, "error", err)
		return NoDetail, fmt.Errorf("fetch detail[%s]: %w", key, err)
	}
	if detail == nil {
		e.log.Info(ctx, "no detail available", "key", key)
		return NoDetail, nil
	}

	models.ApplyDetail(rec, *detail)
	if _, err := e.store.UpsertMany(ctx, []models.Record{*rec}); err != nil {
		return Failed, fmt.Errorf("store detail[%s]: %w", key, err)
	}
	e.log.Debug(ctx, "record enriched", "key", key)
	return Enriched, nil
}
