// Package merge reconciles freshly fetched records with the local store by
// natural key.
package merge

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/kidsync/internal/dbx"
	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/dmitrijs2005/kidsync/internal/repositories/records"
)

// RecordRepos vends a record repository bound to a transaction.
type RecordRepos interface {
	Records(db dbx.DBTX) records.Repository
}

// Counts reports what one Upsert did. Duplicates counts incoming records
// dropped because a later record in the same batch had the same key.
type Counts struct {
	Inserted   int
	Updated    int
	Duplicates int
}

// Engine is the single write path for fetched records. Batches are applied
// one at a time so concurrent callers never race on the same new key.
type Engine struct {
	mu    sync.Mutex
	db    dbx.TxBeginner
	repos RecordRepos
	log   logging.Logger
}

func NewEngine(db dbx.TxBeginner, repos RecordRepos, log logging.Logger) *Engine {
	return &Engine{db: db, repos: repos, log: log.With("component", "merge")}
}

// Upsert inserts records whose natural key is new and fully overwrites the
// ones already stored, keeping their internal id. Within the batch the last
// occurrence of a key wins. The batch commits or fails as a whole.
func (e *Engine) Upsert(ctx context.Context, batch []models.Record) (Counts, error) {
	var counts Counts

	unique := e.dedupe(ctx, batch, &counts)
	if len(unique) == 0 {
		return counts, nil
	}

	keys := make([]string, len(unique))
	for i, r := range unique {
		keys[i] = r.NaturalKey
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := e.repos.Records(tx)

		existing, err := repo.IDsByKeys(ctx, keys)
		if err != nil {
			return err
		}

		var toInsert, toUpdate []*models.Record
		for _, r := range unique {
			if id, ok := existing[r.NaturalKey]; ok {
				r.ID = id
				toUpdate = append(toUpdate, r)
			} else {
				r.ID = 0
				toInsert = append(toInsert, r)
			}
		}

		if err := repo.InsertMany(ctx, toInsert); err != nil {
			return err
		}
		if err := repo.UpdateMany(ctx, toUpdate); err != nil {
			return err
		}
		counts.Inserted, counts.Updated = len(toInsert), len(toUpdate)
		return nil
	})
	if err != nil {
		e.log.Error(ctx, "upsert failed", "batch", len(batch), "error", err)
		return Counts{Duplicates: counts.Duplicates}, err
	}

	e.log.Info(ctx, "upsert complete", "inserted", counts.Inserted, "updated", counts.Updated, "duplicates", counts.Duplicates)
	return counts, nil
}

// dedupe copies batch, fills missing keys and keeps the last record per key
// at the position of its first occurrence.
func (e *Engine) dedupe(ctx context.Context, batch []models.Record, counts *Counts) []*models.Record {
	index := make(map[string]int, len(batch))
	out := make([]*models.Record, 0, len(batch))

	for i := range batch {
		r := batch[i]
		r.EnsureKey()
		if r.NaturalKey == "" {
			e.log.Warn(ctx, "record without natural key skipped", "index", i)
			continue
		}
		if at, seen := index[r.NaturalKey]; seen {
			e.log.Warn(ctx, "duplicate natural key in batch, last occurrence wins", "key", r.NaturalKey)
			counts.Duplicates++
			out[at] = &r
			continue
		}
		index[r.NaturalKey] = len(out)
		out = append(out, &r)
	}
	return out
}
