// Package store is the local store facade: record lookups, the merge write
// path, a change feed and paged, observable lists over the cached records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/kidsync/internal/dbx"
	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/merge"
	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/dmitrijs2005/kidsync/internal/observable"
	"github.com/dmitrijs2005/kidsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/kidsync/internal/repositories/records"
)

// KeyLastRequestedPage is the metadata key holding the pager position.
const KeyLastRequestedPage = "last_requested_page"

type Repos interface {
	Records(db dbx.DBTX) records.Repository
	Metadata(db dbx.DBTX) metadata.Repository
}

// Change describes a committed write. Reset is set after DeleteAll.
type Change struct {
	Keys  []string
	Reset bool
}

type Store struct {
	db      *sql.DB
	repos   Repos
	engine  *merge.Engine
	changes *observable.Value[Change]
	log     logging.Logger
}

func New(db *sql.DB, repos Repos, log logging.Logger) *Store {
	return &Store{
		db:      db,
		repos:   repos,
		engine:  merge.NewEngine(db, repos, log),
		changes: observable.New(Change{}),
		log:     log.With("component", "store"),
	}
}

func (s *Store) records() records.Repository {
	return s.repos.Records(s.db)
}

// GetByKey returns nil, nil when the key is not stored.
func (s *Store) GetByKey(ctx context.Context, key string) (*models.Record, error) {
	return s.records().GetByKey(ctx, key)
}

func (s *Store) FindByName(ctx context.Context, name string) ([]models.Record, error) {
	return s.records().FindByName(ctx, name)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.records().Count(ctx)
}

func (s *Store) List(ctx context.Context, offset, limit int) ([]models.Record, error) {
	return s.records().List(ctx, offset, limit)
}

// UpsertMany merges batch by natural key and announces the touched keys.
func (s *Store) UpsertMany(ctx context.Context, batch []models.Record) (merge.Counts, error) {
	counts, err := s.engine.Upsert(ctx, batch)
	if err != nil {
		return counts, err
	}
	if counts.Inserted+counts.Updated > 0 {
		keys := make([]string, 0, len(batch))
		for i := range batch {
			k := batch[i].NaturalKey
			if k == "" {
				k = models.NaturalKey(batch[i].OrgPrefix, batch[i].CaseNumber)
			}
			keys = append(keys, k)
		}
		s.changes.Set(Change{Keys: keys})
	}
	return counts, nil
}

// DeleteAll removes every record and returns how many were deleted.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	n, err := s.records().DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.changes.Set(Change{Reset: true})
	return n, nil
}

// Reset deletes every record and rewinds the pager position to page 1 in
// one transaction.
func (s *Store) Reset(ctx context.Context) (int, error) {
	var n int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if n, err = s.repos.Records(tx).DeleteAll(ctx); err != nil {
			return err
		}
		return s.repos.Metadata(tx).Set(ctx, KeyLastRequestedPage, []byte("1"))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reset store: %w", err)
	}
	s.changes.Set(Change{Reset: true})
	return n, nil
}

// Subscribe returns the change feed. Changes are dropped for a subscriber
// whose buffer is full.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	return s.changes.Subscribe(buffer)
}

// LastRequestedPage returns the persisted pager position, 1 when unset.
func (s *Store) LastRequestedPage(ctx context.Context) (int, error) {
	v, err := s.repos.Metadata(s.db).Get(ctx, KeyLastRequestedPage)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 1, nil
	}
	n, err := strconv.Atoi(string(v))
	if err != nil || n < 1 {
		s.log.Warn(ctx, "invalid stored page, starting over", "value", string(v))
		return 1, nil
	}
	return n, nil
}

func (s *Store) SetLastRequestedPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("invalid page %d", page)
	}
	return s.repos.Metadata(s.db).Set(ctx, KeyLastRequestedPage, []byte(strconv.Itoa(page)))
}

// Close detaches every change subscriber.
func (s *Store) Close() {
	s.changes.Close()
}
