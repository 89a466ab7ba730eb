package cli

import (
	"context"
	"database/sql"
	"io"

	"github.com/dmitrijs2005/kidsync/internal/config"
	"github.com/dmitrijs2005/kidsync/internal/enrich"
	"github.com/dmitrijs2005/kidsync/internal/filex"
	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/remote"
	"github.com/dmitrijs2005/kidsync/internal/repositories/repomanager"
	"github.com/dmitrijs2005/kidsync/internal/services"
	"github.com/dmitrijs2005/kidsync/internal/store"
	"github.com/dmitrijs2005/kidsync/internal/worker"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	store   *store.Store
	pool    *worker.Pool
	sync    services.SyncService
	records services.RecordService
	out     io.Writer
}

// newRemote is a seam for tests.
var newRemote = func(c *config.Config, log logging.Logger) (remote.Client, error) {
	return remote.NewHTTPClient(c.BaseURL, c.MissState, c.FetchTimeout, log)
}

func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	if err := preparePaths(c); err != nil {
		return nil, err
	}

	log, err := logging.New(c.LogLevel, c.LogFile)
	if err != nil {
		return nil, err
	}

	rc, err := newRemote(c, log)
	if err != nil {
		return nil, err
	}

	db, repos, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "driver", c.DatabaseDriver, "error", err)
		return nil, err
	}

	st := store.New(db, repos, log)
	pool := worker.NewPool(c.Workers, log)
	en := enrich.New(rc, st, c.FetchTimeout, log)
	opts := services.SyncOptions{
		Parallelism:  c.ResyncParallelism,
		Retries:      c.ResyncRetries,
		FetchTimeout: c.FetchTimeout,
	}

	return &App{
		config:  c,
		log:     log,
		db:      db,
		store:   st,
		pool:    pool,
		sync:    services.NewSyncService(rc, st, en, pool, opts, log),
		records: services.NewRecordService(rc, st, en, pool, c.PageSize, opts, log),
		out:     out,
	}, nil
}

func preparePaths(c *config.Config) error {
	paths := []string{c.LogFile}
	if c.DatabaseDriver == "sqlite" {
		paths = append(paths, filex.SQLiteFile(c.DatabaseDSN))
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := filex.EnsureParentDir(p); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for background jobs and releases the store.
func (a *App) Close() error {
	a.pool.Wait()
	a.store.Close()
	return a.db.Close()
}
