// Package repomanager opens the local store, runs the embedded goose
// migrations and vends repositories bound to a DBTX.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/kidsync/internal/common"
	"github.com/dmitrijs2005/kidsync/internal/dbx"
	"github.com/dmitrijs2005/kidsync/internal/migrations"
	"github.com/dmitrijs2005/kidsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/kidsync/internal/repositories/records"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(ctx context.Context, db *sql.DB) error
	Records(db dbx.DBTX) records.Repository
	Metadata(db dbx.DBTX) metadata.Repository
}

type driverInfo struct {
	sqlDriver    string
	gooseDialect string
	fs           fs.FS
	dir          string
}

var drivers = map[dbx.Dialect]driverInfo{
	dbx.DialectSQLite:   {sqlDriver: "sqlite", gooseDialect: "sqlite3", fs: migrations.SQLite, dir: "sqlite"},
	dbx.DialectPostgres: {sqlDriver: "pgx", gooseDialect: "pgx", fs: migrations.Postgres, dir: "postgres"},
}

// SQLRepositoryManager vends sqlite or postgres repositories.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
	info    driverInfo
}

var _ RepositoryManager = (*SQLRepositoryManager)(nil)

func NewRepositoryManager(dialect dbx.Dialect) (*SQLRepositoryManager, error) {
	info, ok := drivers[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedDriver, dialect)
	}
	return &SQLRepositoryManager{dialect: dialect, info: info}, nil
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

func (m *SQLRepositoryManager) Records(db dbx.DBTX) records.Repository {
	return records.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations of the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(m.info.fs)
	if err := goose.SetDialect(m.info.gooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, m.info.dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// Open connects to the store named by driver ("sqlite" or "postgres") and
// dsn and brings its schema up to date. sqlite is limited to one connection
// so writers queue instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	m, err := NewRepositoryManager(dbx.Dialect(driver))
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(m.info.sqlDriver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if m.dialect == dbx.DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, m, nil
}
