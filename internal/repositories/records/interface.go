// Package records persists missing-child records keyed by natural key.
package records

import (
	"context"

	"github.com/dmitrijs2005/kidsync/internal/models"
)

type Repository interface {
	// GetByKey returns nil, nil when no record has the key.
	GetByKey(ctx context.Context, key string) (*models.Record, error)
	// IDsByKeys maps each stored key among keys to its internal id.
	IDsByKeys(ctx context.Context, keys []string) (map[string]int64, error)
	// InsertMany inserts records and sets their ID fields.
	InsertMany(ctx context.Context, recs []*models.Record) error
	// UpdateMany overwrites records by ID. Every ID must exist.
	UpdateMany(ctx context.Context, recs []*models.Record) error
	// List returns records ordered by id (insertion order).
	List(ctx context.Context, offset, limit int) ([]models.Record, error)
	FindByName(ctx context.Context, name string) ([]models.Record, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}
