// Package metadata persists small key/value settings such as the pager's
// last requested page.
package metadata

import "context"

type Repository interface {
	// Get returns nil, nil when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
