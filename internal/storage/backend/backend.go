// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/hongminglow/carecrate/internal/config"
	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/hongminglow/carecrate/internal/storage/memory"
	"github.com/hongminglow/carecrate/internal/storage/postgres"
)

// Open connects the configured backend. Callers own the returned store and must Close it.
func Open(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		store, err := memory.NewStore()
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
