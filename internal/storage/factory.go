// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/config"
	"github.com/fastwaymarks/overlay/internal/storage/memory"
	"github.com/fastwaymarks/overlay/internal/storage/postgres"
	sqlitestorage "github.com/fastwaymarks/overlay/internal/storage/sqlite"
)

// NewCatalog creates a catalog backend based on configuration
func NewCatalog(cfg config.CatalogConfig, log zerolog.Logger) (Catalog, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(postgres.Config{DSN: cfg.DSN}, log)
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{Path: cfg.Path}, log)
	case "memory", "":
		return memory.New(memory.Config{Path: cfg.Path}), nil
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}
}
