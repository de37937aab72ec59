// Package sqlitestorage implements the zone catalog on a local SQLite file.
// It wraps the GORM backend via composition; the only SQLite-specific
// concerns are opening the file with pragmas and dumping snapshots.
package sqlitestorage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/database"
	gormstorage "github.com/fastwaymarks/overlay/internal/storage/gorm"
)

// Config holds configuration for the SQLite catalog backend.
type Config struct {
	Path string // empty for an in-memory catalog
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg Config
}

// New opens the SQLite catalog.
func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	db, err := database.OpenSqlite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite catalog: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:     db,
			Logger: log.With().Str("catalog", "sqlite").Logger(),
			Source: "sqlite:" + cfg.Path,
		}),
		cfg: cfg,
	}, nil
}

// Dump writes a consistent snapshot of the catalog to path via VACUUM INTO.
func (b *Backend) Dump(path string) error {
	return database.DumpToDisk(b.DB(), path)
}
