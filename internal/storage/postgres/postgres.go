// Package postgres implements the zone catalog on a shared PostgreSQL database.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/database"
	gormstorage "github.com/fastwaymarks/overlay/internal/storage/gorm"
)

// Config holds configuration for the Postgres catalog backend.
type Config struct {
	DSN string
}

// Backend wraps the GORM backend.
type Backend struct {
	*gormstorage.Backend
}

// New connects to the Postgres catalog.
func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres catalog needs a dsn")
	}
	db, err := database.OpenPostgres(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres catalog: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:     db,
			Logger: log.With().Str("catalog", "postgres").Logger(),
			Source: "postgres",
		}),
	}, nil
}
