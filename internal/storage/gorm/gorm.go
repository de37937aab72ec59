// Package gormstorage implements a zone catalog on top of GORM. Reads are
// served from an in-memory copy loaded at Init; writes go to the database
// first and then to the copy.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fastwaymarks/overlay/internal/database"
	"github.com/fastwaymarks/overlay/internal/model"
	"github.com/fastwaymarks/overlay/internal/model/convert"
	"github.com/fastwaymarks/overlay/internal/storage/memory"
	"github.com/fastwaymarks/overlay/internal/zoneinfo"
)

// Dependencies holds all dependencies for the GORM catalog backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
	Source string // recorded in catalog_infos on first migration
}

// Backend implements a catalog with GORM.
type Backend struct {
	*memory.Catalog
	deps Dependencies
}

// New creates a new GORM catalog backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		Catalog: memory.New(memory.Config{}),
		deps:    deps,
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and loads every territory into memory.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm catalog has no database")
	}
	if err := database.Migrate(b.deps.DB, b.deps.Source, b.deps.Logger); err != nil {
		return err
	}

	var rows []model.Territory
	if err := b.deps.DB.Preload("Maps").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load territories: %w", err)
	}
	for _, row := range rows {
		if err := b.Catalog.PutTerritory(convert.TerritoryToZoneInfo(row)); err != nil {
			return fmt.Errorf("territory %d: %w", row.ID, err)
		}
	}
	b.deps.Logger.Info().Int("territories", len(rows)).Msg("Zone catalog loaded")
	return nil
}

// PutTerritory replaces t and its sub-maps in one transaction.
func (b *Backend) PutTerritory(t zoneinfo.Territory) error {
	if t.ID == 0 {
		return memory.ErrInvalidTerritory
	}
	row := convert.TerritoryToGorm(t)
	maps := row.Maps
	row.Maps = nil

	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("territory_id = ?", row.ID).Delete(&model.MapRecord{}).Error; err != nil {
			return err
		}
		if len(maps) == 0 {
			return nil
		}
		return tx.Create(&maps).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store territory %d: %w", t.ID, err)
	}
	return b.Catalog.PutTerritory(t)
}

// Close closes the database connection.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
