package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&CatalogInfo{},
	&Territory{},
	&MapRecord{},
}

// CatalogInfo describes where the zone catalog came from
type CatalogInfo struct {
	gorm.Model
	Source  string `json:"source" gorm:"size:255"`
	Version string `json:"version" gorm:"size:64"`
}

// Territory is one zone of the host game
type Territory struct {
	ID        uint32      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ContentID uint32      `json:"contentId" gorm:"index:idx_territory_content_id"`
	Name      string      `json:"name" gorm:"size:127"`
	Maps      []MapRecord `json:"maps" gorm:"foreignKey:TerritoryID;constraint:OnDelete:CASCADE"`
}

func (*Territory) TableName() string {
	return "territories"
}

// MapRecord is one sub-map of a territory. File paths are stored as a JSON
// document so new texture variants do not need a migration.
type MapRecord struct {
	ID           uint32         `json:"id" gorm:"primaryKey;autoIncrement:false"` // host map id
	TerritoryID  uint32         `json:"territoryId" gorm:"index:idx_map_territory_id"`
	SortOrder    int            `json:"sortOrder"`
	Key          string         `json:"key" gorm:"size:64"`
	SizeFactor   float64        `json:"sizeFactor"`
	OffsetX      float64        `json:"offsetX"`
	OffsetY      float64        `json:"offsetY"`
	PlaceNameSub string         `json:"placeNameSub" gorm:"size:127"`
	Paths        datatypes.JSON `json:"paths"`
}

func (*MapRecord) TableName() string {
	return "maps"
}

// MapPaths is the document stored in MapRecord.Paths
type MapPaths struct {
	Image     string `json:"image"`
	Parchment string `json:"parchment,omitempty"`
}
