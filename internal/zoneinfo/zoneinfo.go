// Package zoneinfo describes zone map metadata: which map tiles belong to a
// territory and how world coordinates project onto them.
package zoneinfo

import (
	"fmt"
	"path"
	"strings"

	"github.com/fastwaymarks/overlay/pkg/core"
)

// TextureSize is the edge length in pixels of a zone map texture.
const TextureSize = 2048.0

// MapInfo is one sub-map of a territory.
type MapInfo struct {
	MapID         uint32  `json:"mapId"`
	TerritoryID   uint32  `json:"territoryId"`
	Key           string  `json:"key"` // host map key, e.g. "s1d1/00"
	SizeFactor    float64 `json:"sizeFactor"`
	OffsetX       float64 `json:"offsetX"`
	OffsetY       float64 `json:"offsetY"`
	PlaceNameSub  string  `json:"placeNameSub,omitempty"`
	ImagePath     string  `json:"imagePath"`
	ParchmentPath string  `json:"parchmentPath,omitempty"` // empty when the map has no parchment overlay
}

// HasParchment reports whether a parchment overlay should be blended in.
func (m MapInfo) HasParchment() bool {
	return m.ParchmentPath != ""
}

func (m MapInfo) scale() float64 {
	if m.SizeFactor == 0 {
		return 1
	}
	return m.SizeFactor / 100
}

// GetPixelCoordinates projects a world ground-plane point (X, Z) onto map
// texture pixels.
func (m MapInfo) GetPixelCoordinates(world core.Position2D) core.Position2D {
	s := m.scale()
	return core.Position2D{
		X: (world.X+m.OffsetX)*s + TextureSize/2,
		Y: (world.Y+m.OffsetY)*s + TextureSize/2,
	}
}

// GetMapCoordinates is the inverse of GetPixelCoordinates.
func (m MapInfo) GetMapCoordinates(pixel core.Position2D) core.Position2D {
	s := m.scale()
	return core.Position2D{
		X: (pixel.X-TextureSize/2)/s - m.OffsetX,
		Y: (pixel.Y-TextureSize/2)/s - m.OffsetY,
	}
}

// DefaultPaths derives the standard base and parchment texture paths for a map
// key such as "s1d1/00".
func DefaultPaths(key string) (image, parchment string) {
	key = strings.Trim(key, "/")
	if key == "" {
		return "", ""
	}
	flat := strings.ReplaceAll(key, "/", "")
	dir := path.Join("ui/map", key)
	return path.Join(dir, flat+"_m.tex"), path.Join(dir, flat+"m_m.tex")
}

// Resolver looks up zone metadata. Implementations are read-only catalogs.
type Resolver interface {
	ContentIDForTerritory(territoryID uint32) uint32
	TerritoryForContent(contentID uint32) uint32
	MapInfos(territoryID uint32) []MapInfo
}

// Territory is a zone and its sub-maps in display order.
type Territory struct {
	ID        uint32    `json:"id"`
	ContentID uint32    `json:"contentId"`
	Name      string    `json:"name"`
	Maps      []MapInfo `json:"maps"`
}

// SubMapName returns the display name of sub-map i, falling back to a
// numbered placeholder when the map has no place name.
func SubMapName(m MapInfo, i int) string {
	if name := strings.TrimSpace(m.PlaceNameSub); name != "" {
		return m.PlaceNameSub
	}
	return fmt.Sprintf("Unnamed Sub-map %d", i+1)
}
