package zoneinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastwaymarks/overlay/pkg/core"
)

func TestMapInfo_PixelRoundTrip(t *testing.T) {
	m := MapInfo{SizeFactor: 400, OffsetX: -100, OffsetY: -100}

	px := m.GetPixelCoordinates(core.Position2D{X: 100, Y: 100})
	assert.InDelta(t, 1024, px.X, 1e-9)
	assert.InDelta(t, 1024, px.Y, 1e-9)

	px = m.GetPixelCoordinates(core.Position2D{X: 110, Y: 90})
	assert.InDelta(t, 1064, px.X, 1e-9)
	assert.InDelta(t, 984, px.Y, 1e-9)

	back := m.GetMapCoordinates(px)
	assert.InDelta(t, 110, back.X, 1e-9)
	assert.InDelta(t, 90, back.Y, 1e-9)
}

func TestMapInfo_ZeroSizeFactor(t *testing.T) {
	m := MapInfo{}
	px := m.GetPixelCoordinates(core.Position2D{X: 1, Y: 2})
	assert.Equal(t, core.Position2D{X: 1025, Y: 1026}, px)
}

func TestDefaultPaths(t *testing.T) {
	img, parch := DefaultPaths("s1d1/00")
	assert.Equal(t, "ui/map/s1d1/00/s1d100_m.tex", img)
	assert.Equal(t, "ui/map/s1d1/00/s1d100m_m.tex", parch)

	img, parch = DefaultPaths("")
	assert.Empty(t, img)
	assert.Empty(t, parch)
}

func TestMapInfo_HasParchment(t *testing.T) {
	assert.False(t, MapInfo{}.HasParchment())
	assert.True(t, MapInfo{ParchmentPath: "x"}.HasParchment())
}

func TestSubMapName(t *testing.T) {
	assert.Equal(t, "The Gilded Hall", SubMapName(MapInfo{PlaceNameSub: "The Gilded Hall"}, 0))
	assert.Equal(t, "Unnamed Sub-map 1", SubMapName(MapInfo{}, 0))
	assert.Equal(t, "Unnamed Sub-map 3", SubMapName(MapInfo{PlaceNameSub: "   "}, 2))
}
