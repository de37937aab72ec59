package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastwaymarks/overlay/internal/zoneinfo"
)

func arena() zoneinfo.Territory {
	return zoneinfo.Territory{
		ID:        1000,
		ContentID: 55,
		Name:      "Arena",
		Maps: []zoneinfo.MapInfo{
			{MapID: 1, Key: "a/00", SizeFactor: 400, ImagePath: "a.png"},
			{MapID: 2, Key: "a/01", SizeFactor: 200, ImagePath: "b.png", PlaceNameSub: "Lower"},
		},
	}
}

func TestCatalog_Lookups(t *testing.T) {
	c := New(Config{})
	require.NoError(t, c.Init())
	require.NoError(t, c.PutTerritory(arena()))

	assert.Equal(t, uint32(55), c.ContentIDForTerritory(1000))
	assert.Equal(t, uint32(1000), c.TerritoryForContent(55))
	assert.Equal(t, uint32(0), c.TerritoryForContent(0))
	assert.Equal(t, uint32(0), c.ContentIDForTerritory(1))

	maps := c.MapInfos(1000)
	require.Len(t, maps, 2)
	assert.Equal(t, uint32(1000), maps[1].TerritoryID)
	assert.Nil(t, c.MapInfos(1))
}

func TestCatalog_MapInfosReturnsCopy(t *testing.T) {
	c := New(Config{})
	require.NoError(t, c.PutTerritory(arena()))

	maps := c.MapInfos(1000)
	maps[0].SizeFactor = 1

	assert.Equal(t, 400.0, c.MapInfos(1000)[0].SizeFactor)
}

func TestCatalog_ReplaceMovesContentIndex(t *testing.T) {
	c := New(Config{})
	require.NoError(t, c.PutTerritory(arena()))

	moved := arena()
	moved.ContentID = 66
	require.NoError(t, c.PutTerritory(moved))

	assert.Equal(t, uint32(0), c.TerritoryForContent(55))
	assert.Equal(t, uint32(1000), c.TerritoryForContent(66))
	assert.Len(t, c.Territories(), 1)
}

func TestCatalog_RejectsZeroID(t *testing.T) {
	c := New(Config{})
	assert.ErrorIs(t, c.PutTerritory(zoneinfo.Territory{Name: "nowhere"}), ErrInvalidTerritory)
}

func TestCatalog_FileRoundTrip(t *testing.T) {
	for _, name := range []string{"zones.json", "zones.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			src := New(Config{})
			require.NoError(t, src.PutTerritory(arena()))
			require.NoError(t, src.PutTerritory(zoneinfo.Territory{ID: 7, Name: "Overworld"}))
			require.NoError(t, src.WriteFile(path))

			dst := New(Config{Path: path})
			require.NoError(t, dst.Init())

			assert.Equal(t, src.Territories(), dst.Territories())
		})
	}
}

func TestCatalog_InitMissingSeed(t *testing.T) {
	c := New(Config{Path: filepath.Join(t.TempDir(), "absent.json")})
	assert.NoError(t, c.Init())
	assert.Empty(t, c.Territories())
}

func TestCatalog_InitBadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0644))

	assert.Error(t, New(Config{Path: path}).Init())
}
