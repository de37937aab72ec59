package overlay

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastwaymarks/overlay/internal/config"
	"github.com/fastwaymarks/overlay/internal/dispatcher"
	"github.com/fastwaymarks/overlay/internal/geometry"
	"github.com/fastwaymarks/overlay/internal/height"
	"github.com/fastwaymarks/overlay/internal/host"
	"github.com/fastwaymarks/overlay/internal/logging"
	"github.com/fastwaymarks/overlay/internal/mapview"
	"github.com/fastwaymarks/overlay/internal/storage/memory"
	"github.com/fastwaymarks/overlay/internal/tiles"
	"github.com/fastwaymarks/overlay/internal/viewstate"
	"github.com/fastwaymarks/overlay/internal/zoneinfo"
	"github.com/fastwaymarks/overlay/pkg/core"
)

const (
	arenaTerritory   = 1000
	arenaContent     = 55
	emptyTerritory   = 2000
	emptyContent     = 66
	unknownTerritory = 3000
)

type fakeHost struct {
	markers   core.MarkerSet
	readErr   error
	written   []core.HostPlacement
	writeErr  error
	player    *core.Position3D
	combat    bool
	link      uint8
	territory uint32
}

func (h *fakeHost) ReadCurrentMarkers() (core.MarkerSet, error) { return h.markers, h.readErr }

func (h *fakeHost) WriteMarkers(p core.HostPlacement) error {
	if h.writeErr != nil {
		return h.writeErr
	}
	h.written = append(h.written, p)
	return nil
}

func (h *fakeHost) LocalPlayer() (core.Position3D, bool) {
	if h.player == nil {
		return core.Position3D{}, false
	}
	return *h.player, true
}

func (h *fakeHost) InCombat() bool         { return h.combat }
func (h *fakeHost) ContentLinkType() uint8 { return h.link }
func (h *fakeHost) TerritoryType() uint32  { return h.territory }

// flatGround reports terrain at y=Y everywhere except x >= HoleFrom.
type flatGround struct {
	Y        float64
	HoleFrom *float64
}

func (g flatGround) Raycast(origin, _ core.Position3D) (height.Hit, bool) {
	if g.HoleFrom != nil && origin.X >= *g.HoleFrom {
		return height.Hit{}, false
	}
	return height.Hit{
		Point:    core.Position3D{X: origin.X, Y: g.Y, Z: origin.Z},
		Distance: origin.Y - g.Y,
	}, true
}

func testCatalog(t *testing.T) *memory.Catalog {
	t.Helper()
	c := memory.New(memory.Config{})
	require.NoError(t, c.Init())
	require.NoError(t, c.PutTerritory(zoneinfo.Territory{
		ID: arenaTerritory, ContentID: arenaContent, Name: "Arena",
		Maps: []zoneinfo.MapInfo{
			{MapID: 1, TerritoryID: arenaTerritory, SizeFactor: 100, ImagePath: "arena/a.png"},
			{MapID: 2, TerritoryID: arenaTerritory, SizeFactor: 400, ImagePath: "arena/b.png", PlaceNameSub: "Upper Deck"},
		},
	}))
	require.NoError(t, c.PutTerritory(zoneinfo.Territory{
		ID: emptyTerritory, ContentID: emptyContent, Name: "Mapless",
		Maps: []zoneinfo.MapInfo{{MapID: 3, TerritoryID: emptyTerritory, SizeFactor: 100, ImagePath: "missing.png"}},
	}))
	return c
}

func testSource() *tiles.MemorySource {
	src := tiles.NewMemorySource()
	for _, p := range []string{"arena/a.png", "arena/b.png"} {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		img.SetRGBA(0, 0, color.RGBA{R: 200, A: 255})
		src.Put(p, img)
	}
	return src
}

func testSettings() config.Settings {
	return config.Settings{
		Shape:           int(geometry.Circle),
		Order:           int(geometry.Proper),
		WaymarksRadius:  10,
		WaymarksRadiusB: 5,
	}
}

func newTestService(t *testing.T, h *fakeHost, configDir string) *Service {
	t.Helper()
	if h.link == 0 && h.territory == 0 {
		h.link, h.territory = 1, arenaTerritory
	}
	s, err := NewService(Dependencies{
		Host: host.Context{
			Host:      h,
			Resolver:  testCatalog(t),
			Raycaster: flatGround{Y: 5},
			Logger:    zerolog.Nop(),
		},
		Tiles:     testSource(),
		ConfigDir: configDir,
	}, nil, testSettings())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Dispose() })
	return s
}

func TestNewService_NeedsHost(t *testing.T) {
	_, err := NewService(Dependencies{}, nil, config.Settings{})
	assert.Error(t, err)
}

func TestNewService_ResetsInvalidViewState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, viewstate.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"1":{"SubMapViewData":"nope"}}`), 0o644))

	s := newTestService(t, &fakeHost{}, dir)
	assert.Contains(t, s.Notices(), "Saved map views could not be read and were reset.")
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	again := newTestService(t, &fakeHost{}, dir)
	assert.Empty(t, again.Notices())
}

func TestOpen_PreparesPreview(t *testing.T) {
	s := newTestService(t, &fakeHost{}, "")

	require.NoError(t, s.Open())
	p := s.Preset()
	require.NotNil(t, p)
	assert.Equal(t, uint32(arenaContent), p.MapID)

	for slot, w := range p.Markers() {
		assert.True(t, w.Active, "slot %d", slot)
		assert.Zero(t, w.Position.Y)
	}
	// Proper order puts slot A at conceptual index 0, straight north
	a, err := p.Marker(0)
	require.NoError(t, err)
	assert.InDelta(t, 0, a.Position.X, 1e-9)
	assert.InDelta(t, -10, a.Position.Z, 1e-9)
}

func TestOpen_UnreadableMarkers(t *testing.T) {
	s := newTestService(t, &fakeHost{link: 4, territory: arenaTerritory}, "")

	err := s.Open()
	assert.ErrorIs(t, err, host.ErrUnavailable)
	assert.Nil(t, s.Preset())
	assert.Equal(t, StatusNoPreset, s.MapFrame(mapview.Viewport{Size: 100}, nil).Status)

	h := &fakeHost{readErr: errors.New("no access")}
	s = newTestService(t, h, "")
	assert.Error(t, s.Reload())
	assert.Nil(t, s.Preset())
}

func TestPlace_TerrainFollowing(t *testing.T) {
	h := &fakeHost{player: &core.Position3D{X: 1, Y: 3, Z: 1}}
	s := newTestService(t, h, "")
	require.NoError(t, s.Open())

	res, err := s.Place()
	require.NoError(t, err)
	require.Len(t, h.written, 1)

	assert.Equal(t, uint8(0xFF), res.Placement.ActiveMarkers)
	assert.Equal(t, uint32(arenaContent), res.Placement.ContentID)
	for _, pos := range res.Placement.Positions {
		assert.Equal(t, 5.0, pos.Y)
	}
	// preview restored
	for _, w := range s.Preset().Markers() {
		assert.Zero(t, w.Position.Y)
		assert.True(t, w.Active)
	}
}

func TestPlace_FixedHeight(t *testing.T) {
	h := &fakeHost{player: &core.Position3D{}}
	s := newTestService(t, h, "")
	require.NoError(t, s.Open())

	next := s.Settings()
	next.DisplayWaymarkY = true
	next.WaymarksCenterY = 42
	require.NoError(t, s.SetSettings(next))

	res, err := s.Place()
	require.NoError(t, err)
	for _, pos := range res.Placement.Positions {
		assert.Equal(t, 42.0, pos.Y)
	}
}

func TestPlace_MissingGroundLeavesSlotsInactive(t *testing.T) {
	hole := 0.5
	h := &fakeHost{player: &core.Position3D{}, link: 2, territory: arenaTerritory}
	s, err := NewService(Dependencies{
		Host: host.Context{
			Host:      h,
			Resolver:  testCatalog(t),
			Raycaster: flatGround{Y: 0, HoleFrom: &hole},
			Logger:    zerolog.Nop(),
		},
	}, nil, testSettings())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Dispose() })
	require.NoError(t, s.Open())

	res, err := s.Place()
	require.NoError(t, err)
	// three of the eight circle points have x > 0.5
	assert.Equal(t, 3, res.Inactive)
	for i := 0; i < core.SlotCount; i++ {
		pos := res.Placement.Positions[i]
		assert.Equal(t, pos.X < hole, res.Placement.IsActive(i), "slot %d", i)
	}
	assert.NotEmpty(t, s.Notices())
}

func TestPlace_Unsafe(t *testing.T) {
	h := &fakeHost{player: &core.Position3D{}, combat: true, link: 1, territory: arenaTerritory}
	s := newTestService(t, h, "")
	require.NoError(t, s.Open())

	_, err := s.Place()
	assert.ErrorIs(t, err, ErrUnsafe)
	assert.Empty(t, h.written)
	for _, w := range s.Preset().Markers() {
		assert.Zero(t, w.Position.Y)
	}
}

func TestPlace_NoPresetAndWriteFailure(t *testing.T) {
	h := &fakeHost{player: &core.Position3D{}}
	s := newTestService(t, h, "")

	_, err := s.Place()
	assert.ErrorIs(t, err, ErrNoPreset)

	require.NoError(t, s.Open())
	h.writeErr = host.ErrUnavailable
	_, err = s.Place()
	assert.ErrorIs(t, err, host.ErrUnavailable)
}

func TestCenterOnPlayerAndArena(t *testing.T) {
	h := &fakeHost{}
	s := newTestService(t, h, "")
	require.NoError(t, s.Open())

	assert.ErrorIs(t, s.CenterOnPlayer(), ErrNoPlayer)
	assert.ErrorIs(t, s.CenterToArena(), ErrNoPlayer)

	h.player = &core.Position3D{X: 30, Y: 2, Z: 40}
	require.NoError(t, s.CenterOnPlayer())
	got := s.Settings()
	assert.Equal(t, [3]float64{30, 2, 40}, [3]float64{got.WaymarksCenterX, got.WaymarksCenterY, got.WaymarksCenterZ})

	require.NoError(t, s.CenterToArena())
	got = s.Settings()
	assert.Equal(t, [3]float64{0, 2, 0}, [3]float64{got.WaymarksCenterX, got.WaymarksCenterY, got.WaymarksCenterZ})

	h.player = &core.Position3D{X: 30, Y: -1, Z: 60}
	require.NoError(t, s.CenterToArena())
	got = s.Settings()
	assert.Equal(t, [3]float64{100, -1, 100}, [3]float64{got.WaymarksCenterX, got.WaymarksCenterY, got.WaymarksCenterZ})

	// preview follows on the next update
	s.Update()
	a, _ := s.Preset().Marker(0)
	assert.InDelta(t, 100, a.Position.X, 1e-9)
	assert.InDelta(t, 90, a.Position.Z, 1e-9)
}

func TestArenaCenter(t *testing.T) {
	tests := []struct {
		p    core.Position3D
		x, z float64
	}{
		{core.Position3D{X: 10, Z: 10}, 0, 0},
		{core.Position3D{X: 49.9, Z: -200}, 0, 0},
		{core.Position3D{X: 50, Z: 10}, 100, 100},
		{core.Position3D{X: 10, Z: 50}, 100, 100},
	}
	for _, tt := range tests {
		x, z := ArenaCenter(tt.p)
		assert.Equal(t, tt.x, x)
		assert.Equal(t, tt.z, z)
	}
}

func TestUpdate_AutoCenterWaitsForPlayer(t *testing.T) {
	h := &fakeHost{}
	s := newTestService(t, h, "")
	require.NoError(t, s.Open())
	next := s.Settings()
	next.AutoCenterOnLoad = true
	require.NoError(t, s.SetSettings(next))

	s.OnTerritoryChanged(emptyTerritory)
	assert.Equal(t, uint32(emptyContent), s.Preset().MapID)

	s.Update()
	assert.True(t, s.Session().PeekZoneChanged(), "kept until a player exists")

	h.player = &core.Position3D{X: 120, Y: 7, Z: 130}
	s.Update()
	assert.False(t, s.Session().PeekZoneChanged())
	assert.Equal(t, 100.0, s.Settings().WaymarksCenterX)
	assert.Equal(t, 7.0, s.Settings().WaymarksCenterY)
}

func TestUpdate_ZoneChangeWithoutAutoCenter(t *testing.T) {
	h := &fakeHost{player: &core.Position3D{X: 120, Z: 130}}
	s := newTestService(t, h, "")

	s.OnTerritoryChanged(emptyTerritory)
	s.Update()

	assert.False(t, s.Session().PeekZoneChanged())
	assert.Zero(t, s.Settings().WaymarksCenterX)
}

func TestMapFrame_Statuses(t *testing.T) {
	h := &fakeHost{}
	s := newTestService(t, h, "")
	vp := mapview.Viewport{Size: 100}

	assert.Equal(t, StatusNoPreset, s.MapFrame(vp, nil).Status)

	h.territory = unknownTerritory
	require.NoError(t, s.Open())
	assert.Equal(t, StatusUnknownZone, s.MapFrame(vp, nil).Status)
	assert.Equal(t, "Unknown Zone: No maps available.", StatusUnknownZone.String())

	s.OnTerritoryChanged(emptyTerritory)
	assert.Equal(t, StatusLoading, s.MapFrame(vp, nil).Status)
	s.TileCache().Wait()
	s.Update()
	assert.Equal(t, StatusNoMaps, s.MapFrame(vp, nil).Status)
	assert.Contains(t, s.Notices(), "No maps available for this zone.")
	assert.Equal(t, 1, s.TileCache().LoadsStarted())
}

func TestMapFrame_Ready(t *testing.T) {
	s := newTestService(t, &fakeHost{}, "")
	require.NoError(t, s.Open())
	vp := mapview.Viewport{Size: 100}

	first := s.MapFrame(vp, nil)
	assert.Equal(t, StatusLoading, first.Status)
	assert.Equal(t, "Loading zone map(s).", first.Status.String())
	s.TileCache().Wait()

	cursor := core.Position2D{X: 50, Y: 50}
	f := s.MapFrame(vp, &cursor)
	require.Equal(t, StatusReady, f.Status)
	assert.Equal(t, uint32(arenaTerritory), f.Territory)
	assert.Equal(t, []string{"Unnamed Sub-map 1", "Upper Deck"}, f.SubMaps)
	assert.Equal(t, 0, f.Selected)
	require.NotNil(t, f.Texture)
	assert.Equal(t, 1.0, f.View.Zoom)
	assert.Equal(t, "X: 0.00, Y: 0.00", f.Cursor)

	require.Len(t, f.Markers, core.SlotCount)
	assert.Equal(t, "A", f.Markers[0].Label)
	// A sits 10 units north of the origin on a 2048px texture drawn at 100px
	assert.InDelta(t, 50, f.Markers[0].Screen.X, 1e-9)
	assert.InDelta(t, (1024-10)/2048.0*100, f.Markers[0].Screen.Y, 1e-9)

	assert.Equal(t, CursorUnknown, s.MapFrame(vp, nil).Cursor)
	assert.Equal(t, 1, s.TileCache().LoadsStarted())
}

func TestMapFrame_OnlyActiveMarkers(t *testing.T) {
	s := newTestService(t, &fakeHost{}, "")
	require.NoError(t, s.Open())
	require.NoError(t, s.Preset().SetMarker(3, false, core.Position3D{}))
	s.MapFrame(mapview.Viewport{Size: 100}, nil)
	s.TileCache().Wait()

	f := s.MapFrame(mapview.Viewport{Size: 100}, nil)
	require.Len(t, f.Markers, core.SlotCount-1)
	for _, m := range f.Markers {
		assert.NotEqual(t, 3, m.Slot)
	}
}

func TestMapView_InteractionAndPersistence(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, &fakeHost{}, dir)
	require.NoError(t, s.Open())
	vp := mapview.Viewport{Size: 100}

	assert.False(t, s.ZoomMap(1), "no view before the first frame")
	s.MapFrame(vp, nil)
	s.TileCache().Wait()
	s.MapFrame(vp, nil)

	require.True(t, s.SelectSubMap(1))
	assert.False(t, s.SelectSubMap(5))
	f := s.MapFrame(vp, nil)
	assert.Equal(t, 1, f.Selected)
	assert.InDelta(t, mapview.DefaultZoom(400), f.View.Zoom, 1e-9)

	require.True(t, s.ZoomMap(1))
	require.True(t, s.PanMap(10, 0, 100))
	f = s.MapFrame(vp, nil)
	assert.InDelta(t, mapview.DefaultZoom(400)*mapview.ZoomInFactor, f.View.Zoom, 1e-9)
	assert.Less(t, f.View.Pan.X, 0.5)

	require.NoError(t, s.Dispose())
	_, err := os.Stat(s.Views().Path())
	require.NoError(t, err)

	loaded := viewstate.NewStoreInDir(dir)
	require.NoError(t, loaded.Load())
	st, ok := loaded.Get(arenaTerritory)
	require.True(t, ok)
	assert.Equal(t, 1, st.SelectedSubMapIndex)
	assert.InDelta(t, f.View.Zoom, st.SubMapViewData[1].Zoom, 1e-9)
}

func TestCommands(t *testing.T) {
	h := &fakeHost{player: &core.Position3D{X: 5, Y: 1, Z: 5}}
	s := newTestService(t, h, "")
	require.NoError(t, s.Open())

	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	s.RegisterCommands(d)

	for _, line := range []string{"set radius 20 shape star", "center 10,20", "place"} {
		res, err := d.Dispatch(dispatcher.ParseLine(line))
		require.NoError(t, err)
		assert.Equal(t, "queued", res)
	}
	assert.Empty(t, h.written, "commands wait for the frame update")

	s.Update()
	got := s.Settings()
	assert.Equal(t, 20.0, got.WaymarksRadius)
	assert.Equal(t, int(geometry.Star), got.Shape)
	assert.Equal(t, 10.0, got.WaymarksCenterX)
	assert.Equal(t, 20.0, got.WaymarksCenterZ)
	require.Len(t, h.written, 1)
	assert.Contains(t, s.Notices(), "Waymarks placed.")

	d.Dispatch(dispatcher.ParseLine("set radius"))
	d.Dispatch(dispatcher.ParseLine("center nowhere"))
	s.Update()
	assert.Len(t, s.Notices(), 2)
	assert.Equal(t, 20.0, s.Settings().WaymarksRadius)

	help, err := d.Dispatch(dispatcher.ParseLine("HELP"))
	require.NoError(t, err)
	assert.Contains(t, help, "place")
	assert.Contains(t, help, "radiusb")
}
