package overlay

import (
	"fmt"

	"github.com/fastwaymarks/overlay/internal/cache"
	"github.com/fastwaymarks/overlay/internal/mapview"
	"github.com/fastwaymarks/overlay/internal/tiles"
	"github.com/fastwaymarks/overlay/internal/viewstate"
	"github.com/fastwaymarks/overlay/internal/zoneinfo"
	"github.com/fastwaymarks/overlay/pkg/core"
)

// Status is what the map preview can show.
type Status int

const (
	StatusReady Status = iota
	StatusNoPreset
	StatusUnknownZone
	StatusLoading
	StatusNoMaps
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return ""
	case StatusNoPreset:
		return "No Preset Selected"
	case StatusUnknownZone:
		return "Unknown Zone: No maps available."
	case StatusLoading:
		return "Loading zone map(s)."
	case StatusNoMaps:
		return "No maps available for this zone."
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// CursorUnknown is the readout while the cursor is off the map.
const CursorUnknown = "X: ---, Y: ---"

// MarkerIcon is an active waymark projected into the map widget.
type MarkerIcon struct {
	Slot   int
	Label  string
	Screen core.Position2D
}

// Frame is everything the map window draws for one frame.
type Frame struct {
	Status    Status
	Territory uint32

	SubMaps  []string
	Selected int
	Texture  tiles.Texture
	View     mapview.View
	Lower    core.Position2D
	Upper    core.Position2D

	Markers []MarkerIcon
	Cursor  string
}

// MapFrame builds the map preview for the scratch preset's zone. cursor is
// the mouse position in screen pixels, or nil when it is not over the map.
// The first call for a zone starts its tile load; until the load finishes
// the frame only carries a status.
func (s *Service) MapFrame(vp mapview.Viewport, cursor *core.Position2D) Frame {
	if s.scratch == nil {
		return Frame{Status: StatusNoPreset}
	}
	territory := s.deps.Host.Resolver.TerritoryForContent(s.scratch.MapID)
	if territory == 0 {
		return Frame{Status: StatusUnknownZone}
	}

	f := Frame{Territory: territory, Cursor: CursorUnknown}
	switch s.tiles.Request(territory) {
	case cache.Failed:
		f.Status = StatusNoMaps
		return f
	case cache.Absent:
		// disposed
		f.Status = StatusLoading
		return f
	}

	textures, state := s.tiles.TryGet(territory)
	switch state {
	case cache.Loaded:
	case cache.Failed:
		f.Status = StatusNoMaps
		return f
	default:
		f.Status = StatusLoading
		return f
	}
	if len(textures) == 0 {
		f.Status = StatusNoMaps
		return f
	}

	maps := make([]zoneinfo.MapInfo, len(textures))
	sizes := make([]float64, len(textures))
	for i, t := range textures {
		if tile, ok := t.(tiles.Tile); ok {
			maps[i] = tile.Map
		}
		sizes[i] = maps[i].SizeFactor
		f.SubMaps = append(f.SubMaps, zoneinfo.SubMapName(maps[i], i))
	}

	saved := s.views.Ensure(territory, sizes)
	if saved.SelectedSubMapIndex < 0 || saved.SelectedSubMapIndex >= len(textures) {
		saved.SelectedSubMapIndex = 0
	}
	f.Selected = saved.SelectedSubMapIndex
	f.Texture = textures[f.Selected]
	f.View = saved.SubMapViewData[f.Selected].View().Clamp()
	f.Lower, f.Upper = f.View.Bounds()

	m := maps[f.Selected]
	if cursor != nil && vp.Size > 0 {
		w := f.View.ScreenToWorld(m, *cursor, vp)
		f.Cursor = fmt.Sprintf("X: %.2f, Y: %.2f", w.X, w.Y)
	}
	for slot, wm := range s.scratch.Markers() {
		if !wm.Active {
			continue
		}
		f.Markers = append(f.Markers, MarkerIcon{
			Slot:   slot,
			Label:  core.SlotLabels[slot],
			Screen: f.View.WorldToScreen(m, wm.Position.XZ(), vp),
		})
	}
	f.Status = StatusReady
	return f
}

// selectedView returns the saved view of the current zone's selected
// sub-map, or nil when no map is showing.
func (s *Service) selectedView() (*viewstate.MapViewState, bool) {
	if s.scratch == nil {
		return nil, false
	}
	territory := s.deps.Host.Resolver.TerritoryForContent(s.scratch.MapID)
	st, ok := s.views.Get(territory)
	if !ok || st.SelectedSubMapIndex < 0 || st.SelectedSubMapIndex >= len(st.SubMapViewData) {
		return nil, false
	}
	return st, true
}

// SelectSubMap switches the preview to sub-map i of the current zone.
func (s *Service) SelectSubMap(i int) bool {
	st, ok := s.selectedView()
	if !ok || i < 0 || i >= len(st.SubMapViewData) {
		return false
	}
	st.SelectedSubMapIndex = i
	return true
}

// ZoomMap applies a mouse wheel delta to the selected sub-map.
func (s *Service) ZoomMap(delta float64) bool {
	st, ok := s.selectedView()
	if !ok {
		return false
	}
	i := st.SelectedSubMapIndex
	st.SubMapViewData[i] = viewstate.FromView(st.SubMapViewData[i].View().Wheel(delta))
	return true
}

// PanMap drags the selected sub-map by a mouse delta in widget pixels.
func (s *Service) PanMap(dx, dy, widgetSize float64) bool {
	st, ok := s.selectedView()
	if !ok {
		return false
	}
	i := st.SelectedSubMapIndex
	st.SubMapViewData[i] = viewstate.FromView(st.SubMapViewData[i].View().Drag(dx, dy, widgetSize))
	return true
}
