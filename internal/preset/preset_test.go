package preset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastwaymarks/overlay/internal/geometry"
	"github.com/fastwaymarks/overlay/internal/height"
	"github.com/fastwaymarks/overlay/pkg/core"
)

func testSnapshot() core.PresetSnapshot {
	var markers core.MarkerSet
	for i := range markers {
		markers[i] = core.Waymark{
			Active:   i%2 == 0,
			Position: core.Position3D{X: float64(i), Y: float64(i * 10), Z: float64(-i)},
		}
	}
	return core.PresetSnapshot{Markers: markers, ContentID: 777, CapturedAt: time.Unix(1700000000, 0)}
}

func TestFromSnapshot_Copies(t *testing.T) {
	snap := testSnapshot()

	p := FromSnapshot(snap)
	require.NoError(t, p.SetMarker(0, false, core.Position3D{X: 99}))

	assert.Equal(t, uint32(777), p.MapID)
	assert.True(t, snap.Markers[0].Active, "snapshot must not be mutated")
	assert.Equal(t, 0.0, snap.Markers[0].Position.X)
}

func TestSetMarker_ReplacesWholeSlot(t *testing.T) {
	p := FromSnapshot(testSnapshot())

	require.NoError(t, p.SetMarker(2, false, core.Position3D{X: 1, Y: 2, Z: 3}))

	m, err := p.Marker(2)
	require.NoError(t, err)
	assert.Equal(t, core.Waymark{Active: false, Position: core.Position3D{X: 1, Y: 2, Z: 3}}, m)
}

func TestSetMarker_InvalidSlot(t *testing.T) {
	p := &ScratchPreset{}

	assert.ErrorIs(t, p.SetMarker(8, true, core.Position3D{}), ErrInvalidSlot)
	_, err := p.Marker(-1)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestHostPlacement_PacksFlags(t *testing.T) {
	p := FromSnapshot(testSnapshot())

	hp := p.HostPlacement()

	assert.Equal(t, uint8(0x55), hp.ActiveMarkers)
	assert.Equal(t, uint32(777), hp.ContentID)
	for i := 0; i < core.SlotCount; i++ {
		assert.Equal(t, p.Waymarks[i].Position, hp.Positions[i])
		assert.Equal(t, p.Waymarks[i].Active, hp.IsActive(i))
	}
}

func TestPrepare_PreviewActivatesAll(t *testing.T) {
	p := FromSnapshot(testSnapshot())
	cfg := geometry.Config{Shape: geometry.Circle, Order: geometry.LetterNumber, Radius: 10}

	inactive := p.Prepare(cfg, nil, 0)

	assert.Equal(t, 0, inactive)
	assert.Equal(t, uint8(0xFF), p.HostPlacement().ActiveMarkers)
	a, _ := p.Marker(0)
	assert.InDelta(t, 0, a.Position.X, 1e-9)
	assert.InDelta(t, -10, a.Position.Z, 1e-9)
	assert.Equal(t, 0.0, a.Position.Y)
}

func TestPrepare_ProperOrderAssignsSlots(t *testing.T) {
	p := &ScratchPreset{}
	cfg := geometry.Config{Shape: geometry.Star, Order: geometry.Proper, Radius: 10, RadiusB: 5}

	p.Prepare(cfg, nil, 0)

	one, _ := p.Marker(4) // conceptual index 1
	assert.InDelta(t, 5, math.Hypot(one.Position.X, one.Position.Z), 1e-9)
	b, _ := p.Marker(1) // conceptual index 2
	assert.InDelta(t, 10, math.Hypot(b.Position.X, b.Position.Z), 1e-9)
}

type missEvery struct{ n int }

func (m *missEvery) Raycast(origin, _ core.Position3D) (height.Hit, bool) {
	m.n++
	if m.n%4 == 0 {
		return height.Hit{}, false
	}
	return height.Hit{Point: core.Position3D{X: origin.X, Y: origin.Y - 20, Z: origin.Z}, Distance: 20}, true
}

func TestPrepare_HeightFailureMarksInactiveKeepsXZ(t *testing.T) {
	p := &ScratchPreset{}
	cfg := geometry.Config{Shape: geometry.Circle, Order: geometry.LetterNumber, Radius: 10, CenterX: 100, CenterZ: 100}

	inactive := p.Prepare(cfg, height.TerrainFollowing{Caster: &missEvery{}}, 5)

	assert.Equal(t, 2, inactive)
	layout := geometry.Layout(cfg)
	for _, idx := range []int{3, 7} {
		m, _ := p.Marker(idx)
		assert.False(t, m.Active, "slot %d", idx)
		assert.Equal(t, layout[idx].X, m.Position.X)
		assert.Equal(t, layout[idx].Z, m.Position.Z)
	}
	ok, _ := p.Marker(0)
	assert.True(t, ok.Active)
	assert.Equal(t, 5.0, ok.Position.Y)
}

func TestPrepare_FixedHeight(t *testing.T) {
	p := &ScratchPreset{}

	p.Prepare(geometry.Config{Radius: 3}, height.Fixed{Y: 12}, 0)

	for i := 0; i < core.SlotCount; i++ {
		m, _ := p.Marker(i)
		assert.True(t, m.Active)
		assert.Equal(t, 12.0, m.Position.Y)
	}
}
