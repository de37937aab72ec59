package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastwaymarks/overlay/internal/zoneinfo"
	"github.com/fastwaymarks/overlay/pkg/core"
)

func TestDefaultZoom(t *testing.T) {
	tests := []struct {
		size float64
		want float64
	}{
		{50, 1.0},
		{100, 1.0},
		{150, 0.85},
		{200, 0.7},
		{300, 0.45},
		{400, 0.2},
		{600, 0.15},
		{800, 0.1},
		{2000, 0.1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DefaultZoom(tt.size), 1e-9, "size %v", tt.size)
	}
}

func TestView_WheelClamps(t *testing.T) {
	v := View{Zoom: 1, Pan: core.Position2D{X: 0.5, Y: 0.5}}

	v = v.Wheel(-1)
	assert.Equal(t, 1.0, v.Zoom)

	v = v.Wheel(1)
	assert.InDelta(t, 0.9, v.Zoom, 1e-9)

	for i := 0; i < 100; i++ {
		v = v.Wheel(1)
	}
	assert.Equal(t, MinZoom, v.Zoom)

	assert.Equal(t, v, v.Wheel(0))
}

func TestView_ClampPan(t *testing.T) {
	v := View{Zoom: 0.2, Pan: core.Position2D{X: 0, Y: 2}}.Clamp()

	assert.InDelta(t, 0.1, v.Pan.X, 1e-9)
	assert.InDelta(t, 0.9, v.Pan.Y, 1e-9)
}

func TestView_Drag(t *testing.T) {
	v := View{Zoom: 0.5, Pan: core.Position2D{X: 0.5, Y: 0.5}}

	got := v.Drag(100, -100, 500)

	assert.InDelta(t, 0.4, got.Pan.X, 1e-9)
	assert.InDelta(t, 0.6, got.Pan.Y, 1e-9)
}

func TestView_Bounds(t *testing.T) {
	lo, hi := View{Zoom: 0.5, Pan: core.Position2D{X: 0.25, Y: 0.5}}.Bounds()

	assert.InDelta(t, 0.0, lo.X, 1e-9)
	assert.InDelta(t, 0.5, hi.X, 1e-9)
	assert.InDelta(t, 0.25, lo.Y, 1e-9)
	assert.InDelta(t, 0.75, hi.Y, 1e-9)
}

func TestView_ProjectionRoundTrip(t *testing.T) {
	m := zoneinfo.MapInfo{SizeFactor: 400, OffsetX: -100, OffsetY: -100}
	v := View{Zoom: 0.2, Pan: core.Position2D{X: 0.5, Y: 0.5}}
	vp := Viewport{Origin: core.Position2D{X: 10, Y: 20}, Size: 400}

	center := v.WorldToScreen(m, core.Position2D{X: 100, Y: 100}, vp)
	assert.InDelta(t, 210, center.X, 1e-9)
	assert.InDelta(t, 220, center.Y, 1e-9)

	back := v.ScreenToWorld(m, core.Position2D{X: 300, Y: 77}, vp)
	again := v.WorldToScreen(m, back, vp)
	assert.InDelta(t, 300, again.X, 1e-9)
	assert.InDelta(t, 77, again.Y, 1e-9)
}

func TestNewView(t *testing.T) {
	v := NewView(200)
	assert.InDelta(t, 0.7, v.Zoom, 1e-9)
	assert.Equal(t, core.Position2D{X: 0.5, Y: 0.5}, v.Pan)
}
