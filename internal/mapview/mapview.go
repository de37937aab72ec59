// Package mapview holds the math behind the zone map preview: default zoom,
// zoom and pan limits, and projection between texture and widget space.
package mapview

import (
	"math"

	"github.com/fastwaymarks/overlay/internal/zoneinfo"
	"github.com/fastwaymarks/overlay/pkg/core"
)

const (
	MinZoom = 0.01
	MaxZoom = 1.0

	// wheel down zooms out, wheel up zooms in
	ZoomOutFactor = 1.1
	ZoomInFactor  = 0.9
)

var (
	defaultZoomSizes = [...]float64{100, 200, 400, 800}
	defaultZoomZooms = [...]float64{1.0, 0.7, 0.2, 0.1}
)

// DefaultZoom interpolates the initial zoom for a map's size factor. Larger
// size factors are smaller areas drawn at higher detail, so they start zoomed
// further in.
func DefaultZoom(sizeFactor float64) float64 {
	n := len(defaultZoomSizes)
	if sizeFactor < defaultZoomSizes[0] {
		return defaultZoomZooms[0]
	}
	if sizeFactor > defaultZoomSizes[n-1] {
		return defaultZoomZooms[n-1]
	}
	for i := 0; i < n-1; i++ {
		if sizeFactor > defaultZoomSizes[i+1] {
			continue
		}
		t := (sizeFactor - defaultZoomSizes[i]) / (defaultZoomSizes[i+1] - defaultZoomSizes[i])
		return t*(defaultZoomZooms[i+1]-defaultZoomZooms[i]) + defaultZoomZooms[i]
	}
	return 1
}

// View is the visible window onto one sub-map. Zoom is the visible fraction of
// the texture per axis; Pan is the window center in normalized texture space.
type View struct {
	Zoom float64
	Pan  core.Position2D
}

// NewView centers a view at the default zoom for sizeFactor.
func NewView(sizeFactor float64) View {
	return View{Zoom: DefaultZoom(sizeFactor), Pan: core.Position2D{X: 0.5, Y: 0.5}}
}

// Clamp keeps Zoom in [MinZoom, MaxZoom] and the window inside the texture.
func (v View) Clamp() View {
	v.Zoom = math.Min(MaxZoom, math.Max(MinZoom, v.Zoom))
	half := v.Zoom / 2
	v.Pan.X = math.Min(1-half, math.Max(half, v.Pan.X))
	v.Pan.Y = math.Min(1-half, math.Max(half, v.Pan.Y))
	return v
}

// Wheel applies a mouse wheel delta. Negative deltas zoom out.
func (v View) Wheel(delta float64) View {
	switch {
	case delta < 0:
		v.Zoom *= ZoomOutFactor
	case delta > 0:
		v.Zoom *= ZoomInFactor
	}
	return v.Clamp()
}

// Drag pans by a mouse delta measured in widget pixels.
func (v View) Drag(dx, dy, widgetSize float64) View {
	if widgetSize <= 0 {
		return v.Clamp()
	}
	v.Pan.X -= dx * v.Zoom / widgetSize
	v.Pan.Y -= dy * v.Zoom / widgetSize
	return v.Clamp()
}

// Bounds returns the visible window in normalized texture coordinates.
func (v View) Bounds() (lower, upper core.Position2D) {
	half := v.Zoom / 2
	clamp01 := func(f float64) float64 { return math.Min(1, math.Max(0, f)) }
	lower = core.Position2D{X: clamp01(v.Pan.X - half), Y: clamp01(v.Pan.Y - half)}
	upper = core.Position2D{X: clamp01(v.Pan.X + half), Y: clamp01(v.Pan.Y + half)}
	return lower, upper
}

// Viewport is where the map widget sits on screen.
type Viewport struct {
	Origin core.Position2D
	Size   float64 // square widget edge in pixels
}

// TextureToScreen projects texture pixels into screen pixels.
func (v View) TextureToScreen(tex core.Position2D, vp Viewport) core.Position2D {
	lo, hi := v.Bounds()
	return core.Position2D{
		X: (tex.X/zoneinfo.TextureSize-lo.X)/(hi.X-lo.X)*vp.Size + vp.Origin.X,
		Y: (tex.Y/zoneinfo.TextureSize-lo.Y)/(hi.Y-lo.Y)*vp.Size + vp.Origin.Y,
	}
}

// ScreenToTexture is the inverse of TextureToScreen.
func (v View) ScreenToTexture(screen core.Position2D, vp Viewport) core.Position2D {
	lo, hi := v.Bounds()
	return core.Position2D{
		X: ((screen.X-vp.Origin.X)/vp.Size*(hi.X-lo.X) + lo.X) * zoneinfo.TextureSize,
		Y: ((screen.Y-vp.Origin.Y)/vp.Size*(hi.Y-lo.Y) + lo.Y) * zoneinfo.TextureSize,
	}
}

// WorldToScreen projects a world ground point onto the widget for map m.
func (v View) WorldToScreen(m zoneinfo.MapInfo, world core.Position2D, vp Viewport) core.Position2D {
	return v.TextureToScreen(m.GetPixelCoordinates(world), vp)
}

// ScreenToWorld maps a widget pixel back to world ground coordinates.
func (v View) ScreenToWorld(m zoneinfo.MapInfo, screen core.Position2D, vp Viewport) core.Position2D {
	return m.GetMapCoordinates(v.ScreenToTexture(screen, vp))
}
