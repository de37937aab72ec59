package main

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/height"
	"github.com/fastwaymarks/overlay/internal/host"
	"github.com/fastwaymarks/overlay/internal/zoneinfo"
	"github.com/fastwaymarks/overlay/pkg/core"
)

// simHost stands in for the game client. Placed markers are kept so they can
// be read back.
type simHost struct {
	mu        sync.Mutex
	markers   core.MarkerSet
	player    core.Position3D
	hasPlayer bool
	combat    bool
	linkType  uint8
	territory uint32
	writes    int
}

func newSimHost(territory uint32, linkType uint8) *simHost {
	return &simHost{territory: territory, linkType: linkType, hasPlayer: true}
}

func hostContext(h *simHost, r zoneinfo.Resolver, rc height.Raycaster, log zerolog.Logger) host.Context {
	return host.Context{Host: h, Resolver: r, Raycaster: rc, Logger: log}
}

func (h *simHost) ReadCurrentMarkers() (core.MarkerSet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.markers, nil
}

// WriteMarkers re-checks placement the way the client does before applying it.
func (h *simHost) WriteMarkers(p core.HostPlacement) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasPlayer || h.combat || h.linkType == 0 || h.linkType > 2 {
		return host.ErrUnavailable
	}
	for i := range h.markers {
		h.markers[i] = core.Waymark{Active: p.IsActive(i), Position: p.Positions[i]}
	}
	h.writes++
	return nil
}

func (h *simHost) LocalPlayer() (core.Position3D, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.player, h.hasPlayer
}

func (h *simHost) InCombat() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.combat
}

func (h *simHost) ContentLinkType() uint8 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.linkType
}

func (h *simHost) TerritoryType() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.territory
}

func (h *simHost) setPlayer(p core.Position3D, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.player, h.hasPlayer = p, ok
}

func (h *simHost) setCombat(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.combat = v
}

func (h *simHost) setLinkType(v uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.linkType = v
}

func (h *simHost) setTerritory(t uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.territory = t
}

func (h *simHost) setMarker(slot int, w core.Waymark) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markers[slot] = w
}

// flatGround is level terrain at Y. Rays starting below it miss.
type flatGround struct {
	Y float64
}

func (g flatGround) Raycast(origin, direction core.Position3D) (height.Hit, bool) {
	if direction.Y >= 0 || origin.Y < g.Y {
		return height.Hit{}, false
	}
	return height.Hit{
		Point:    core.Position3D{X: origin.X, Y: g.Y, Z: origin.Z},
		Distance: origin.Y - g.Y,
	}, true
}
