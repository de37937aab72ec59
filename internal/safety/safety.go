// Package safety decides whether the host currently permits direct waymark
// placement. The result is advisory: it drives whether placement controls are
// enabled, and the host write boundary validates again on its own.
package safety

import "github.com/fastwaymarks/overlay/pkg/core"

// State is the subset of host facts the gate reads.
type State interface {
	LocalPlayer() (core.Position3D, bool)
	InCombat() bool
	ContentLinkType() uint8
}

// Gate evaluates placement and read permissions from live host state. It holds
// no cached result; every call re-reads the host.
type Gate struct {
	State State
}

// New creates a gate over the given host state.
func New(state State) *Gate {
	return &Gate{State: state}
}

// IsSafeToPlace reports whether a player exists, is out of combat, and the
// current content-link type is 1 or 2 (instanced duties).
func (g *Gate) IsSafeToPlace() bool {
	if g == nil || g.State == nil {
		return false
	}
	if _, ok := g.State.LocalPlayer(); !ok {
		return false
	}
	if g.State.InCombat() {
		return false
	}
	t := g.State.ContentLinkType()
	return t > 0 && t < 3
}

// CanReadMarkers reports whether current markers may be read. This mirrors the
// host's own check but also admits overworld zones (type 0) and type 3.
func (g *Gate) CanReadMarkers() bool {
	if g == nil || g.State == nil {
		return false
	}
	return g.State.ContentLinkType() < 4
}
