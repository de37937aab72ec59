// Package host declares the boundary to the host process: reading and writing
// live waymark state and the player facts that gate placement.
package host

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/height"
	"github.com/fastwaymarks/overlay/internal/zoneinfo"
	"github.com/fastwaymarks/overlay/pkg/core"
)

// ErrUnavailable is returned when host marker state cannot currently be read
// or written safely.
var ErrUnavailable = errors.New("host marker state unavailable")

// MarkerReader reads the live marker set.
type MarkerReader interface {
	ReadCurrentMarkers() (core.MarkerSet, error)
}

// MarkerWriter places a full preset. Implementations expect exactly eight
// entries in slot order and re-validate placement on their own.
type MarkerWriter interface {
	WriteMarkers(p core.HostPlacement) error
}

// PlayerState exposes the facts placement depends on.
type PlayerState interface {
	LocalPlayer() (core.Position3D, bool)
	InCombat() bool
	ContentLinkType() uint8
	TerritoryType() uint32
}

// Host is everything the overlay needs from the host process.
type Host interface {
	MarkerReader
	MarkerWriter
	PlayerState
}

// Context carries host services into every component that needs them. It is
// built once at startup and passed explicitly.
type Context struct {
	Host      Host
	Resolver  zoneinfo.Resolver
	Raycaster height.Raycaster
	Logger    zerolog.Logger
}
