// pkg/core/waymark.go
package core

import (
	"fmt"
	"strings"
	"time"
)

// SlotCount is the number of waymark slots the host exposes. Slots 0-3 are the
// letter markers A-D and slots 4-7 are the number markers 1-4.
const SlotCount = 8

// SlotLabels names each slot in host order.
var SlotLabels = [SlotCount]string{"A", "B", "C", "D", "1", "2", "3", "4"}

// IsLetterSlot reports whether slot holds one of the A-D markers.
func IsLetterSlot(slot int) bool {
	return slot >= 0 && slot < 4
}

// Waymark is a single marker slot
type Waymark struct {
	Active   bool       `json:"active"`
	Position Position3D `json:"position"`
}

// MarkerSet is the full set of waymarks in fixed slot order A,B,C,D,1,2,3,4.
type MarkerSet [SlotCount]Waymark

// PresetSnapshot is a capture of the host's marker state. It is never mutated
// after creation; a new read produces a new snapshot.
type PresetSnapshot struct {
	Markers    MarkerSet
	ContentID  uint32
	CapturedAt time.Time
}

// HostPlacement is the host's wire format for placing a preset: packed active
// flags plus positions in slot order.
type HostPlacement struct {
	ActiveMarkers uint8
	Positions     [SlotCount]Position3D
	ContentID     uint32
}

// IsActive reports whether the packed flag for slot is set.
func (p HostPlacement) IsActive(slot int) bool {
	if slot < 0 || slot >= SlotCount {
		return false
	}
	return p.ActiveMarkers&(1<<uint(slot)) != 0
}

// AsString renders the placement for debug logs.
func (p HostPlacement) AsString() string {
	var b strings.Builder
	for i, pos := range p.Positions {
		fmt.Fprintf(&b, "%s: %t %g %g %g\n", SlotLabels[i], p.IsActive(i), pos.X, pos.Y, pos.Z)
	}
	fmt.Fprintf(&b, "Active Flags: 0x%X\n", p.ActiveMarkers)
	fmt.Fprintf(&b, "ContentID: %d", p.ContentID)
	return b.String()
}
