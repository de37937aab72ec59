// Package preset holds the editable working copy of a waymark preset.
package preset

import (
	"errors"
	"fmt"

	"github.com/fastwaymarks/overlay/internal/bitfield"
	"github.com/fastwaymarks/overlay/internal/geometry"
	"github.com/fastwaymarks/overlay/internal/height"
	"github.com/fastwaymarks/overlay/pkg/core"
)

// ErrInvalidSlot is returned for slot indices outside [0,8).
var ErrInvalidSlot = errors.New("invalid waymark slot")

// ScratchPreset is the mutable copy of a captured preset. It is replaced
// wholesale on reload and never partially rebuilt.
type ScratchPreset struct {
	Waymarks core.MarkerSet
	// MapID is the content id the preset belongs to, used for map preview.
	MapID uint32
}

// FromSnapshot copies a host snapshot into a new scratch preset.
func FromSnapshot(s core.PresetSnapshot) *ScratchPreset {
	return &ScratchPreset{
		Waymarks: s.Markers,
		MapID:    s.ContentID,
	}
}

// SetMarker replaces a slot's active flag and position.
func (p *ScratchPreset) SetMarker(slot int, active bool, pos core.Position3D) error {
	if slot < 0 || slot >= core.SlotCount {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	p.Waymarks[slot] = core.Waymark{Active: active, Position: pos}
	return nil
}

// Marker returns a copy of one slot.
func (p *ScratchPreset) Marker(slot int) (core.Waymark, error) {
	if slot < 0 || slot >= core.SlotCount {
		return core.Waymark{}, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return p.Waymarks[slot], nil
}

// Markers returns a copy of all slots.
func (p *ScratchPreset) Markers() core.MarkerSet {
	return p.Waymarks
}

// HostPlacement converts the preset into the host's wire format.
func (p *ScratchPreset) HostPlacement() core.HostPlacement {
	var flags bitfield.BitField8
	out := core.HostPlacement{ContentID: p.MapID}
	for i, w := range p.Waymarks {
		// i is always in range
		_ = flags.Set(i, w.Active)
		out.Positions[i] = w.Position
	}
	out.ActiveMarkers = flags.Data()
	return out
}

// Prepare recomputes every slot from cfg. With a nil policy the preset is
// prepared for preview: y is 0 and every slot is active. Otherwise y comes from
// the policy, and slots whose height cannot be resolved are left inactive
// while keeping their x/z. It returns the number of inactive slots.
func (p *ScratchPreset) Prepare(cfg geometry.Config, policy height.Policy, referenceY float64) int {
	inactive := 0
	for _, pl := range geometry.Layout(cfg) {
		y, ok := 0.0, true
		if policy != nil {
			y, ok = policy.Resolve(pl.X, pl.Z, referenceY)
		}
		if !ok {
			inactive++
		}
		p.Waymarks[pl.Slot] = core.Waymark{
			Active:   ok,
			Position: core.Position3D{X: pl.X, Y: y, Z: pl.Z},
		}
	}
	return inactive
}
