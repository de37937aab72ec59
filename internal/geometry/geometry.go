// Package geometry maps a small layout configuration to the ground-plane
// positions of the eight waymarks.
//
// Every function here is pure: the same inputs always produce bit-identical
// outputs, and no state is shared between calls.
package geometry

import (
	"math"

	"github.com/fastwaymarks/overlay/pkg/core"
)

// SquareCornerFactor stretches a radius so that points on the diagonals meet
// the corners of a square whose edge midpoints lie on the original radius.
var SquareCornerFactor = 1 / math.Cos(math.Pi/4)

// Config is the layout configuration. It is owned by persisted settings and
// only read here.
type Config struct {
	Shape          Shape
	Order          Order
	CenterX        float64
	CenterZ        float64
	Radius         float64
	RadiusB        float64 // secondary radius, only used by Star
	RotationOffset float64 // degrees
}

// radiusFunc picks the radius for a conceptual index.
type radiusFunc func(index int, radius, radiusB float64) float64

var radiusFuncs = [...]radiusFunc{
	Circle: func(_ int, radius, _ float64) float64 {
		return radius
	},
	Square: func(index int, radius, _ float64) float64 {
		if index%2 == 0 {
			return radius
		}
		return radius * SquareCornerFactor
	},
	Diamond: func(index int, radius, _ float64) float64 {
		if index%2 == 0 {
			return radius * SquareCornerFactor
		}
		return radius
	},
	Star: func(index int, radius, radiusB float64) float64 {
		if index%2 == 0 {
			return radius
		}
		return radiusB
	},
}

func radiusFor(shape Shape) radiusFunc {
	if shape < 0 || int(shape) >= len(radiusFuncs) {
		return radiusFuncs[Circle]
	}
	return radiusFuncs[shape]
}

// Angle returns the base angle in radians of conceptual index i. Index 0 with
// no rotation points toward -Z.
func Angle(index int, rotationOffsetDegrees float64) float64 {
	return math.Pi / 4 * (float64(index) + rotationOffsetDegrees/45 - 2)
}

// ComputeOffset returns the (dx, dz) offset of conceptual index 0..7 from the
// layout center.
func ComputeOffset(shape Shape, index int, radius, radiusB, rotationOffsetDegrees float64) (dx, dz float64) {
	theta := Angle(index, rotationOffsetDegrees)
	r := radiusFor(shape)(index, radius, radiusB)
	return math.Cos(theta) * r, math.Sin(theta) * r
}

// Position returns the absolute (x, z) of conceptual index i.
func Position(cfg Config, index int) (x, z float64) {
	dx, dz := ComputeOffset(cfg.Shape, index, cfg.Radius, cfg.RadiusB, cfg.RotationOffset)
	return cfg.CenterX + dx, cfg.CenterZ + dz
}

// Placement is one computed position assigned to a marker slot.
type Placement struct {
	Index int // conceptual position around the shape
	Slot  int // marker slot, 0..7 = A..4
	X     float64
	Z     float64
}

// Layout computes all eight placements, ordered by conceptual index.
func Layout(cfg Config) [core.SlotCount]Placement {
	perm := Permutation(cfg.Order)
	var out [core.SlotCount]Placement
	for i := range out {
		x, z := Position(cfg, i)
		out[i] = Placement{Index: i, Slot: perm[i], X: x, Z: z}
	}
	return out
}
