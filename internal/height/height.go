// Package height resolves the elevation of a waymark before placement.
package height

import "github.com/fastwaymarks/overlay/pkg/core"

const (
	// ProbeHeight is how far above the reference elevation a terrain probe starts.
	ProbeHeight = 20.0
	// MaxProbeDistance is the longest accepted distance to a terrain hit.
	MaxProbeDistance = 100.0
)

// Down is the probe direction.
var Down = core.Position3D{X: 0, Y: -1, Z: 0}

// Hit is a terrain intersection reported by the host.
type Hit struct {
	Point    core.Position3D
	Distance float64
}

// Raycaster casts a ray against host terrain collision.
type Raycaster interface {
	Raycast(origin, direction core.Position3D) (Hit, bool)
}

// Policy resolves the y coordinate for a ground point. ok=false means the
// marker must not be placed at the returned height.
type Policy interface {
	Resolve(x, z, referenceY float64) (y float64, ok bool)
}

// TerrainFollowing probes terrain straight down from above referenceY.
type TerrainFollowing struct {
	Caster Raycaster
}

// Resolve implements Policy. A miss keeps referenceY and reports failure; a
// hit farther than MaxProbeDistance reports its y but also fails.
func (p TerrainFollowing) Resolve(x, z, referenceY float64) (float64, bool) {
	if p.Caster == nil {
		return referenceY, false
	}
	origin := core.Position3D{X: x, Y: referenceY + ProbeHeight, Z: z}
	hit, ok := p.Caster.Raycast(origin, Down)
	if !ok {
		return referenceY, false
	}
	return hit.Point.Y, hit.Distance <= MaxProbeDistance
}

// Fixed places every marker at the same configured height.
type Fixed struct {
	Y float64
}

// Resolve implements Policy.
func (p Fixed) Resolve(_, _, _ float64) (float64, bool) {
	return p.Y, true
}
