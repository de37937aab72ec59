package geometry

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Footprint returns the convex hull of the eight layout points on the ground
// plane (X, Z mapped to geometry X, Y). A zero radius collapses to a point.
// Non-finite coordinates are rejected.
func Footprint(cfg Config) (geom.Geometry, error) {
	layout := Layout(cfg)
	points := make([]geom.Point, 0, len(layout))
	for _, p := range layout {
		pt, err := geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Z},
			Type: geom.DimXY,
		})
		if err != nil {
			return geom.Geometry{}, fmt.Errorf("footprint slot %d: %w", p.Slot, err)
		}
		points = append(points, pt)
	}
	return geom.NewMultiPoint(points).ConvexHull(), nil
}
