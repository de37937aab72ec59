// pkg/core/types.go
package core

// Position3D is a point in host world units. Y is elevation; X/Z span the ground plane.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Position2D is a point on the ground plane (world X/Z) or in map texture space.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// XZ drops the elevation component.
func (p Position3D) XZ() Position2D {
	return Position2D{X: p.X, Y: p.Z}
}
