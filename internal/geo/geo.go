// Package geo parses ground-plane coordinates typed by the user and converts
// them to simple-features geometry for previews.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/fastwaymarks/overlay/pkg/core"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

func splitCoords(coords string) []string {
	coords = strings.Trim(strings.TrimSpace(coords), "[]()")
	if strings.Contains(coords, ",") {
		return strings.Split(coords, ",")
	}
	return strings.Fields(coords)
}

func parseParts(parts []string) ([]float64, error) {
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, ErrInvalidCoordinates
		}
		out[i] = v
	}
	return out, nil
}

// Position2DFromString parses "x,z" (or "x z") into a ground-plane position.
// The second component is stored in Position2D.Y.
func Position2DFromString(coords string) (core.Position2D, error) {
	parts := splitCoords(coords)
	if len(parts) != 2 {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	v, err := parseParts(parts)
	if err != nil {
		return core.Position2D{}, err
	}
	return core.Position2D{X: v[0], Y: v[1]}, nil
}

// Position3DFromString parses "x,y,z" into a core.Position3D. A two-component
// string is read as "x,z" with y left at zero.
func Position3DFromString(coords string) (core.Position3D, error) {
	parts := splitCoords(coords)
	v, err := parseParts(parts)
	if err != nil {
		return core.Position3D{}, err
	}
	switch len(v) {
	case 2:
		return core.Position3D{X: v[0], Z: v[1]}, nil
	case 3:
		return core.Position3D{X: v[0], Y: v[1], Z: v[2]}, nil
	default:
		return core.Position3D{}, ErrInvalidCoordinates
	}
}

// GroundPoint converts a ground-plane position into an XY point. NaN and
// infinite coordinates are rejected.
func GroundPoint(p core.Position2D) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return pt, nil
}

// Contains reports whether a ground point lies inside (or on) an outline.
func Contains(outline geom.Geometry, p core.Position2D) (bool, error) {
	pt, err := GroundPoint(p)
	if err != nil {
		return false, err
	}
	return geom.Intersects(outline, pt.AsGeometry()), nil
}
