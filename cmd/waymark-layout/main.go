// Command waymark-layout prints the eight waymark positions for a layout
// without a running game client.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/fastwaymarks/overlay/internal/geo"
	"github.com/fastwaymarks/overlay/internal/geometry"
	"github.com/fastwaymarks/overlay/internal/parser"
	"github.com/fastwaymarks/overlay/pkg/core"
)

type marker struct {
	Slot  string  `json:"slot" yaml:"slot"`
	Index int     `json:"index" yaml:"index"`
	X     float64 `json:"x" yaml:"x"`
	Z     float64 `json:"z" yaml:"z"`
}

type layout struct {
	Shape     string     `json:"shape" yaml:"shape"`
	Order     string     `json:"order" yaml:"order"`
	Center    [2]float64 `json:"center" yaml:"center,flow"`
	Markers   []marker   `json:"markers" yaml:"markers"`
	Footprint string     `json:"footprint" yaml:"footprint"`
	Inside    *bool      `json:"inside,omitempty" yaml:"inside,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("waymark-layout", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	shape := fs.String("shape", "circle", "layout shape: circle, square, diamond or star")
	order := fs.String("order", "proper", "slot order: proper, partyfinder or letternumber")
	center := fs.String("center", "0,0", "ground center as x,z")
	radius := fs.Float64("radius", 10, "radius in yalms")
	radiusB := fs.Float64("radius-b", 10, "inner radius for the star shape")
	rotation := fs.Float64("rotation", 0, "rotation offset in degrees")
	point := fs.String("point", "", "report whether this x,z lies inside the layout")
	format := fs.StringP("format", "f", "json", "output format: json, yaml or wkt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := buildConfig(*shape, *order, *center, *radius, *radiusB, *rotation)
	if err != nil {
		return err
	}
	footprint, err := geometry.Footprint(cfg)
	if err != nil {
		return err
	}
	out := describe(cfg, footprint)
	if *point != "" {
		p, err := geo.Position2DFromString(*point)
		if err != nil {
			return fmt.Errorf("point: %w", err)
		}
		inside, err := geo.Contains(footprint, p)
		if err != nil {
			return fmt.Errorf("point: %w", err)
		}
		out.Inside = &inside
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "wkt":
		_, err := fmt.Fprintln(w, out.Footprint)
		return err
	}
	return fmt.Errorf("unknown format: %q", *format)
}

func buildConfig(shape, order, center string, radius, radiusB, rotation float64) (geometry.Config, error) {
	s, err := geometry.ParseShape(shape)
	if err != nil {
		return geometry.Config{}, err
	}
	o, err := geometry.ParseOrder(order)
	if err != nil {
		return geometry.Config{}, err
	}
	c, err := geo.Position2DFromString(center)
	if err != nil {
		return geometry.Config{}, fmt.Errorf("center: %w", err)
	}
	return geometry.Config{
		Shape:          s,
		Order:          o,
		CenterX:        c.X,
		CenterZ:        c.Y,
		Radius:         parser.ClampRadius(radius),
		RadiusB:        parser.ClampRadius(radiusB),
		RotationOffset: parser.NormalizeRotation(rotation),
	}, nil
}

// describe lists the placements by slot, A first.
func describe(cfg geometry.Config, footprint geom.Geometry) layout {
	placements := geometry.Layout(cfg)
	markers := make([]marker, 0, len(placements))
	for _, p := range placements {
		markers = append(markers, marker{Slot: core.SlotLabels[p.Slot], Index: p.Index, X: p.X, Z: p.Z})
	}
	sort.Slice(markers, func(i, j int) bool {
		return slotOf(markers[i].Slot) < slotOf(markers[j].Slot)
	})
	return layout{
		Shape:     cfg.Shape.String(),
		Order:     cfg.Order.String(),
		Center:    [2]float64{cfg.CenterX, cfg.CenterZ},
		Markers:   markers,
		Footprint: footprint.AsText(),
	}
}

func slotOf(label string) int {
	for i, l := range core.SlotLabels {
		if l == label {
			return i
		}
	}
	return len(core.SlotLabels)
}
