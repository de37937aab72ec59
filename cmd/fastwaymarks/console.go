package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/dispatcher"
	"github.com/fastwaymarks/overlay/internal/geo"
	"github.com/fastwaymarks/overlay/internal/mapview"
	"github.com/fastwaymarks/overlay/internal/monitor"
	"github.com/fastwaymarks/overlay/internal/overlay"
	"github.com/fastwaymarks/overlay/internal/parser"
	"github.com/fastwaymarks/overlay/internal/tiles"
	"github.com/fastwaymarks/overlay/pkg/core"
)

const previewSize = 512

var errQuit = errors.New("quit")

// console reads one command per line. Lines the simulator understands change
// the simulated host; everything else goes to the overlay's dispatcher. Each
// line is followed by one overlay frame.
type console struct {
	svc  *overlay.Service
	host *simHost
	d    *dispatcher.Dispatcher
	mon  *monitor.Service
	out  io.Writer
	log  zerolog.Logger
}

type localCommand func(c *console, args []string) error

var localCommands = map[string]localCommand{
	"zone":     (*console).zone,
	"move":     (*console).move,
	"leave":    (*console).leave,
	"combat":   (*console).combat,
	"link":     (*console).link,
	"mark":     (*console).mark,
	"open":     (*console).open,
	"frame":    (*console).frame,
	"snapshot": (*console).snapshot,
	"wait":     (*console).wait,
	"submap":   (*console).submap,
	"zoom":     (*console).zoom,
	"markers":  (*console).markers,
	"status":   (*console).status,
	"quit":     func(*console, []string) error { return errQuit },
	"exit":     func(*console, []string) error { return errQuit },
}

// Run processes lines until EOF or quit.
func (c *console) Run(in io.Reader) error {
	if err := c.svc.Open(); err != nil {
		c.log.Warn().Err(err).Msg("Markers not readable at startup")
	}
	c.svc.Update()
	c.flushNotices()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := c.exec(line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		c.svc.Update()
		c.flushNotices()
	}
	return scanner.Err()
}

func (c *console) exec(line string) error {
	e := dispatcher.ParseLine(line)
	if cmd, ok := localCommands[e.Command]; ok {
		return cmd(c, e.Args)
	}
	res, err := c.d.Dispatch(e)
	if err != nil {
		return err
	}
	if s, ok := res.(string); ok && s != "queued" {
		fmt.Fprintln(c.out, s)
	}
	return nil
}

func (c *console) flushNotices() {
	for _, n := range c.svc.Notices() {
		fmt.Fprintf(c.out, "> %s\n", n)
	}
}

func (c *console) zone(args []string) error {
	if len(args) != 1 {
		return errors.New("zone: expected a territory id")
	}
	t, err := parser.ParseUint32(args[0])
	if err != nil {
		return err
	}
	c.host.setTerritory(t)
	c.svc.OnTerritoryChanged(t)
	return nil
}

func (c *console) move(args []string) error {
	p, err := geo.Position3DFromString(strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}
	c.host.setPlayer(p, true)
	return nil
}

func (c *console) leave([]string) error {
	c.host.setPlayer(core.Position3D{}, false)
	return nil
}

func (c *console) combat(args []string) error {
	if len(args) != 1 {
		return errors.New("combat: expected on or off")
	}
	v, err := parser.ParseBool(args[0])
	if err != nil {
		return err
	}
	c.host.setCombat(v)
	return nil
}

func (c *console) link(args []string) error {
	if len(args) != 1 {
		return errors.New("link: expected a content link type")
	}
	v, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	c.host.setLinkType(uint8(v))
	return nil
}

// mark sets one live marker, e.g. "mark A 100,0,95" or "mark 3 off".
func (c *console) mark(args []string) error {
	if len(args) < 2 {
		return errors.New("mark: expected a slot and a position or off")
	}
	slot := -1
	for i, l := range core.SlotLabels {
		if strings.EqualFold(l, args[0]) {
			slot = i
		}
	}
	if slot < 0 {
		return fmt.Errorf("mark: unknown slot %q", args[0])
	}
	if strings.EqualFold(args[1], "off") {
		c.host.setMarker(slot, core.Waymark{})
		return nil
	}
	p, err := geo.Position3DFromString(strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("mark: %w", err)
	}
	c.host.setMarker(slot, core.Waymark{Active: true, Position: p})
	return nil
}

func (c *console) open([]string) error {
	return c.svc.Open()
}

func (c *console) frame([]string) error {
	f := c.svc.MapFrame(mapview.Viewport{Size: previewSize}, nil)
	if f.Status != overlay.StatusReady {
		fmt.Fprintln(c.out, f.Status)
		return nil
	}
	fmt.Fprintf(c.out, "zone %d, sub-map %d/%d %q, zoom %.2f\n",
		f.Territory, f.Selected+1, len(f.SubMaps), f.SubMaps[f.Selected], f.View.Zoom)
	for _, m := range f.Markers {
		fmt.Fprintf(c.out, "  %s at (%.0f, %.0f)\n", m.Label, m.Screen.X, m.Screen.Y)
	}
	return nil
}

// wait blocks until pending tile loads finish.
func (c *console) wait([]string) error {
	c.svc.TileCache().Wait()
	return nil
}

// snapshot writes a PNG thumbnail of the selected sub-map.
func (c *console) snapshot(args []string) error {
	if len(args) != 1 {
		return errors.New("snapshot: expected a file name")
	}
	f := c.svc.MapFrame(mapview.Viewport{Size: previewSize}, nil)
	if f.Status != overlay.StatusReady {
		return fmt.Errorf("snapshot: %s", f.Status)
	}
	tex := f.Texture
	if tile, ok := tex.(tiles.Tile); ok {
		tex = tile.Texture
	}
	it, ok := tex.(*tiles.ImageTexture)
	if !ok || it.Image() == nil {
		return errors.New("snapshot: texture has no image")
	}

	out, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, tiles.Thumbnail(it.Image(), previewSize/2)); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	fmt.Fprintf(c.out, "wrote %s\n", args[0])
	return nil
}

func (c *console) submap(args []string) error {
	if len(args) != 1 {
		return errors.New("submap: expected a sub-map number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("submap: %w", err)
	}
	if !c.svc.SelectSubMap(n - 1) {
		return fmt.Errorf("submap: no sub-map %d", n)
	}
	return nil
}

func (c *console) zoom(args []string) error {
	if len(args) != 1 {
		return errors.New("zoom: expected a wheel delta")
	}
	delta, err := parser.ParseFloat(args[0])
	if err != nil {
		return err
	}
	if !c.svc.ZoomMap(delta) {
		return errors.New("zoom: no map showing")
	}
	return nil
}

func (c *console) markers([]string) error {
	p := c.svc.Preset()
	if p == nil {
		fmt.Fprintln(c.out, overlay.StatusNoPreset)
		return nil
	}
	for slot, w := range p.Markers() {
		state := "off"
		if w.Active {
			state = fmt.Sprintf("%.2f, %.2f, %.2f", w.Position.X, w.Position.Y, w.Position.Z)
		}
		fmt.Fprintf(c.out, "  %s: %s\n", core.SlotLabels[slot], state)
	}
	return nil
}

func (c *console) status([]string) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(c.mon.GetStatus())
}
