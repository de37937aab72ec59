// Package overlay wires the layout engine, the host boundary and the map
// preview into the operations the overlay window performs each frame.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/cache"
	"github.com/fastwaymarks/overlay/internal/config"
	"github.com/fastwaymarks/overlay/internal/dispatcher"
	"github.com/fastwaymarks/overlay/internal/height"
	"github.com/fastwaymarks/overlay/internal/host"
	"github.com/fastwaymarks/overlay/internal/preset"
	"github.com/fastwaymarks/overlay/internal/queue"
	"github.com/fastwaymarks/overlay/internal/safety"
	"github.com/fastwaymarks/overlay/internal/session"
	"github.com/fastwaymarks/overlay/internal/tiles"
	"github.com/fastwaymarks/overlay/internal/viewstate"
	"github.com/fastwaymarks/overlay/pkg/core"
)

// DefaultNoticeLimit bounds the user notice queue.
const DefaultNoticeLimit = 32

// ArenaThreshold splits arenas centered at the origin from those centered at
// (100, 100).
const ArenaThreshold = 50.0

var (
	ErrNoPreset = errors.New("no preset loaded")
	ErrUnsafe   = errors.New("waymarks cannot be placed here")
	ErrNoPlayer = errors.New("no local player")
)

// Dependencies holds everything the service needs.
type Dependencies struct {
	Host           host.Context
	Tiles          tiles.Source
	Factory        tiles.TextureFactory // defaults to tiles.ImageFactory
	Recorder       cache.Recorder       // optional
	ConfigDir      string               // empty disables persistence
	LoadTimeout    time.Duration
	DisposeTimeout time.Duration
	NoticeLimit    int
}

// Service owns the scratch preset, the layout settings and the map preview
// state. It is driven from the UI goroutine; only the tile loads run
// elsewhere.
type Service struct {
	deps    Dependencies
	ctx     *session.Context
	log     zerolog.Logger
	gate    *safety.Gate
	tiles   *cache.TileCache
	views   *viewstate.Store
	notices *queue.Queue[string]

	settings   config.Settings
	scratch    *preset.ScratchPreset
	dispatcher *dispatcher.Dispatcher
}

// NewService creates the service and loads the saved map views. A view state
// file that cannot be read is reported as a notice and otherwise ignored.
func NewService(deps Dependencies, sctx *session.Context, settings config.Settings) (*Service, error) {
	if deps.Host.Host == nil || deps.Host.Resolver == nil {
		return nil, errors.New("overlay needs a host and a zone resolver")
	}
	if deps.Factory == nil {
		deps.Factory = tiles.ImageFactory{}
	}
	if deps.NoticeLimit <= 0 {
		deps.NoticeLimit = DefaultNoticeLimit
	}
	if sctx == nil {
		sctx = session.NewContext()
	}

	s := &Service{
		deps:     deps,
		ctx:      sctx,
		log:      deps.Host.Logger.With().Str("module", "overlay").Logger(),
		gate:     safety.New(deps.Host.Host),
		notices:  queue.NewBounded[string](deps.NoticeLimit),
		settings: settings,
	}

	loader := &tiles.Loader{
		Source:  deps.Tiles,
		Factory: deps.Factory,
		Logger:  s.log.With().Str("component", "loader").Logger(),
	}
	tc, err := cache.New(cache.Dependencies{
		Load: func(ctx context.Context, territory uint32) ([]tiles.Texture, error) {
			if loader.Source == nil {
				return nil, tiles.ErrNoTiles
			}
			return loader.Load(ctx, deps.Host.Resolver.MapInfos(territory))
		},
		Logger:      s.log,
		LoadTimeout: deps.LoadTimeout,
		Recorder:    deps.Recorder,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tile cache: %w", err)
	}
	s.tiles = tc

	s.views = viewstate.NewStoreInDir(deps.ConfigDir)
	if deps.ConfigDir != "" {
		if err := s.views.Load(); err != nil {
			s.log.Warn().Err(err).Str("path", s.views.Path()).Msg("Ignoring saved map views")
			// drop the bad file so the reset sticks
			if err := s.views.Clear(); err != nil {
				s.log.Error().Err(err).Msg("Could not remove saved map views")
			}
			s.Notify("Saved map views could not be read and were reset.")
		}
	}
	return s, nil
}

// Session returns the shared zone and settings flags.
func (s *Service) Session() *session.Context {
	return s.ctx
}

// Gate returns the placement gate used to enable placement controls.
func (s *Service) Gate() *safety.Gate {
	return s.gate
}

// Notify queues a user-visible notice.
func (s *Service) Notify(msg string) {
	s.notices.Push(msg)
}

// Notices returns and clears pending notices.
func (s *Service) Notices() []string {
	return s.notices.GetAndEmpty()
}

// Settings returns the current layout settings.
func (s *Service) Settings() config.Settings {
	return s.settings
}

// Preset returns the scratch preset, or nil when none could be read.
func (s *Service) Preset() *preset.ScratchPreset {
	return s.scratch
}

// Open reads the live markers into a new scratch preset and prepares the
// preview. When the markers cannot be read the previous preset is dropped
// and the window shows that no preset is selected.
func (s *Service) Open() error {
	s.scratch = nil
	if !s.gate.CanReadMarkers() {
		return fmt.Errorf("reading markers: %w", host.ErrUnavailable)
	}
	markers, err := s.deps.Host.Host.ReadCurrentMarkers()
	if err != nil {
		return fmt.Errorf("reading markers: %w", err)
	}
	snap := core.PresetSnapshot{
		Markers:    markers,
		ContentID:  s.deps.Host.Resolver.ContentIDForTerritory(s.deps.Host.Host.TerritoryType()),
		CapturedAt: time.Now(),
	}
	s.scratch = preset.FromSnapshot(snap)
	s.preparePreview()
	s.log.Debug().Uint32("content", snap.ContentID).Msg("Scratch preset loaded")
	return nil
}

// Reload is Open under the name the window's retry button uses.
func (s *Service) Reload() error {
	return s.Open()
}

// SetSettings replaces the layout settings. The preview is rebuilt on the
// next Update and the configuration is saved when a config dir is set.
func (s *Service) SetSettings(next config.Settings) error {
	s.settings = next
	s.ctx.MarkSettingsChanged()
	return s.save()
}

func (s *Service) save() error {
	if s.deps.ConfigDir == "" {
		return nil
	}
	if err := config.SaveSettings(s.deps.ConfigDir, s.settings); err != nil {
		s.log.Error().Err(err).Msg("Failed to save settings")
		return err
	}
	return nil
}

// OnTerritoryChanged records a zone change reported by the host. The scratch
// preset follows the new zone.
func (s *Service) OnTerritoryChanged(territory uint32) {
	z := session.Zone{
		TerritoryID: territory,
		ContentID:   s.deps.Host.Resolver.ContentIDForTerritory(territory),
	}
	if s.scratch != nil {
		s.scratch.MapID = z.ContentID
	}
	s.ctx.SetZone(z)
}

// Update runs once per frame before drawing. It runs queued commands, applies
// a pending auto-center after a zone change, rebuilds the preview after
// settings edits and turns finished tile loads into notices.
func (s *Service) Update() {
	if s.dispatcher != nil {
		s.dispatcher.RunDeferred()
	}

	if s.ctx.PeekZoneChanged() {
		switch {
		case !s.settings.AutoCenterOnLoad:
			s.ctx.TakeZoneChanged()
		default:
			if _, ok := s.deps.Host.Host.LocalPlayer(); ok {
				s.ctx.TakeZoneChanged()
				if err := s.CenterToArena(); err != nil {
					s.log.Debug().Err(err).Msg("Auto-center skipped")
				}
			}
		}
	}

	if s.scratch != nil && s.ctx.TakeSettingsChanged() {
		s.preparePreview()
	}

	for {
		select {
		case territory := <-s.tiles.Ready():
			s.reportLoad(territory)
		default:
			return
		}
	}
}

func (s *Service) reportLoad(territory uint32) {
	if s.tiles.State(territory) != cache.Failed {
		return
	}
	err := s.tiles.Err(territory)
	switch {
	case errors.Is(err, cache.ErrLockTimeout):
		s.Notify(fmt.Sprintf("Timed out loading maps for zone %d.", territory))
	case errors.Is(err, tiles.ErrNoTiles):
		s.Notify(StatusNoMaps.String())
	case err != nil && !errors.Is(err, context.Canceled):
		s.Notify(fmt.Sprintf("Loading maps for zone %d failed.", territory))
	}
}

func (s *Service) preparePreview() {
	s.scratch.Prepare(s.settings.Geometry(), nil, 0)
}

// PlaceResult describes a successful placement.
type PlaceResult struct {
	Placement core.HostPlacement
	// Inactive counts slots left off because their height could not be found.
	Inactive int
}

// Place lays out the preset for placement, checks the gate and writes it to
// the host. The preview is restored afterwards whether or not the write went
// through.
func (s *Service) Place() (PlaceResult, error) {
	if s.scratch == nil {
		return PlaceResult{}, ErrNoPreset
	}
	defer s.preparePreview()

	var (
		policy    height.Policy
		reference float64
	)
	if s.settings.DisplayWaymarkY {
		policy = height.Fixed{Y: s.settings.WaymarksCenterY}
	} else {
		policy = height.TerrainFollowing{Caster: s.deps.Host.Raycaster}
		if p, ok := s.deps.Host.Host.LocalPlayer(); ok {
			reference = p.Y
		}
	}

	inactive := s.scratch.Prepare(s.settings.Geometry(), policy, reference)
	placement := s.scratch.HostPlacement()
	s.log.Debug().Str("placement", placement.AsString()).Int("inactive", inactive).Msg("Prepared placement")

	if !s.gate.IsSafeToPlace() {
		return PlaceResult{}, ErrUnsafe
	}
	if err := s.deps.Host.Host.WriteMarkers(placement); err != nil {
		return PlaceResult{}, fmt.Errorf("writing markers: %w", err)
	}
	if inactive > 0 {
		s.Notify(fmt.Sprintf("%d waymark(s) had no ground below them and were not placed.", inactive))
	}
	return PlaceResult{Placement: placement, Inactive: inactive}, nil
}

// CenterOnPlayer moves the layout center to the local player.
func (s *Service) CenterOnPlayer() error {
	p, ok := s.deps.Host.Host.LocalPlayer()
	if !ok {
		return ErrNoPlayer
	}
	next := s.settings
	next.WaymarksCenterX, next.WaymarksCenterY, next.WaymarksCenterZ = p.X, p.Y, p.Z
	return s.SetSettings(next)
}

// CenterToArena snaps the layout center to the usual arena center: the origin
// when the player is below ArenaThreshold on both axes, (100, 100) otherwise.
func (s *Service) CenterToArena() error {
	p, ok := s.deps.Host.Host.LocalPlayer()
	if !ok {
		return ErrNoPlayer
	}
	next := s.settings
	next.WaymarksCenterX, next.WaymarksCenterZ = ArenaCenter(p)
	next.WaymarksCenterY = p.Y
	return s.SetSettings(next)
}

// ArenaCenter returns the ground center CenterToArena picks for a player.
func ArenaCenter(p core.Position3D) (x, z float64) {
	if p.X < ArenaThreshold && p.Z < ArenaThreshold {
		return 0, 0
	}
	return 100, 100
}

// TileCache exposes the map tile cache.
func (s *Service) TileCache() *cache.TileCache {
	return s.tiles
}

// Views exposes the saved map views.
func (s *Service) Views() *viewstate.Store {
	return s.views
}

// Dispose releases every texture and saves the map views.
func (s *Service) Dispose() error {
	s.tiles.Dispose(s.deps.DisposeTimeout)
	if s.deps.ConfigDir == "" {
		return nil
	}
	if err := s.views.Save(); err != nil {
		s.log.Error().Err(err).Msg("Failed to save map views")
		return err
	}
	return nil
}
