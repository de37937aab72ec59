package overlay

import (
	"fmt"
	"strings"

	"github.com/fastwaymarks/overlay/internal/dispatcher"
	"github.com/fastwaymarks/overlay/internal/geo"
	"github.com/fastwaymarks/overlay/internal/parser"
)

// RegisterCommands registers the chat commands. Everything that touches
// service state is deferred and runs inside Update on the UI goroutine.
func (s *Service) RegisterCommands(d *dispatcher.Dispatcher) {
	s.dispatcher = d

	d.Register("place", s.handlePlace, dispatcher.Deferred(), dispatcher.Logged())
	d.Register("center", s.handleCenter, dispatcher.Deferred(), dispatcher.Logged())
	d.Register("set", s.handleSet, dispatcher.Deferred(), dispatcher.Logged())
	d.Register("reload", s.handleReload, dispatcher.Deferred(), dispatcher.Logged())
	d.Register("resetviews", s.handleResetViews, dispatcher.Deferred(), dispatcher.Logged())
	d.Register("help", func(dispatcher.Event) (any, error) {
		return "commands: " + strings.Join(d.Commands(), ", ") +
			"; settings: " + strings.Join(parser.SettingNames(), ", "), nil
	})
}

func (s *Service) handlePlace(e dispatcher.Event) (any, error) {
	res, err := s.Place()
	if err != nil {
		s.Notify(fmt.Sprintf("Waymarks not placed: %v", err))
		return nil, err
	}
	s.Notify("Waymarks placed.")
	return res, nil
}

// handleCenter accepts "player" (default), "arena" or an "x,z" pair.
func (s *Service) handleCenter(e dispatcher.Event) (any, error) {
	arg := "player"
	if len(e.Args) > 0 {
		arg = strings.ToLower(strings.Join(e.Args, " "))
	}

	var err error
	switch arg {
	case "player":
		err = s.CenterOnPlayer()
	case "arena":
		err = s.CenterToArena()
	default:
		p, perr := geo.Position2DFromString(arg)
		if perr != nil {
			err = fmt.Errorf("center %q: %w", arg, perr)
			break
		}
		next := s.settings
		next.WaymarksCenterX, next.WaymarksCenterZ = p.X, p.Y
		err = s.SetSettings(next)
	}
	if err != nil {
		s.Notify(fmt.Sprintf("Center not changed: %v", err))
		return nil, err
	}
	return s.settings, nil
}

func (s *Service) handleSet(e dispatcher.Event) (any, error) {
	next := s.settings
	if err := parser.ApplyArgs(&next, e.Args); err != nil {
		s.Notify(fmt.Sprintf("Setting not changed: %v", err))
		return nil, err
	}
	if err := s.SetSettings(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) handleReload(e dispatcher.Event) (any, error) {
	if err := s.Open(); err != nil {
		s.Notify("The waymarks failed to load.")
		return nil, err
	}
	return nil, nil
}

func (s *Service) handleResetViews(e dispatcher.Event) (any, error) {
	if err := s.views.Clear(); err != nil {
		return nil, err
	}
	s.Notify("Map views reset.")
	return nil, nil
}
