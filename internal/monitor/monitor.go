package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/cache"
	"github.com/fastwaymarks/overlay/internal/session"
)

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// Sink is the telemetry writer whose health is reported.
type Sink interface {
	IsValid() bool
	Written() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session    *session.Context
	Tiles      *cache.TileCache
	Sink       Sink // optional
	StatusPath string
	Interval   time.Duration
	Logger     zerolog.Logger
}

// Status is one snapshot of the overlay's background state.
type Status struct {
	Time          time.Time `json:"time"`
	TerritoryID   uint32    `json:"territoryId"`
	ContentID     uint32    `json:"contentId"`
	TileState     string    `json:"tileState"`
	LoadsStarted  int       `json:"loadsStarted"`
	SinkValid     bool      `json:"sinkValid"`
	PointsWritten int       `json:"pointsWritten"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	log       zerolog.Logger
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps: deps,
		log:  deps.Logger.With().Str("module", "monitor").Logger(),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus collects the current status. Every source it reads is safe to
// use off the UI goroutine.
func (s *Service) GetStatus() Status {
	st := Status{Time: time.Now().UTC()}
	if s.deps.Session != nil {
		z := s.deps.Session.GetZone()
		st.TerritoryID, st.ContentID = z.TerritoryID, z.ContentID
	}
	if s.deps.Tiles != nil {
		st.TileState = s.deps.Tiles.State(st.TerritoryID).String()
		st.LoadsStarted = s.deps.Tiles.LoadsStarted()
	}
	if s.deps.Sink != nil {
		st.SinkValid = s.deps.Sink.IsValid()
		st.PointsWritten = s.deps.Sink.Written()
	}
	return st
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus() error {
	if s.deps.StatusPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	tmp := s.deps.StatusPath + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusPath)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.log.Debug().Dur("interval", s.deps.Interval).Msg("Starting status monitor")
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.WriteStatus(); err != nil {
					s.log.Error().Err(err).Msg("Error writing status file")
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for its goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
