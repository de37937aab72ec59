package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// Options configures Setup.
type Options struct {
	Level string
	// Console defaults to stdout. Set io.Discard to silence it.
	Console io.Writer
	// File receives an uncolored copy of the console output. Optional.
	File io.Writer
	// GraylogAddress enables a GELF UDP sink when non-empty.
	GraylogAddress string
	// Hook is attached to every event. Optional.
	Hook zerolog.Hook
}

// Manager owns the root logger and any network sinks behind it.
type Manager struct {
	Logger zerolog.Logger
	gelf   *gelf.Writer
}

// ParseLevel converts a config level name, falling back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "TRACE":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup builds the root logger. The GELF sink is optional; failing to open it
// returns an error alongside a usable manager without it.
func Setup(opts Options) (*Manager, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339},
	}
	if opts.File != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: opts.File, TimeFormat: time.RFC3339, NoColor: true})
	}

	m := &Manager{}
	var gelfErr error
	if opts.GraylogAddress != "" {
		w, err := gelf.NewWriter(opts.GraylogAddress)
		if err != nil {
			gelfErr = fmt.Errorf("connecting to graylog at %s: %w", opts.GraylogAddress, err)
		} else {
			m.gelf = w
			writers = append(writers, w)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Logger()
	if opts.Hook != nil {
		logger = logger.Hook(opts.Hook)
	}
	m.Logger = logger
	m.Logger.Info().Str("loglevel", m.Logger.GetLevel().String()).Msg("Logging set up")
	return m, gelfErr
}

// Close releases network sinks.
func (m *Manager) Close() error {
	if m.gelf == nil {
		return nil
	}
	return m.gelf.Close()
}
