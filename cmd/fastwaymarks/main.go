// Command fastwaymarks runs the overlay against a simulated host on the
// console, and manages the zone catalog.
//
//	fastwaymarks [flags]                 interactive console
//	fastwaymarks catalog list            print every territory
//	fastwaymarks catalog import FILE     add territories from JSON (.gz accepted)
//	fastwaymarks catalog export FILE     write the catalog as JSON (.gz accepted)
//	fastwaymarks catalog dump FILE       snapshot a SQLite catalog
//
// In the console, import FILE and export FILE do the same as their catalog
// subcommands in the background.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/fastwaymarks/overlay/internal/config"
	"github.com/fastwaymarks/overlay/internal/dispatcher"
	"github.com/fastwaymarks/overlay/internal/influx"
	"github.com/fastwaymarks/overlay/internal/logging"
	"github.com/fastwaymarks/overlay/internal/monitor"
	"github.com/fastwaymarks/overlay/internal/overlay"
	"github.com/fastwaymarks/overlay/internal/session"
	"github.com/fastwaymarks/overlay/internal/storage"
	"github.com/fastwaymarks/overlay/internal/tiles"
)

const (
	componentName = "fastwaymarks"
	drainTimeout  = 10 * time.Second
)

type options struct {
	configDir   string
	zones       string
	territory   uint32
	contentLink uint8
	groundY     float64
	quiet       bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet(componentName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configDir, "config-dir", "c", ".", "directory holding "+config.FileName)
	fs.StringVarP(&opts.zones, "zones", "z", "", "JSON zone catalog merged in at startup")
	fs.Uint32VarP(&opts.territory, "territory", "t", 0, "territory the simulated player starts in")
	fs.Uint8Var(&opts.contentLink, "content-link", 1, "simulated content link type")
	fs.Float64Var(&opts.groundY, "ground-y", 0, "height of the simulated flat ground")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "only log to the log file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.Load(opts.configDir); err != nil && !config.IsNotFound(err) {
		return err
	}

	start := time.Now()
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logFile, err := os.Create(logging.LogFilePath(logsDir, componentName, start))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	logOpts := logging.Options{
		Level:   config.GetString("logLevel"),
		Console: stderr,
		File:    logFile,
	}
	if opts.quiet {
		logOpts.Console = io.Discard
	}
	if config.GetBool("graylog.enabled") {
		logOpts.GraylogAddress = config.GetString("graylog.address")
	}
	logs, err := logging.Setup(logOpts)
	if err != nil {
		logs.Logger.Warn().Err(err).Msg("Continuing without graylog")
	}
	defer logs.Close()
	log := logs.Logger

	catalog, err := openCatalog(log, opts.zones)
	if err != nil {
		return err
	}
	defer catalog.Close()

	if rest := fs.Args(); len(rest) > 0 {
		if rest[0] != "catalog" {
			return fmt.Errorf("unknown command: %q", rest[0])
		}
		return runCatalog(catalog, rest[1:], stdout)
	}

	settings, err := config.GetSettings()
	if err != nil {
		return err
	}

	sink := influx.NewManager(log, filepath.Join(logsDir, componentName+".tiles.lp.zst"))
	var recorder *influx.Manager
	switch err := sink.Connect(context.Background(), config.GetInflux()); {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		log.Warn().Err(err).Msg("Tile load telemetry disabled")
	default:
		recorder = sink
	}
	defer sink.Close()

	host := newSimHost(opts.territory, opts.contentLink)
	tilesCfg := config.GetTiles()
	deps := overlay.Dependencies{
		Host: hostContext(host, catalog, flatGround{Y: opts.groundY}, log),
		Tiles: tiles.FileSource{
			Root: tilesCfg.Dir,
		},
		ConfigDir:      opts.configDir,
		LoadTimeout:    tilesCfg.LoadTimeout,
		DisposeTimeout: tilesCfg.DisposeTimeout,
	}
	if recorder != nil {
		deps.Recorder = recorder
	}

	sctx := session.NewContext()
	svc, err := overlay.NewService(deps, sctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Dispose(); err != nil {
			log.Error().Err(err).Msg("Dispose failed")
		}
	}()

	d, err := dispatcher.New(logging.NewDispatcherLogger(log))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := d.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Console commands still running at exit")
		}
	}()
	svc.RegisterCommands(d)
	registerCatalogCommands(d, catalog, log.With().Str("module", "catalog").Logger())

	monDeps := monitor.Dependencies{
		Session:    sctx,
		Tiles:      svc.TileCache(),
		StatusPath: filepath.Join(logsDir, componentName+".status.json"),
		Logger:     log,
	}
	if recorder != nil {
		monDeps.Sink = recorder
	}
	mon := monitor.NewService(monDeps)
	if err := mon.Start(); err != nil {
		return err
	}
	defer mon.Stop()

	c := &console{
		svc:  svc,
		host: host,
		d:    d,
		mon:  mon,
		out:  stdout,
		log:  log.With().Str("module", "console").Logger(),
	}
	if opts.territory != 0 {
		svc.OnTerritoryChanged(opts.territory)
	}
	return c.Run(stdin)
}

// openCatalog opens the configured catalog and merges the optional seed file
// into it.
func openCatalog(log zerolog.Logger, seed string) (storage.Catalog, error) {
	catalog, err := storage.NewCatalog(config.GetCatalog(), log)
	if err != nil {
		return nil, err
	}
	if err := catalog.Init(); err != nil {
		_ = catalog.Close()
		return nil, fmt.Errorf("initializing catalog: %w", err)
	}
	if seed != "" {
		n, err := importFile(catalog, seed)
		if err != nil {
			_ = catalog.Close()
			return nil, err
		}
		log.Info().Str("file", seed).Int("territories", n).Msg("Zone catalog imported")
	}
	return catalog, nil
}
