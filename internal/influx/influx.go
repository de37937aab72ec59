package influx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/config"
)

// MeasurementTileLoad is the measurement written for every finished tile load.
const MeasurementTileLoad = "tile_load"

// ErrDisabled is returned by Connect when telemetry is switched off.
var ErrDisabled = errors.New("influx telemetry is disabled")

// Manager sends tile-load measurements to InfluxDB. When the server cannot be
// reached, points are written as line protocol into a zstd-compressed backup
// file instead.
type Manager struct {
	Logger     zerolog.Logger
	BackupPath string

	mu      sync.Mutex
	cfg     config.InfluxConfig
	client  influxdb2.Client
	writer  influxdb2_api.WriteAPI
	file    *os.File
	enc     *zstd.Encoder
	backup  *bufio.Writer
	isValid bool
	written int
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Logger:     log.With().Str("module", "influx").Logger(),
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB, falling back to the backup
// file when the server does not answer.
func (m *Manager) Connect(ctx context.Context, cfg config.InfluxConfig) error {
	if !cfg.Enabled {
		return ErrDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg

	m.client = influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", cfg.Protocol, cfg.Host, cfg.Port),
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.client.Ping(ctx)
	if err != nil || !running {
		m.isValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).
			Msg("InfluxDB unreachable, writing tile loads to backup file")
		return m.openBackupLocked()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.writer = m.client.WriteAPI(cfg.Org, cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.writer.Errors())

	m.isValid = true
	m.Logger.Info().Str("bucket", cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackupLocked() error {
	if m.backup != nil {
		return nil
	}
	if m.BackupPath == "" {
		return errors.New("influx backup path not set")
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("error creating backup encoder: %w", err)
	}
	m.file = file
	m.enc = enc
	m.backup = bufio.NewWriter(enc)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	org, err := m.client.OrganizationsAPI().FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = m.client.OrganizationsAPI().CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			return fmt.Errorf("creating organization %s: %w", m.cfg.Org, err)
		}
	}

	if _, err := m.client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err == nil {
		return nil
	}
	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

	// tile load timings are only interesting for a month
	rule := domain.RetentionRuleTypeExpire
	_, err = m.client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 30,
	})
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", m.cfg.Bucket, err)
	}
	return nil
}

// IsValid reports whether points go to a live server.
func (m *Manager) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isValid
}

// Written returns the number of points accepted so far.
func (m *Manager) Written() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

// TileLoadPoint builds the measurement for one finished zone load.
func TileLoadPoint(zone uint32, tiles int, took time.Duration, err error, at time.Time) *influxdb2_write.Point {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	p := influxdb2_write.NewPointWithMeasurement(MeasurementTileLoad).
		AddTag("status", status).
		AddTag("zone", strconv.FormatUint(uint64(zone), 10)).
		AddField("tiles", tiles).
		AddField("duration_ms", float64(took.Microseconds())/1000).
		SetTime(at)
	if err != nil {
		p.AddField("error", err.Error())
	}
	return p
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.isValid:
		m.writer.WritePoint(point)
	case m.backup != nil:
		// the encoded line carries its own newline
		line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
		if _, err := m.backup.WriteString(line); err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
		}
	default:
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	m.written++
	return nil
}

// RecordTileLoad satisfies the tile cache recorder hook.
func (m *Manager) RecordTileLoad(zone uint32, tiles int, took time.Duration, err error) {
	if werr := m.WritePoint(TileLoadPoint(zone, tiles, took, err, time.Now())); werr != nil {
		m.Logger.Debug().Err(werr).Uint32("zone", zone).Msg("Dropped tile load measurement")
	}
}

// Close flushes pending points and releases the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writer != nil {
		m.writer.Flush()
	}
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.isValid = false

	var errs []error
	if m.backup != nil {
		errs = append(errs, m.backup.Flush(), m.enc.Close(), m.file.Close())
		m.backup, m.enc, m.file = nil, nil, nil
	}
	return errors.Join(errs...)
}
