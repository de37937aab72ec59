// Package cache keeps zone map textures loaded in the background.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"

	"github.com/fastwaymarks/overlay/internal/tiles"
)

const (
	DefaultLoadTimeout    = 30 * time.Second
	DefaultDisposeTimeout = 5 * time.Second
)

// ErrLockTimeout is returned when the cache lock could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for tile cache lock")

// State is the lifecycle of one zone entry.
type State int

const (
	Absent State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// LoadFunc builds the textures of one zone. Textures returned together with
// an error are a partial load: they are kept unless the error comes from the
// context, in which case they are disposed.
type LoadFunc func(ctx context.Context, zone uint32) ([]tiles.Texture, error)

// Recorder receives one measurement per finished load.
type Recorder interface {
	RecordTileLoad(zone uint32, tiles int, took time.Duration, err error)
}

// Dependencies configures a TileCache.
type Dependencies struct {
	Load        LoadFunc
	Logger      zerolog.Logger
	LoadTimeout time.Duration
	Recorder    Recorder // optional
}

type entry struct {
	state    State
	textures []tiles.Texture
	err      error
}

// TileCache maps zone ids to their textures. One weighted semaphore guards the
// textures: the render path only ever try-acquires it, loaders and disposal
// wait for it with a deadline. State transitions are under a separate mutex.
type TileCache struct {
	load        LoadFunc
	log         zerolog.Logger
	loadTimeout time.Duration
	recorder    Recorder

	sem *semaphore.Weighted

	mu       sync.Mutex
	entries  map[uint32]*entry
	disposed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ready  chan uint32

	loadsStarted SafeCounter

	started metric.Int64Counter
	loaded  metric.Int64Counter
	failed  metric.Int64Counter
}

// New creates a TileCache.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(deps Dependencies) (*TileCache, error) {
	if deps.Load == nil {
		return nil, errors.New("tile cache needs a load function")
	}
	if deps.LoadTimeout <= 0 {
		deps.LoadTimeout = DefaultLoadTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &TileCache{
		load:        deps.Load,
		log:         deps.Logger.With().Str("module", "tilecache").Logger(),
		loadTimeout: deps.LoadTimeout,
		recorder:    deps.Recorder,
		sem:         semaphore.NewWeighted(1),
		entries:     make(map[uint32]*entry),
		ctx:         ctx,
		cancel:      cancel,
		ready:       make(chan uint32, 16),
	}

	m := meter()
	var err error
	c.started, err = m.Int64Counter("tiles.loads.started",
		metric.WithDescription("Zone tile loads started"))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating started counter: %w", err)
	}
	c.loaded, err = m.Int64Counter("tiles.loaded",
		metric.WithDescription("Zone tile loads completed"))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating loaded counter: %w", err)
	}
	c.failed, err = m.Int64Counter("tiles.failed",
		metric.WithDescription("Zone tile loads that failed"))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	return c, nil
}

// Ready delivers the zone id of every finished load, successful or not.
// Sends never block; a slow reader misses notifications and should poll State.
func (c *TileCache) Ready() <-chan uint32 {
	return c.ready
}

// LoadsStarted returns how many background loads were started.
func (c *TileCache) LoadsStarted() int {
	return c.loadsStarted.Value()
}

// State returns the current state of zone.
func (c *TileCache) State(zone uint32) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[zone]; ok {
		return e.state
	}
	return Absent
}

// Err returns the failure of a Failed zone, or the error that cut short a
// partial load that was kept.
func (c *TileCache) Err(zone uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[zone]; ok {
		return e.err
	}
	return nil
}

// Request starts loading zone unless it is already known. Only the
// Absent->Loading transition starts a load; every call returns the state.
func (c *TileCache) Request(zone uint32) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return Absent
	}
	if e, ok := c.entries[zone]; ok {
		return e.state
	}
	c.entries[zone] = &entry{state: Loading}
	c.loadsStarted.Inc()
	c.started.Add(context.Background(), 1, metric.WithAttributes(zoneAttr(zone)))
	c.wg.Add(1)
	go c.run(zone)
	return Loading
}

// TryGet returns the textures of a Loaded zone without blocking. While a load
// or disposal holds the lock it reports Loading.
func (c *TileCache) TryGet(zone uint32) ([]tiles.Texture, State) {
	if !c.sem.TryAcquire(1) {
		return nil, Loading
	}
	defer c.sem.Release(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[zone]
	if !ok {
		return nil, Absent
	}
	if e.state != Loaded {
		return nil, e.state
	}
	out := make([]tiles.Texture, len(e.textures))
	copy(out, e.textures)
	return out, Loaded
}

func (c *TileCache) run(zone uint32) {
	defer c.wg.Done()
	start := time.Now()
	log := c.log.With().Uint32("zone", zone).Logger()

	lockCtx, cancel := context.WithTimeout(c.ctx, c.loadTimeout)
	err := c.sem.Acquire(lockCtx, 1)
	cancel()
	if err != nil {
		if c.ctx.Err() == nil {
			err = fmt.Errorf("%w after %s", ErrLockTimeout, c.loadTimeout)
			log.Warn().Err(err).Msg("Abandoning zone map load")
		}
		c.finish(zone, nil, err, start)
		return
	}
	defer c.sem.Release(1)

	log.Debug().Msg("Loading zone maps")
	textures, err := c.load(c.ctx, zone)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("Zone map load failed")
	}
	c.finish(zone, textures, err, start)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *TileCache) finish(zone uint32, textures []tiles.Texture, err error, start time.Time) {
	took := time.Since(start)
	attrs := metric.WithAttributes(zoneAttr(zone))

	c.mu.Lock()
	e, ok := c.entries[zone]
	if c.disposed || !ok {
		c.mu.Unlock()
		for _, t := range textures {
			t.Dispose()
		}
		return
	}
	if err == nil && len(textures) == 0 {
		err = tiles.ErrNoTiles
	}
	if err != nil && len(textures) > 0 && !isContextErr(err) {
		c.log.Warn().Err(err).Uint32("zone", zone).Int("tiles", len(textures)).Msg("Keeping partial zone map load")
		e.state, e.err, e.textures = Loaded, err, textures
		c.loaded.Add(context.Background(), 1, attrs)
	} else if err != nil {
		for _, t := range textures {
			t.Dispose()
		}
		e.state, e.err = Failed, err
		c.failed.Add(context.Background(), 1, attrs)
	} else {
		e.state, e.textures = Loaded, textures
		c.loaded.Add(context.Background(), 1, attrs)
	}
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.RecordTileLoad(zone, len(textures), took, err)
	}
	select {
	case c.ready <- zone:
	default:
	}
}

// Dispose cancels running loads and releases every texture. It waits up to
// timeout for the lock, then cleans up regardless. The cache is unusable
// afterwards.
func (c *TileCache) Dispose(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultDisposeTimeout
	}
	c.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	acquired := c.sem.Acquire(ctx, 1) == nil
	if acquired {
		defer c.sem.Release(1)
	} else {
		c.log.Warn().Dur("timeout", timeout).Msg("Could not acquire tile cache lock, forcing cleanup")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for zone, e := range c.entries {
		for _, t := range e.textures {
			t.Dispose()
		}
		delete(c.entries, zone)
	}
	c.disposed = true
}

// Wait blocks until every started load has returned.
func (c *TileCache) Wait() {
	c.wg.Wait()
}

func zoneAttr(zone uint32) attribute.KeyValue {
	return attribute.Int64("zone", int64(zone))
}
