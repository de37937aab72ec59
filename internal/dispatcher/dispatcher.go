package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fastwaymarks/overlay/internal/queue"
)

// ErrUnknownCommand is returned by Dispatch for unregistered commands.
var ErrUnknownCommand = errors.New("unknown command")

// Event represents a command typed by the user or sent by a keybind.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// ParseLine splits a command line such as "center 100,100" into an Event.
// Command names are case-insensitive.
func ParseLine(line string) Event {
	fields := strings.Fields(line)
	e := Event{Timestamp: time.Now()}
	if len(fields) == 0 {
		return e
	}
	e.Command = strings.ToLower(fields[0])
	e.Args = fields[1:]
	return e
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger receives handler failures and, for Logged commands, every call.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
	deferred   bool
}

// Buffered runs the handler on its own goroutine fed by a channel of size
// slots. Dispatch returns "queued" without waiting.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes Dispatch wait for room in a full buffer. Without it the
// event is dropped and counted.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged logs each call with its argument count and duration.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Deferred queues the event until the owner calls RunDeferred, so the handler
// runs on the owner's goroutine. Takes precedence over Buffered.
func Deferred() Option {
	return func(c *config) {
		c.deferred = true
	}
}

type deferredEvent struct {
	e Event
	h HandlerFunc
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger
	deferred *queue.Queue[deferredEvent]

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	mu      sync.RWMutex // guards buffers and closed
	buffers map[string]chan Event
	closed  bool
	wg      sync.WaitGroup
}

// New creates a Dispatcher. Queue sizes and event counts go to the global
// OTel meter, which is a no-op until a provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]chan Event),
		deferred: queue.New[deferredEvent](),
		logger:   logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"commands.queue.size",
		metric.WithDescription("Commands waiting in buffers and the deferred queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for cmd, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("command", cmd)))
			}
			o.ObserveInt64(d.queueSize, int64(d.deferred.Len()),
				metric.WithAttributes(attribute.String("command", "deferred")))
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"commands.processed",
		metric.WithDescription("Commands handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"commands.dropped",
		metric.WithDescription("Commands dropped because their buffer was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register binds command (case-insensitive) to h. Logging wraps the buffered
// or deferred handler so the log line is written when Dispatch is called.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	switch {
	case cfg.deferred:
		handler = d.withDeferral(handler)
	case cfg.bufferSize > 0:
		handler = d.withBuffer(command, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	d.handlers[strings.ToLower(command)] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[strings.ToLower(e.Command)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[strings.ToLower(command)]
	return ok
}

// Commands lists registered command names in order.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RunDeferred runs every queued deferred event on the calling goroutine and
// returns how many ran.
func (d *Dispatcher) RunDeferred() int {
	items := d.deferred.GetAndEmpty()
	for _, it := range items {
		if _, err := it.h(it.e); err != nil {
			d.logger.Error("deferred event failed", "command", it.e.Command, "error", err)
		}
		d.processed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", it.e.Command)))
	}
	return len(items)
}

// Close stops buffered workers after they drain their queues. Dispatching to
// a buffered handler after Close fails. Close waits for as long as a handler
// runs; use Shutdown to bound the wait.
func (d *Dispatcher) Close() {
	d.closeBuffers()
	d.wg.Wait()
}

// Shutdown is Close bounded by ctx. When ctx ends first the workers keep
// draining in the background and the context error is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining command buffers: %w", ctx.Err())
	}
}

func (d *Dispatcher) closeBuffers() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, buf := range d.buffers {
		close(buf)
	}
}

func (d *Dispatcher) withDeferral(h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		d.deferred.Push(deferredEvent{e: e, h: h})
		return "queued", nil
	}
}

func (d *Dispatcher) withBuffer(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan Event, size)

	d.mu.Lock()
	d.buffers[command] = buffer
	d.mu.Unlock()

	cmdAttr := attribute.String("command", command)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for e := range buffer {
			if _, err := h(e); err != nil {
				d.logger.Error("buffered event failed", "command", command, "error", err)
			}
			d.processed.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
		}
	}()

	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, fmt.Errorf("dispatcher closed: %s", command)
		}
		if blocking {
			buffer <- e
			return "queued", nil
		}
		select {
		case buffer <- e:
			return "queued", nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
			return nil, fmt.Errorf("queue full: %s", command)
		}
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}

		return result, err
	}
}
