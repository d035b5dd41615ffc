package layout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/strata/pkg/analysis"
	"github.com/vanderheijden86/strata/pkg/model"
)

// ErrNotStarted is reported for commands that need a simulation before any
// Start was processed.
var ErrNotStarted = errors.New("simulation not started")

// LogLevel controls engine log verbosity.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "none"
	}
}

// ParseLogLevel accepts names or digits; anything else means warn.
func ParseLogLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "none", "off", "0":
		return LogLevelNone
	case "error", "1":
		return LogLevelError
	case "warn", "warning", "2", "":
		return LogLevelWarn
	case "info", "3":
		return LogLevelInfo
	case "debug", "4":
		return LogLevelDebug
	default:
		return LogLevelWarn
	}
}

// mailbox is an unbounded FIFO with a wake-up signal. push never blocks,
// so senders are never held up by a slow receiver.
type mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	signal chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{signal: make(chan struct{}, 1)}
}

func (m *mailbox[T]) push(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox[T]) drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}

func (m *mailbox[T]) pop() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	v := m.items[0]
	m.items[0] = zero
	m.items = m.items[1:]
	return v, true
}

func (m *mailbox[T]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogLevel overrides STRATA_WORKER_LOG_LEVEL.
func WithLogLevel(l LogLevel) EngineOption {
	return func(e *Engine) { e.logLevel = l }
}

// WithLogger sends engine log events to l instead of the standard logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// Engine runs a Simulation on its own goroutine. Commands are processed in
// send order; events are queued in the order they are produced and are
// never dropped.
type Engine struct {
	cfg      Config
	inbox    *mailbox[Command]
	outbox   *mailbox[Event]
	latest   atomic.Pointer[Snapshot]
	logLevel LogLevel
	logger   *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	analytics sync.WaitGroup

	// owned by the run goroutine
	sim    *Simulation
	nodes  []model.Node
	ended  bool
	ticker *time.Ticker
}

// NewEngine starts the engine goroutine. Send a Start command to begin a
// layout.
func NewEngine(cfg Config, opts ...EngineOption) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:      cfg.Validate(),
		inbox:    newMailbox[Command](),
		outbox:   newMailbox[Event](),
		logLevel: ParseLogLevel(os.Getenv("STRATA_WORKER_LOG_LEVEL")),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.run()
	return e
}

// Send queues commands without blocking. Commands sent after Close are
// discarded.
func (e *Engine) Send(cmds ...Command) {
	if e.ctx.Err() != nil {
		return
	}
	for _, c := range cmds {
		if c != nil {
			e.inbox.push(c)
		}
	}
}

// Poll returns every queued event without blocking.
func (e *Engine) Poll() []Event {
	return e.outbox.drain()
}

// Next blocks until an event is available or ctx is done.
func (e *Engine) Next(ctx context.Context) (Event, error) {
	for {
		if ev, ok := e.outbox.pop(); ok {
			return ev, nil
		}
		select {
		case <-e.outbox.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.done:
			if ev, ok := e.outbox.pop(); ok {
				return ev, nil
			}
			return nil, context.Canceled
		}
	}
}

// Ready is signalled when events may be waiting. It is a hint; always
// follow it with Poll.
func (e *Engine) Ready() <-chan struct{} {
	return e.outbox.signal
}

// Pending returns the number of queued events.
func (e *Engine) Pending() int {
	return e.outbox.len()
}

// Latest returns the most recently published snapshot.
func (e *Engine) Latest() (Snapshot, bool) {
	s := e.latest.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Done is closed when the engine goroutine exits.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Close stops the engine goroutine and waits for in-flight analytics.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		<-e.done
		e.analytics.Wait()
	})
}

// Pin, Drag, EndDrag, Release and Reheat wrap Send for callers that only
// need to request mutations.

func (e *Engine) Pin(id string, x, y float64)  { e.Send(Pin{ID: id, X: x, Y: y}) }
func (e *Engine) Drag(id string, x, y float64) { e.Send(Drag{ID: id, X: x, Y: y}) }
func (e *Engine) EndDrag(id string)            { e.Send(EndDrag{ID: id}) }
func (e *Engine) Release(id string)            { e.Send(Unpin{ID: id}) }
func (e *Engine) Reheat(alpha float64)         { e.Send(Reheat{Alpha: alpha}) }

func (e *Engine) run() {
	defer close(e.done)
	defer func() {
		if e.ticker != nil {
			e.ticker.Stop()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			e.logEvent(LogLevelError, "engine_panic", map[string]any{
				"panic": fmt.Sprintf("%v", r),
				"stack": string(debug.Stack()),
			})
		}
	}()

	e.logEvent(LogLevelInfo, "engine_start", nil)
	for {
		select {
		case <-e.ctx.Done():
			e.logEvent(LogLevelInfo, "engine_stop", nil)
			return

		case <-e.inbox.signal:
			for _, c := range e.inbox.drain() {
				e.handle(c)
			}

		case <-e.tickChan():
			e.sim.Tick(1)
			e.publish()
		}
	}
}

// tickChan returns the auto-tick channel, or nil while there is nothing to
// integrate. A nil channel blocks forever in select.
func (e *Engine) tickChan() <-chan time.Time {
	if e.sim == nil || e.sim.Stopped() || e.sim.Rested() || e.sim.cfg.TickInterval <= 0 {
		return nil
	}
	if e.ticker == nil {
		e.ticker = time.NewTicker(e.sim.cfg.TickInterval)
	}
	return e.ticker.C
}

func (e *Engine) resetTicker() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

func (e *Engine) handle(c Command) {
	switch c := c.(type) {
	case Start:
		cfg := e.cfg
		if c.Config != nil {
			cfg = c.Config.Validate()
			e.cfg = cfg
		}
		e.sim = NewSimulation(c.Nodes, c.Edges, cfg)
		e.nodes = cloneNodes(c.Nodes)
		e.ended = false
		e.resetTicker()
		e.logEvent(LogLevelInfo, "start", map[string]any{
			"nodes": len(c.Nodes),
			"edges": len(e.sim.edges),
		})
		e.storeLatest()

	case Update:
		if e.sim == nil {
			e.handle(Start(c))
			return
		}
		if c.Config != nil {
			e.cfg = c.Config.Validate()
		}
		e.sim.Update(c.Nodes, c.Edges, c.Config)
		e.nodes = cloneNodes(c.Nodes)
		e.ended = false
		e.resetTicker()
		e.storeLatest()

	case Tick:
		if e.sim == nil {
			e.logEvent(LogLevelDebug, "tick_ignored", map[string]any{"reason": "not started"})
			return
		}
		e.sim.Tick(c.N)
		e.publish()

	case Pin:
		e.mutate("pin", c.ID, func(s *Simulation) error { return s.Pin(c.ID, c.X, c.Y) })
	case Drag:
		e.mutate("drag", c.ID, func(s *Simulation) error { return s.Drag(c.ID, c.X, c.Y) })
	case EndDrag:
		e.mutate("end_drag", c.ID, func(s *Simulation) error { return s.EndDrag(c.ID) })
	case Unpin:
		e.mutate("unpin", c.ID, func(s *Simulation) error { return s.Unpin(c.ID) })
	case Reheat:
		e.mutate("reheat", "", func(s *Simulation) error { s.Reheat(c.Alpha); return nil })

	case Stop:
		if e.sim != nil {
			e.sim.Stop()
			e.storeLatest()
		}

	case Analyze:
		e.analyze(c)

	default:
		e.logEvent(LogLevelWarn, "unknown_command", map[string]any{"type": fmt.Sprintf("%T", c)})
	}
}

// mutate applies an interactive request. Rejected input is logged and
// otherwise ignored.
func (e *Engine) mutate(op, id string, fn func(*Simulation) error) {
	if e.sim == nil {
		e.logEvent(LogLevelDebug, op+"_ignored", map[string]any{"reason": "not started"})
		return
	}
	if err := fn(e.sim); err != nil {
		e.logEvent(LogLevelDebug, op+"_rejected", map[string]any{"node": id, "error": err.Error()})
		return
	}
	if !e.sim.Rested() {
		e.ended = false
	}
	e.storeLatest()
}

// publish queues a TickEvent and, on first reaching rest, an EndEvent.
func (e *Engine) publish() {
	snap := e.storeLatest()
	e.outbox.push(TickEvent{Snapshot: snap})
	if !e.ended && e.sim.Rested() {
		e.ended = true
		e.outbox.push(EndEvent{Snapshot: snap})
		e.logEvent(LogLevelDebug, "rested", map[string]any{"tick": snap.Tick})
	}
}

func (e *Engine) storeLatest() Snapshot {
	snap := e.sim.Snapshot()
	stored := snap
	e.latest.Store(&stored)
	return snap
}

// analyze runs the request off the engine goroutine against an immutable
// graph built from the current node/edge set.
func (e *Engine) analyze(c Analyze) {
	if e.sim == nil {
		e.outbox.push(AnalyticsEvent{RequestID: c.RequestID, Result: analysis.Result{Kind: c.Request.Kind}, Err: ErrNotStarted})
		return
	}
	g := analysis.NewGraph(e.nodes, e.sim.Edges())
	e.analytics.Add(1)
	go func() {
		defer e.analytics.Done()
		start := time.Now()
		res, err := analysis.Run(e.ctx, g, c.Request)
		e.outbox.push(AnalyticsEvent{RequestID: c.RequestID, Result: res, Err: err})
		e.logEvent(LogLevelDebug, "analytics_done", map[string]any{
			"kind":        string(c.Request.Kind),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}()
}

func (e *Engine) logEvent(level LogLevel, event string, fields map[string]any) {
	if level == LogLevelNone || e.logLevel == LogLevelNone || level > e.logLevel {
		return
	}
	payload := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level.String(),
		"component": "layout_engine",
		"event":     event,
	}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("layout engine: failed to marshal log event %s: %v", event, err)
		return
	}
	if e.logger != nil {
		e.logger.Printf("%s", b)
		return
	}
	log.Printf("%s", b)
}

func cloneNodes(nodes []model.Node) []model.Node {
	out := make([]model.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
