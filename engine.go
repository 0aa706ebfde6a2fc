package boon

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// pendingEvent is an event queued by Inject/MarkDirty/FireTimer before a
// tick; ingested at the start of the next Tick.
type pendingEvent struct {
	slot      SlotId
	port      Port
	payload   Payload
	hasPayload bool
	isTimerFire bool
}

type inboxKey struct {
	slot SlotId
	port Port
}

// PendingTimer is a newly-registered timer drained by TakePendingTimers
// after a tick, handed to the Clock abstraction by the host.
type PendingTimer struct {
	Slot       SlotId
	IntervalMs float64
}

// TickResult reports the outcome of one Engine.Tick call.
type TickResult struct {
	// Quiescent is true when, at the end of this tick, the dirty set is
	// empty, the Clock has no pending timer, and no event is queued.
	Quiescent bool
	// Passes is the total number of stabilization passes executed
	// (stabilization loop + pulse propagation loop).
	Passes int
	// Error is non-nil only for ErrReentrantTick; a PassCapExceeded
	// condition is reported via Quiescent=false, not Error.
	Error error
}

// RunResult reports the outcome of RunUntilQuiescent.
type RunResult struct {
	Ticks     int
	Quiescent bool
}

// Engine is the reactive graph runtime: arena, routing table, event loop,
// and the Clock it drains timers from. One Engine instance is not shared
// across goroutines; Tick must be invoked from one logical thread at a
// time. The mutex below exists only to turn an accidental
// concurrent/re-entrant call into ErrReentrantTick instead of silent data
// races, not to enable real concurrent ticking.
type Engine struct {
	mu      sync.Mutex
	ticking bool

	arena   *Arena
	routing *RoutingTable
	clock   Clock

	pendingEvents []pendingEvent
	inbox         map[inboxKey]Payload
	pendingTimers []PendingTimer

	instanceID string

	cfg     Config
	logger  *zap.Logger
	metrics *engineMetrics
	tracer  trace.Tracer

	topoCache      *lru.Cache[uint64, []SlotId]
	graphGeneration uint64
	allSlotsCache  []SlotId
}

// NewEngine constructs an Engine with the given options applied over
// DefaultConfig.
func NewEngine(opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	cache, _ := lru.New[uint64, []SlotId](8)
	instanceID := uuid.New().String()
	e := &Engine{
		arena:      NewArena(1024),
		routing:    NewRoutingTable(),
		clock:      NewTestClock(),
		inbox:      make(map[inboxKey]Payload),
		instanceID: instanceID,
		cfg:        cfg,
		logger:     newLogger(cfg.LogLevel, cfg.LogFile).With(zap.String("boon.instance_id", instanceID)),
		metrics:    newEngineMetrics(),
		tracer:     newTracer("boon", cfg.OTLPEndpoint, instanceID),
		topoCache:  cache,
	}
	return e
}

// SetClock replaces the engine's clock abstraction (e.g. swapping a
// TestClock for a RealClock in production).
func (e *Engine) SetClock(c Clock) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = c
}

// Clock returns the engine's current clock abstraction, for a host driving
// virtual time directly (the CLI test runner's `Test/advance` directive;
// production hosts instead let RealClock fire on its own and call
// FireTimer from its callback).
func (e *Engine) Clock() Clock {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock
}

// Arena exposes the underlying arena for advanced/test use (e.g. the
// differential backend's adapters, or direct slot inspection in tests).
func (e *Engine) Arena() *Arena { return e.arena }

// Routing exposes the underlying routing table for advanced/test use.
func (e *Engine) Routing() *RoutingTable { return e.routing }

// MetricsHandler returns an http.Handler serving this engine's Prometheus
// metrics, for a host wiring --metrics-addr.
func (e *Engine) MetricsHandler() http.Handler { return e.metrics.Handler() }

// MarkDirty marks slot (and, transitively at the next tick, its
// subscribers) dirty. Queued like Inject: observed by the next Tick call,
// not applied immediately, so two events targeting the same tick see
// last-write-wins semantics rather than racing mid-tick.
func (e *Engine) MarkDirty(slot SlotId, port Port) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingEvents = append(e.pendingEvents, pendingEvent{slot: slot, port: port})
}

// Inject delivers payload to (slot, port), to be ingested at the start of
// the next Tick. Between two events targeting the same (slot, port)
// before a tick, last write wins; earlier writes are lost.
func (e *Engine) Inject(slot SlotId, port Port, payload Payload) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingEvents = append(e.pendingEvents, pendingEvent{slot: slot, port: port, payload: payload, hasPayload: true})
}

// FireTimer queues a timer fire for slot, ingested at the start of the next
// Tick like any other event.
func (e *Engine) FireTimer(slot SlotId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingEvents = append(e.pendingEvents, pendingEvent{slot: slot, isTimerFire: true})
}

// GetCurrentValue returns slot's current value, or (Unit, false) if the
// slot is invalid (use-after-free) or has never been computed.
func (e *Engine) GetCurrentValue(slot SlotId) (Payload, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	node, err := e.arena.Get(slot)
	if err != nil {
		return Unit, false
	}
	if node.Extension == nil || !node.Extension.HasValue {
		return Unit, false
	}
	return node.Extension.CurrentValue, true
}

// TakePendingTimers drains and returns timers newly registered during the
// most recent Tick, for the host to hand to its Clock.
func (e *Engine) TakePendingTimers() []PendingTimer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pendingTimers
	e.pendingTimers = nil
	return out
}

// ExpandPayloadToJSON resolves handles to nested JSON structures,
// traversing Bus/Router slots through the arena.
func (e *Engine) ExpandPayloadToJSON(p Payload) (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.expandPayload(p, make(map[SlotId]bool))
	return json.Marshal(v)
}

// RunUntilQuiescent runs Tick repeatedly until the dirty set and timer
// queue are both empty or maxTicks is reached.
func (e *Engine) RunUntilQuiescent(maxTicks int) RunResult {
	ticks := 0
	for ticks < maxTicks {
		res := e.Tick()
		ticks++
		if res.Error != nil {
			return RunResult{Ticks: ticks, Quiescent: false}
		}
		if res.Quiescent {
			return RunResult{Ticks: ticks, Quiescent: true}
		}
	}
	return RunResult{Ticks: ticks, Quiescent: false}
}

// bumpGraphGeneration invalidates the topological-order cache; called
// whenever Compile or list-item instantiation changes the edge set.
func (e *Engine) bumpGraphGeneration() {
	e.graphGeneration++
}

func (e *Engine) markAllDirty(slots []SlotId) {
	for _, s := range slots {
		if n, err := e.arena.Get(s); err == nil {
			n.Dirty = true
		}
	}
}

// ctxOrBackground is a small helper so tick spans have a context even when
// the embedding host doesn't pass one through the (context-free) public
// Tick API, matching the engine's synchronous, non-cancellable tick model.
func ctxOrBackground() context.Context { return context.Background() }
