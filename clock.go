package boon

import (
	"container/heap"
	"sync"
	"time"
)

// Clock is the virtual-time abstraction the engine uses for Timer nodes.
// The engine never observes real time directly; it only calls through this
// interface, so tests can substitute TestClock for deterministic advancement.
type Clock interface {
	NowMs() uint64
	RegisterTimer(slot SlotId, intervalMs float64)
	AdvanceBy(ms uint64) []SlotId
	HasPendingTimers() bool
}

type timerEntry struct {
	fireAtMs   uint64
	slot       SlotId
	intervalMs float64
}

type timerHeap []timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].fireAtMs < h[j].fireAtMs }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// TestClock provides controllable virtual time for deterministic tests.
// Time only advances when AdvanceBy is called explicitly; it mirrors the
// original engine's platform/cli/clock.rs TestClock, including
// re-scheduling repeating timers immediately within the same AdvanceBy call
// so cascading fires are captured in one call.
type TestClock struct {
	currentMs uint64
	pending   timerHeap
}

// NewTestClock creates a TestClock starting at time 0.
func NewTestClock() *TestClock {
	return &TestClock{}
}

// NowMs returns the current virtual time.
func (c *TestClock) NowMs() uint64 { return c.currentMs }

// RegisterTimer schedules slot to fire after intervalMs virtual
// milliseconds from now.
func (c *TestClock) RegisterTimer(slot SlotId, intervalMs float64) {
	heap.Push(&c.pending, timerEntry{
		fireAtMs:   c.currentMs + uint64(intervalMs),
		slot:       slot,
		intervalMs: intervalMs,
	})
}

// AdvanceBy moves virtual time forward by ms, firing (and immediately
// re-scheduling) every timer whose deadline falls within the new window.
// A timer with an interval shorter than ms can fire multiple times in one
// call.
func (c *TestClock) AdvanceBy(ms uint64) []SlotId {
	target := c.currentMs + ms
	var fired []SlotId
	for c.pending.Len() > 0 && c.pending[0].fireAtMs <= target {
		e := heap.Pop(&c.pending).(timerEntry)
		fired = append(fired, e.slot)
		heap.Push(&c.pending, timerEntry{
			fireAtMs:   e.fireAtMs + uint64(e.intervalMs),
			slot:       e.slot,
			intervalMs: e.intervalMs,
		})
	}
	c.currentMs = target
	return fired
}

// HasPendingTimers reports whether any timer is scheduled.
func (c *TestClock) HasPendingTimers() bool { return c.pending.Len() > 0 }

// TimeToNextTimer returns milliseconds until the next timer fires, if any.
func (c *TestClock) TimeToNextTimer() (uint64, bool) {
	if c.pending.Len() == 0 {
		return 0, false
	}
	if c.pending[0].fireAtMs <= c.currentMs {
		return 0, true
	}
	return c.pending[0].fireAtMs - c.currentMs, true
}

// ClearTimers removes all pending timers.
func (c *TestClock) ClearTimers() { c.pending = nil }

// RealClock schedules real wakeups with time.AfterFunc for production use.
// Every registration is stamped with the clock's current generation; Reset
// mints a fresh generation (nothing in this package calls it; a host does,
// e.g. when it replaces the engine this clock serves), so timers registered
// before the Reset are silently ignored when they fire rather than
// corrupting a newer engine's state.
type RealClock struct {
	mu         sync.Mutex
	start      time.Time
	generation uint64
	fired      chan SlotId
	pendingN   int
}

// NewRealClock creates a RealClock anchored to the current wall time.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now(), fired: make(chan SlotId, 64)}
}

// NowMs returns milliseconds elapsed since the clock was created.
func (c *RealClock) NowMs() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}

// Generation returns the clock's current generation, bumped by Reset.
func (c *RealClock) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Reset invalidates all currently-scheduled real timers by bumping the
// generation; timers already in flight will see a mismatched generation
// when they fire and do nothing.
func (c *RealClock) Reset() {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()
}

// RegisterTimer schedules a real wakeup after intervalMs.
func (c *RealClock) RegisterTimer(slot SlotId, intervalMs float64) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	time.AfterFunc(time.Duration(intervalMs)*time.Millisecond, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation {
			return
		}
		select {
		case c.fired <- slot:
		default:
		}
	})
}

// AdvanceBy is a no-op for RealClock: real time advances on its own. It
// drains and returns whatever timers have fired since the last call,
// matching the Clock interface so the event loop can treat both clocks
// uniformly between ticks.
func (c *RealClock) AdvanceBy(ms uint64) []SlotId {
	var fired []SlotId
	for {
		select {
		case s := <-c.fired:
			fired = append(fired, s)
		default:
			return fired
		}
	}
}

// HasPendingTimers reports whether any real timer fire is buffered.
func (c *RealClock) HasPendingTimers() bool {
	return len(c.fired) > 0
}
