package boon

import (
	"time"

	"go.uber.org/zap"
)

// nodeInputs returns all input SlotIds a node declares (inline + overflow),
// used both for topological sort edges and for generic iteration. Invalid
// entries (unset input pins) are omitted.
func nodeInputs(node *ReactiveNode) []SlotId {
	out := make([]SlotId, 0, node.InputCount)
	for i := 0; i < int(node.InputCount) && i < len(node.Inputs); i++ {
		if node.Inputs[i].IsValid() {
			out = append(out, node.Inputs[i])
		}
	}
	if node.Extension != nil {
		for _, s := range node.Extension.ExtraInputs {
			if s.IsValid() {
				out = append(out, s)
			}
		}
	}
	return out
}

// topoOrder returns all arena slots in topological order (dependencies
// first), computed lazily and cached per graph generation. Cycles (which
// the compiler must avoid except through a pulse boundary, e.g. Register)
// are broken by appending any slot Kahn's algorithm could not place, in
// index order.
func (e *Engine) topoOrder() []SlotId {
	if cached, ok := e.topoCache.Get(e.graphGeneration); ok {
		return cached
	}
	order := e.computeTopoOrder()
	e.topoCache.Add(e.graphGeneration, order)
	return order
}

func (e *Engine) computeTopoOrder() []SlotId {
	n := e.arena.Len()
	indegree := make([]int, n)
	adj := make([][]int, n)

	for i := 0; i < n; i++ {
		node := &e.arena.nodes[i]
		for _, in := range nodeInputs(node) {
			if !e.arena.IsValid(in) {
				continue
			}
			adj[in.Index] = append(adj[in.Index], i)
			indegree[i]++
		}
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]SlotId, 0, n)
	visited := make([]bool, n)
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		if visited[idx] {
			continue
		}
		visited[idx] = true
		order = append(order, SlotId{Index: uint32(idx), Generation: e.arena.nodes[idx].Generation})
		for _, nb := range adj[idx] {
			indegree[nb]--
			if indegree[nb] == 0 {
				queue = append(queue, nb)
			}
		}
	}
	for i := 0; i < n; i++ {
		if !visited[i] {
			order = append(order, SlotId{Index: uint32(i), Generation: e.arena.nodes[i].Generation})
		}
	}
	return order
}

// Tick runs one atomic, synchronous scheduler iteration: ingest events,
// instantiate new list items, stabilize levels, fire pulses once,
// propagate their effect, reset pulses, then clear the inbox. Tick does not
// hand timers to the Clock: re-schedule requests queued by FireTimer stay
// in the engine until the host drains them with TakePendingTimers.
func (e *Engine) Tick() TickResult {
	if !e.mu.TryLock() {
		return TickResult{Error: ErrReentrantTick}
	}
	if e.ticking {
		e.mu.Unlock()
		return TickResult{Error: ErrReentrantTick}
	}
	e.ticking = true
	defer func() {
		e.mu.Lock()
		e.ticking = false
		e.mu.Unlock()
	}()
	defer e.mu.Unlock()

	start := time.Now()
	ctx, span := startTickSpan(ctxOrBackground(), e.tracer, e.countDirty())
	_ = ctx
	defer span.End()

	// Step 1: ingest events.
	events := e.pendingEvents
	e.pendingEvents = nil
	for _, ev := range events {
		if ev.isTimerFire {
			e.fireTimerNode(ev.slot)
			continue
		}
		if ev.hasPayload {
			e.inbox[inboxKey{ev.slot, ev.port}] = ev.payload
		}
		e.setDirty(ev.slot)
		for _, sub := range e.routing.GetSubscribers(ev.slot) {
			e.setDirty(sub.Target)
		}
	}
	dirtyAtStart := e.countDirty()
	e.metrics.dirtySlots.Set(float64(dirtyAtStart))

	// Step 2: instantiate list items for triggered ListAppenders.
	e.instantiateListItems()

	order := e.topoOrder()

	// Step 3: stabilization loop.
	passes := 0
	converged := false
	for passes < e.cfg.StabilizationPassCap {
		passes++
		if !e.stabilizeOnce(order, false) {
			converged = true
			break
		}
	}
	capHit := !converged

	// Step 4: pulse phase.
	fired := e.runPulsePhase(order)

	// Step 5: pulse propagation (bounded, second stabilization loop).
	passes2 := 0
	for passes2 < e.cfg.PulsePropagationPassCap {
		passes2++
		if !e.stabilizeOnce(order, false) {
			break
		}
	}

	// Step 6: pulse reset.
	for slot := range fired {
		if node, err := e.arena.Get(slot); err == nil && node.Extension != nil {
			node.Extension.HasValue = false
			node.Extension.CurrentValue = Unit
		}
	}

	// Step 7: clear inbox (pending timers stay queued for TakePendingTimers).
	for k := range e.inbox {
		delete(e.inbox, k)
	}

	e.metrics.tickDuration.Observe(time.Since(start).Seconds())
	e.metrics.tickPasses.Observe(float64(passes + passes2))

	quiescent := !capHit && e.isQuiescentLocked()
	if capHit {
		e.metrics.nonQuiescent.Inc()
		e.logger.Warn("stabilization pass cap exceeded", zapPasses(passes)...)
	}
	e.logger.Debug("tick complete",
		zap.Int("passes", passes+passes2),
		zap.Int("dirty_slots", dirtyAtStart),
	)
	return TickResult{Quiescent: quiescent, Passes: passes + passes2}
}

// stabilizeOnce runs one sweep of the dirty set in topological order,
// skipping pulse kinds (handled separately), and returns whether anything
// changed. Invariant (4): dirty is reset before a slot is re-evaluated.
func (e *Engine) stabilizeOnce(order []SlotId, _ bool) bool {
	changedAny := false
	for _, slot := range order {
		node, err := e.arena.Get(slot)
		if err != nil || !node.Dirty {
			continue
		}
		if node.KindTag.IsPulse() {
			continue
		}
		node.Dirty = false
		newVal, changed := e.computeLevel(slot, node)
		if changed {
			node.SetCurrentValue(newVal)
			changedAny = true
			e.markSubscribersDirty(slot)
		}
	}
	return changedAny
}

// runPulsePhase visits each pulse-producing slot once; fired pulses are
// recorded for reset in step 6 and their subscribers are marked dirty so
// pulse propagation (step 5) observes them within the same tick. Each
// visited pulse slot's dirty flag is cleared; a Pulses node with values
// left to emit stays dirty so the engine is not quiescent until it is done.
func (e *Engine) runPulsePhase(order []SlotId) map[SlotId]bool {
	fired := make(map[SlotId]bool)
	for _, slot := range order {
		node, err := e.arena.Get(slot)
		if err != nil || !node.KindTag.IsPulse() {
			continue
		}
		node.Dirty = false
		val, ok := e.computePulse(slot, node)
		if pd, isPulses := node.Extension.Kind.Data.(*PulsesData); isPulses && pd.Current < pd.Total {
			node.Dirty = true
		}
		if !ok {
			continue
		}
		node.SetCurrentValue(val)
		fired[slot] = true
		e.markSubscribersDirty(slot)
	}
	return fired
}

func (e *Engine) markSubscribersDirty(slot SlotId) {
	for _, sub := range e.routing.GetSubscribers(slot) {
		e.setDirty(sub.Target)
	}
}

func (e *Engine) setDirty(slot SlotId) {
	if node, err := e.arena.Get(slot); err == nil {
		node.Dirty = true
	}
}

func (e *Engine) countDirty() int {
	n := 0
	for i := range e.arena.nodes {
		if e.arena.nodes[i].Dirty {
			n++
		}
	}
	return n
}

// isQuiescentLocked reports no dirty slot, no pending timer, and no queued
// event. Caller must already hold e.mu (or be single-threaded within Tick).
func (e *Engine) isQuiescentLocked() bool {
	if e.countDirty() > 0 {
		return false
	}
	if e.clock != nil && e.clock.HasPendingTimers() {
		return false
	}
	return len(e.pendingEvents) == 0
}

func (e *Engine) fireTimerNode(slot SlotId) {
	node, err := e.arena.Get(slot)
	if err != nil || node.KindTag != KindTimer {
		return
	}
	data, ok := node.Extension.Kind.Data.(*TimerData)
	if !ok || !data.Active {
		return
	}
	data.FireCount++
	e.setDirty(slot)
	e.markSubscribersDirty(slot)
	e.pendingTimers = append(e.pendingTimers, PendingTimer{Slot: slot, IntervalMs: data.IntervalMs})
}
