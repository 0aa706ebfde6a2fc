package differential

import (
	"fmt"

	"github.com/boonlang/boon"
)

// passCap bounds how many sweeps Step runs per Tick, mirroring the arena
// engine's stabilization pass cap and its PassCapExceeded condition.
const passCap = 1000

// slotKey renders a boon.SlotId/Port pair as this package's string key
// space, since Collection and KeyedDiff address state by name rather than
// by generational arena slot.
func slotKey(slot boon.SlotId, port boon.Port) string {
	return fmt.Sprintf("%d.%d:%d.%d.%d", slot.Index, slot.Generation, port.Kind, port.Input, port.Field)
}

// Runtime implements boon.Runtime over a keyed-collection Graph instead of
// the generational arena: Inject feeds an InputSession, Tick steps the
// graph to quiescence, and Read/Snapshot/Restore operate on a single
// KeyedHoldStateOperator holding the graph's externally-visible state.
type Runtime struct {
	graph   *Graph
	session *InputSession
	state   *KeyedHoldStateOperator
}

// NewRuntime builds a Runtime with one input session feeding directly into
// a held-state operator; callers wanting additional operators (retain, map,
// count) should build their own Graph and wrap it instead of using this
// convenience constructor.
func NewRuntime() *Runtime {
	g := NewGraph()
	session := g.NewInputSession(InputId(1))
	state := NewKeyedHoldStateOperator("state", session.Output())
	g.AddOperator(state)
	return &Runtime{graph: g, session: session, state: state}
}

// Tick steps the graph to quiescence, bounded by passCap, and publishes
// every freshly held value to the graph's display/persistence channels.
func (r *Runtime) Tick() boon.TickResult {
	passes := 0
	for ; passes < passCap; passes++ {
		before := len(r.state.out)
		r.graph.Step(1)
		if len(r.state.out) == before {
			break
		}
	}
	for {
		select {
		case d := <-r.state.out:
			r.graph.Publish(d)
		default:
			return boon.TickResult{Quiescent: passes < passCap, Passes: passes + 1}
		}
	}
}

// Inject pushes payload into the input session under slot/port's key,
// satisfying boon.Runtime's event-ingestion contract.
func (r *Runtime) Inject(slot boon.SlotId, port boon.Port, payload boon.Payload) {
	r.session.Insert(slotKey(slot, port), payload)
}

// Read returns the currently held payload for slot's default output port.
func (r *Runtime) Read(slot boon.SlotId) (boon.Payload, bool) {
	v, ok := r.state.coll.Get(slotKey(slot, boon.Port{Kind: boon.PortOutput}))
	if !ok {
		return boon.Payload{}, false
	}
	p, ok := v.(boon.Payload)
	return p, ok
}

// Snapshot serializes every held scalar value, in the same wire shape the
// arena engine uses, so a host can persist either backend interchangeably.
func (r *Runtime) Snapshot() boon.Snapshot {
	snap := boon.Snapshot{Values: make(map[string]boon.SerializedPayload)}
	for k, v := range r.state.Snapshot() {
		p, ok := v.(boon.Payload)
		if !ok {
			continue
		}
		sp, ok := serializeForSnapshot(p)
		if !ok {
			continue
		}
		snap.Values[k] = sp
	}
	return snap
}

// Restore re-injects every scalar value from snap back into the held-state
// operator under its original key, the differential analogue of
// Engine.RestoreSnapshot. Handle-valued entries are never produced by
// Snapshot, so none are expected here either.
func (r *Runtime) Restore(snap boon.Snapshot) error {
	for key, sp := range snap.Values {
		p, ok := deserializeFromSnapshot(sp)
		if !ok {
			continue
		}
		r.session.Insert(key, p)
	}
	r.graph.Step(1)
	for {
		select {
		case <-r.state.out:
		default:
			return nil
		}
	}
}

var _ boon.Runtime = (*Runtime)(nil)
