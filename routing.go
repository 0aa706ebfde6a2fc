package boon

// RoutingTable is a cached subscriber list: source_slot -> [(target, port)].
// It is only a cache; the source of truth for a node's dependencies is its
// own kind-specific input fields (RoutingTable.RemoveSlot does not need to
// touch those — the arena slot is being freed at the same time).
type RoutingTable struct {
	routes map[SlotId][]routeEntry
}

type routeEntry struct {
	target SlotId
	port   Port
}

// NewRoutingTable creates an empty routing table.
func NewRoutingTable() *RoutingTable {
	return &RoutingTable{routes: make(map[SlotId][]routeEntry)}
}

// AddRoute records that target (at port) subscribes to source.
func (r *RoutingTable) AddRoute(source, target SlotId, port Port) {
	r.routes[source] = append(r.routes[source], routeEntry{target, port})
}

// RemoveRoute removes one subscription from source to target at port.
func (r *RoutingTable) RemoveRoute(source, target SlotId, port Port) {
	entries, ok := r.routes[source]
	if !ok {
		return
	}
	out := entries[:0]
	for _, e := range entries {
		if e.target != target || e.port != port {
			out = append(out, e)
		}
	}
	r.routes[source] = out
}

// GetSubscribers returns all (target, port) pairs subscribed to source.
func (r *RoutingTable) GetSubscribers(source SlotId) []struct {
	Target SlotId
	Port   Port
} {
	entries := r.routes[source]
	out := make([]struct {
		Target SlotId
		Port   Port
	}, len(entries))
	for i, e := range entries {
		out[i] = struct {
			Target SlotId
			Port   Port
		}{e.target, e.port}
	}
	return out
}

// RemoveSlot wipes all routes touching slot, both as a source and as a
// target. Called when the arena frees the slot.
func (r *RoutingTable) RemoveSlot(slot SlotId) {
	delete(r.routes, slot)
	for source, entries := range r.routes {
		out := entries[:0]
		for _, e := range entries {
			if e.target != slot {
				out = append(out, e)
			}
		}
		r.routes[source] = out
	}
}
