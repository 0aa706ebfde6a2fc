package boon

// NodeExtension is the heap-allocated part of a slot, present only once a
// slot carries a value or kind data. Most freshly-allocated slots (before
// the compiler wires their kind) don't need it, so it is allocated lazily,
// mirroring the original engine's Option<Box<NodeExtension>>.
type NodeExtension struct {
	CurrentValue   Payload
	HasValue       bool
	PendingDeltas  []Payload
	Kind           NodeKind
	ExtraInputs    []SlotId
	ExtraSubscribers []SlotId
}

// ReactiveNode is one slot in the Arena. Every reactive node in the graph
// occupies one of these. Inline arrays hold up to 4 inputs and 2
// subscribers directly; anything beyond that overflows into the
// extension's ExtraInputs/ExtraSubscribers.
type ReactiveNode struct {
	Generation      uint32
	Version         uint32
	Dirty           bool
	KindTag         NodeKindTag
	InputCount      uint8
	SubscriberCount uint8
	Inputs          [4]SlotId
	Subscribers     [2]SlotId
	Extension       *NodeExtension
}

func newReactiveNode() ReactiveNode {
	n := ReactiveNode{}
	for i := range n.Inputs {
		n.Inputs[i] = InvalidSlot
	}
	for i := range n.Subscribers {
		n.Subscribers[i] = InvalidSlot
	}
	return n
}

// ext lazily allocates and returns the node's extension.
func (n *ReactiveNode) ext() *NodeExtension {
	if n.Extension == nil {
		n.Extension = &NodeExtension{Kind: NodeKind{Tag: KindWire}}
	}
	return n.Extension
}

// Kind returns the node's kind data, if the extension has been allocated.
func (n *ReactiveNode) Kind() (NodeKind, bool) {
	if n.Extension == nil {
		return NodeKind{}, false
	}
	return n.Extension.Kind, true
}

// SetKind installs kind data on the node, allocating the extension if
// necessary, and sets the fast KindTag header used for dirty dispatch.
func (n *ReactiveNode) SetKind(k NodeKind) {
	n.ext().Kind = k
	n.KindTag = k.Tag
}

// CurrentValue returns the node's last computed value. Per invariant (2),
// this is the value computed by the most recent tick in which the slot was
// visited, or the persisted initial value if it has never been computed.
func (n *ReactiveNode) CurrentValue() Payload {
	if n.Extension == nil || !n.Extension.HasValue {
		return Unit
	}
	return n.Extension.CurrentValue
}

// SetCurrentValue stores a new current value and bumps Version.
func (n *ReactiveNode) SetCurrentValue(p Payload) {
	e := n.ext()
	e.CurrentValue = p
	e.HasValue = true
	n.Version++
}

// Arena is the generational slot store for reactive nodes, plus the
// process-wide (per-Engine) intern tables for field and tag names. The
// arena exclusively owns every slot; SlotId is a handle, not an owner.
//
// Concurrency: an Arena is mutably used for the duration of one Tick; the
// engine does not allow Tick to be called re-entrantly (see Engine.Tick),
// so no internal locking is needed here — the engine runs a single-threaded
// cooperative scheduling model.
type Arena struct {
	nodes    []ReactiveNode
	freeList []uint32
	addresses map[SlotId]NodeAddress

	fieldNames map[FieldId]string
	fieldIDs   map[string]FieldId
	nextField  FieldId

	tagNames map[TagId]string
	tagIDs   map[string]TagId
	nextTag  TagId
}

// NewArena creates an empty arena with room for the given number of slots.
func NewArena(capacity int) *Arena {
	return &Arena{
		nodes:      make([]ReactiveNode, 0, capacity),
		addresses:  make(map[SlotId]NodeAddress),
		fieldNames: make(map[FieldId]string),
		fieldIDs:   make(map[string]FieldId),
		tagNames:   make(map[TagId]string),
		tagIDs:     make(map[string]TagId),
	}
}

// Alloc reuses a freed index if available (bumping its generation), else
// pushes a new slot.
func (a *Arena) Alloc() SlotId {
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.nodes[idx].Generation++
		a.nodes[idx].Dirty = false
		a.nodes[idx].Extension = nil
		a.nodes[idx].InputCount = 0
		a.nodes[idx].SubscriberCount = 0
		return SlotId{Index: idx, Generation: a.nodes[idx].Generation}
	}
	idx := uint32(len(a.nodes))
	a.nodes = append(a.nodes, newReactiveNode())
	return SlotId{Index: idx, Generation: 0}
}

// AllocWithAddress allocates a slot and records its NodeAddress for later
// lookup (e.g. deterministic sorting, cross-domain subscription).
func (a *Arena) AllocWithAddress(addr NodeAddress) SlotId {
	s := a.Alloc()
	a.addresses[s] = addr
	return s
}

// Free bumps the slot's generation, adds its index to the free list, and
// removes its NodeAddress entry. Any SlotId referring to the old generation
// becomes permanently invalid (invariant (1)).
func (a *Arena) Free(s SlotId) {
	if !a.IsValid(s) {
		return
	}
	a.nodes[s.Index].Generation++
	a.nodes[s.Index].Extension = nil
	a.nodes[s.Index].Dirty = false
	a.freeList = append(a.freeList, s.Index)
	delete(a.addresses, s)
}

// IsValid reports whether s still refers to a live slot.
func (a *Arena) IsValid(s SlotId) bool {
	return s.IsValid() && int(s.Index) < len(a.nodes) && a.nodes[s.Index].Generation == s.Generation
}

// Get returns the node for s, or (nil, ErrInvalidSlot) if s is stale.
func (a *Arena) Get(s SlotId) (*ReactiveNode, error) {
	if !a.IsValid(s) {
		return nil, ErrInvalidSlot
	}
	return &a.nodes[s.Index], nil
}

// GetMut is an alias for Get: Go references are already mutable, so there
// is no separate read/write accessor the way Rust's borrow checker
// requires. Kept as a named method for readers used to a two-accessor
// convention elsewhere in generational-arena designs.
func (a *Arena) GetMut(s SlotId) (*ReactiveNode, error) {
	return a.Get(s)
}

// GetAddress returns the NodeAddress recorded for s, if any.
func (a *Arena) GetAddress(s SlotId) (NodeAddress, bool) {
	addr, ok := a.addresses[s]
	return addr, ok
}

// Len returns the number of slots in the arena, including freed ones.
func (a *Arena) Len() int { return len(a.nodes) }

// InternField interns a field name, returning its FieldId. Idempotent:
// repeated calls with the same name return the same id. Concurrent-safe is
// not required (single-threaded engine).
func (a *Arena) InternField(name string) FieldId {
	if id, ok := a.fieldIDs[name]; ok {
		return id
	}
	id := a.nextField
	a.nextField++
	a.fieldNames[id] = name
	a.fieldIDs[name] = id
	return id
}

// FieldName resolves a FieldId back to its string, for snapshot/protocol
// encoding.
func (a *Arena) FieldName(id FieldId) (string, bool) {
	name, ok := a.fieldNames[id]
	return name, ok
}

// FieldID looks up an already-interned field name.
func (a *Arena) FieldID(name string) (FieldId, bool) {
	id, ok := a.fieldIDs[name]
	return id, ok
}

// InternTag interns a tag name, returning its TagId.
func (a *Arena) InternTag(name string) TagId {
	if id, ok := a.tagIDs[name]; ok {
		return id
	}
	id := a.nextTag
	a.nextTag++
	a.tagNames[id] = name
	a.tagIDs[name] = id
	return id
}

// TagName resolves a TagId back to its string.
func (a *Arena) TagName(id TagId) (string, bool) {
	name, ok := a.tagNames[id]
	return name, ok
}

// TagID looks up an already-interned tag name.
func (a *Arena) TagID(name string) (TagId, bool) {
	id, ok := a.tagIDs[name]
	return id, ok
}

// IterFieldNames calls fn for every interned field name, for snapshotting.
func (a *Arena) IterFieldNames(fn func(FieldId, string)) {
	for id, name := range a.fieldNames {
		fn(id, name)
	}
}

// IterTagNames calls fn for every interned tag name, for snapshotting.
func (a *Arena) IterTagNames(fn func(TagId, string)) {
	for id, name := range a.tagNames {
		fn(id, name)
	}
}
