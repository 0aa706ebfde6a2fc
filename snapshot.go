package boon

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// SerializedPayload is the snapshot wire shape for one persisted value.
// Exactly one field is set, discriminated by Kind. Transient payloads
// (Flushed, deltas) are never persisted; CreateSnapshot skips them.
type SerializedPayload struct {
	Kind string `json:"kind"`

	Number float64              `json:"number,omitempty"`
	Text   string               `json:"text,omitempty"`
	Bool   bool                 `json:"bool,omitempty"`
	Tag    uint32               `json:"tag,omitempty"`
	List   []SerializedPayload  `json:"list,omitempty"`
	Object map[string]SerializedPayload `json:"object,omitempty"`

	TaggedTag    uint32            `json:"tagged_tag,omitempty"`
	TaggedFields map[string]SerializedPayload `json:"tagged_fields,omitempty"`
}

// Snapshot is the full versioned persistence record: persisted node values
// keyed by "<stable_id>:<scope_id>", plus the intern tables
// needed to make field/tag ids meaningful again after a restart.
type Snapshot struct {
	Version    int                          `json:"version"`
	Values     map[string]SerializedPayload `json:"values"`
	FieldNames map[string]string            `json:"field_names"`
	TagNames   map[string]string            `json:"tag_names"`
}

const snapshotVersion = 1

func stableKey(addr NodeAddress) string {
	return fmt.Sprintf("%d-%d:%d", addr.Source.StableHash, addr.Source.ParseOrder, addr.Scope)
}

// CreateSnapshot walks every addressed slot with a persistable current
// value and serializes it, keyed by its stable source+scope identity.
// Transient kinds (Flushed, ListDelta, ObjectDelta) are skipped: they
// describe a single tick's event, not durable state.
func (e *Engine) CreateSnapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Version:    snapshotVersion,
		Values:     make(map[string]SerializedPayload),
		FieldNames: make(map[string]string),
		TagNames:   make(map[string]string),
	}
	for i := range e.arena.nodes {
		node := &e.arena.nodes[i]
		if node.Extension == nil || !node.Extension.HasValue {
			continue
		}
		slot := SlotId{Index: uint32(i), Generation: node.Generation}
		addr, ok := e.arena.GetAddress(slot)
		if !ok {
			continue
		}
		ser, ok := e.serializePayload(node.CurrentValue())
		if !ok {
			continue
		}
		snap.Values[stableKey(addr)] = ser
	}
	e.arena.IterFieldNames(func(id FieldId, name string) {
		snap.FieldNames[strconv.FormatUint(uint64(id), 10)] = name
	})
	e.arena.IterTagNames(func(id TagId, name string) {
		snap.TagNames[strconv.FormatUint(uint64(id), 10)] = name
	})
	return snap
}

func (e *Engine) serializePayload(p Payload) (SerializedPayload, bool) {
	switch p.Kind {
	case KindUnit:
		return SerializedPayload{Kind: "unit"}, true
	case KindNumber:
		return SerializedPayload{Kind: "number", Number: p.Number}, true
	case KindText:
		return SerializedPayload{Kind: "text", Text: p.Text}, true
	case KindBool:
		return SerializedPayload{Kind: "bool", Bool: p.Bool}, true
	case KindTag:
		return SerializedPayload{Kind: "tag", Tag: uint32(p.Tag)}, true
	case KindListHandle:
		items := e.serializeList(p.Handle, make(map[SlotId]bool))
		return SerializedPayload{Kind: "list", List: items}, true
	case KindObjectHandle:
		fields := e.serializeObject(p.Handle, make(map[SlotId]bool))
		return SerializedPayload{Kind: "object", Object: fields}, true
	case KindTaggedObject:
		fields := e.serializeObject(p.TaggedFields, make(map[SlotId]bool))
		return SerializedPayload{Kind: "tagged_object", TaggedTag: uint32(p.TaggedTag), TaggedFields: fields}, true
	}
	return SerializedPayload{}, false
}

func (e *Engine) serializeList(bus SlotId, visiting map[SlotId]bool) []SerializedPayload {
	if visiting[bus] {
		return nil
	}
	visiting[bus] = true
	defer delete(visiting, bus)

	node, err := e.arena.Get(bus)
	if err != nil || node.Extension == nil {
		return nil
	}
	data, ok := node.Extension.Kind.Data.(*BusData)
	if !ok {
		return nil
	}
	out := make([]SerializedPayload, 0, len(data.Items))
	for _, it := range data.Items {
		itemNode, err := e.arena.Get(it.Slot)
		if err != nil {
			continue
		}
		if ser, ok := e.serializePayload(itemNode.CurrentValue()); ok {
			out = append(out, ser)
		}
	}
	return out
}

func (e *Engine) serializeObject(router SlotId, visiting map[SlotId]bool) map[string]SerializedPayload {
	if visiting[router] {
		return nil
	}
	visiting[router] = true
	defer delete(visiting, router)

	node, err := e.arena.Get(router)
	if err != nil || node.Extension == nil {
		return nil
	}
	data, ok := node.Extension.Kind.Data.(*RouterData)
	if !ok {
		return nil
	}
	out := make(map[string]SerializedPayload, len(data.Fields))
	for fid, slot := range data.Fields {
		name, ok := e.arena.FieldName(fid)
		if !ok {
			continue
		}
		fieldNode, err := e.arena.Get(slot)
		if err != nil {
			continue
		}
		if ser, ok := e.serializePayload(fieldNode.CurrentValue()); ok {
			out[name] = ser
		}
	}
	return out
}

// RestoreSnapshot applies previously-persisted values to slots whose
// current NodeAddress matches a snapshot key. Missing keys are treated as
// absent and extra keys are ignored: restoring is a best
// effort overlay onto an already-compiled graph, not a graph rebuild.
// Handle-valued entries (list/object) cannot be reattached to fresh Bus/
// Router slots without compiler cooperation, so only scalar values are
// restored; this is recorded as a limitation, not silently dropped state.
func (e *Engine) RestoreSnapshot(snap Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: got version %d, want %d", ErrSnapshotParse, snap.Version, snapshotVersion)
	}
	for _, name := range snap.FieldNames {
		e.arena.InternField(name)
	}
	for _, name := range snap.TagNames {
		e.arena.InternTag(name)
	}

	for i := range e.arena.nodes {
		node := &e.arena.nodes[i]
		slot := SlotId{Index: uint32(i), Generation: node.Generation}
		addr, ok := e.arena.GetAddress(slot)
		if !ok {
			continue
		}
		ser, ok := snap.Values[stableKey(addr)]
		if !ok {
			continue
		}
		val, ok := e.deserializeScalar(ser)
		if !ok {
			continue
		}
		node.SetCurrentValue(val)
		node.Dirty = true
		e.markSubscribersDirty(slot)
	}
	e.bumpGraphGeneration()
	return nil
}

func (e *Engine) deserializeScalar(s SerializedPayload) (Payload, bool) {
	switch s.Kind {
	case "unit":
		return Unit, true
	case "number":
		return NumberPayload(s.Number), true
	case "text":
		return TextPayload(s.Text), true
	case "bool":
		return BoolPayload(s.Bool), true
	case "tag":
		return TagPayload(TagId(s.Tag)), true
	}
	return Payload{}, false
}

// MarshalSnapshot and UnmarshalSnapshot are the JSON boundary the CLI's
// --state flag encodes and decodes through; kept separate from
// Create/RestoreSnapshot so tests can exercise the in-memory struct without
// round-tripping through bytes.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return snapshotJSON.MarshalIndent(s, "", "  ")
}

func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := snapshotJSON.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotParse, err)
	}
	return s, nil
}
