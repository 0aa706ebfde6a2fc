package boon

import "fmt"

// PayloadKind discriminates the Payload tagged union.
type PayloadKind uint8

const (
	KindUnit PayloadKind = iota
	KindNumber
	KindText
	KindTag
	KindBool
	KindListHandle
	KindObjectHandle
	KindTaggedObject
	KindFlushed
	KindListDelta
	KindObjectDelta
)

// Payload is the tagged value carried by a node's output. Handles
// (ListHandle/ObjectHandle) are references, not owned values: the referred
// slot (a Bus for lists, a Router for objects) exclusively owns the
// container's state. Strings are plain Go strings, already immutable and
// cheap to share, so no separate reference-counted wrapper is needed the
// way the Rust original uses Arc<str>.
type Payload struct {
	Kind PayloadKind

	Number float64
	Text   string
	Tag    TagId
	Bool   bool

	Handle SlotId // ListHandle / ObjectHandle

	TaggedTag    TagId
	TaggedFields SlotId

	Flushed *Payload

	ListDelta   ListDelta
	ObjectDelta ObjectDelta
}

// Unit is the canonical unit payload.
var Unit = Payload{Kind: KindUnit}

// NumberPayload constructs a Number payload.
func NumberPayload(n float64) Payload { return Payload{Kind: KindNumber, Number: n} }

// TextPayload constructs a Text payload.
func TextPayload(s string) Payload { return Payload{Kind: KindText, Text: s} }

// TagPayload constructs a Tag payload.
func TagPayload(t TagId) Payload { return Payload{Kind: KindTag, Tag: t} }

// BoolPayload constructs a Bool payload.
func BoolPayload(b bool) Payload { return Payload{Kind: KindBool, Bool: b} }

// ListHandlePayload constructs a reference to a Bus slot.
func ListHandlePayload(bus SlotId) Payload { return Payload{Kind: KindListHandle, Handle: bus} }

// ObjectHandlePayload constructs a reference to a Router slot.
func ObjectHandlePayload(router SlotId) Payload { return Payload{Kind: KindObjectHandle, Handle: router} }

// TaggedObjectPayload constructs a tagged object reference.
func TaggedObjectPayload(tag TagId, fields SlotId) Payload {
	return Payload{Kind: KindTaggedObject, TaggedTag: tag, TaggedFields: fields}
}

// FlushedPayload wraps an error-carrying inner payload. Downstream level
// nodes display it; it never causes a panic.
func FlushedPayload(inner Payload) Payload {
	p := inner
	return Payload{Kind: KindFlushed, Flushed: &p}
}

// FlushedText is a convenience for the common case of flushing a message.
func FlushedText(msg string) Payload {
	return FlushedPayload(TextPayload(msg))
}

// ListDeltaPayload wraps a ListDelta as a control payload emitted on a
// container's output port during a tick.
func ListDeltaPayload(d ListDelta) Payload { return Payload{Kind: KindListDelta, ListDelta: d} }

// ObjectDeltaPayload wraps an ObjectDelta.
func ObjectDeltaPayload(d ObjectDelta) Payload { return Payload{Kind: KindObjectDelta, ObjectDelta: d} }

// IsAbsent reports whether this is the engine's notion of "no value yet"
// (Unit is overloaded for both "explicit unit" and "nothing computed"; node
// update functions that need to distinguish should check dirty/version
// instead, per the Register/Combiner update rules).
func (p Payload) IsAbsent() bool {
	return p.Kind == KindUnit
}

// Equal reports structural equality, used by the stabilization loop to
// decide whether a recomputed value differs from current_value.
func (p Payload) Equal(o Payload) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case KindUnit:
		return true
	case KindNumber:
		return p.Number == o.Number
	case KindText:
		return p.Text == o.Text
	case KindTag:
		return p.Tag == o.Tag
	case KindBool:
		return p.Bool == o.Bool
	case KindListHandle, KindObjectHandle:
		return p.Handle == o.Handle
	case KindTaggedObject:
		return p.TaggedTag == o.TaggedTag && p.TaggedFields == o.TaggedFields
	case KindFlushed:
		if p.Flushed == nil || o.Flushed == nil {
			return p.Flushed == o.Flushed
		}
		return p.Flushed.Equal(*o.Flushed)
	case KindListDelta:
		return p.ListDelta.Equal(o.ListDelta)
	case KindObjectDelta:
		return p.ObjectDelta.Equal(o.ObjectDelta)
	}
	return false
}

// ToDisplayString renders a payload for text interpolation (TextTemplate).
// A dependency that is entirely absent renders as the empty string.
func (p Payload) ToDisplayString() string {
	switch p.Kind {
	case KindUnit:
		return ""
	case KindNumber:
		return trimFloat(p.Number)
	case KindText:
		return p.Text
	case KindBool:
		if p.Bool {
			return "true"
		}
		return "false"
	case KindTag:
		return fmt.Sprintf("Tag(%d)", p.Tag)
	case KindTaggedObject:
		return fmt.Sprintf("TaggedObject(%d)", p.TaggedTag)
	case KindListHandle:
		return "[list]"
	case KindObjectHandle:
		return "{object}"
	case KindFlushed:
		if p.Flushed == nil {
			return "Error"
		}
		return "Error: " + p.Flushed.ToDisplayString()
	case KindListDelta:
		return "[delta]"
	case KindObjectDelta:
		return "{delta}"
	}
	return ""
}

func trimFloat(n float64) string {
	s := fmt.Sprintf("%g", n)
	return s
}
