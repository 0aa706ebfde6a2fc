package differential

import "github.com/boonlang/boon"

// serializeForSnapshot converts a scalar boon.Payload to the shared wire
// shape, matching the arena engine's own Kind-string vocabulary so a
// persisted snapshot is backend-agnostic. Handle-valued payloads
// (ListHandle/ObjectHandle/TaggedObject) are not supported here: this
// backend addresses collections by key, not by arena slot, so there is no
// live Bus/Router to walk the way the arena's serializeList/serializeObject
// do. A host wanting durable collections on this backend persists the
// Display channel instead.
func serializeForSnapshot(p boon.Payload) (boon.SerializedPayload, bool) {
	switch p.Kind {
	case boon.KindUnit:
		return boon.SerializedPayload{Kind: "unit"}, true
	case boon.KindNumber:
		return boon.SerializedPayload{Kind: "number", Number: p.Number}, true
	case boon.KindText:
		return boon.SerializedPayload{Kind: "text", Text: p.Text}, true
	case boon.KindBool:
		return boon.SerializedPayload{Kind: "bool", Bool: p.Bool}, true
	case boon.KindTag:
		return boon.SerializedPayload{Kind: "tag", Tag: uint32(p.Tag)}, true
	}
	return boon.SerializedPayload{}, false
}

// deserializeFromSnapshot is serializeForSnapshot's inverse.
func deserializeFromSnapshot(s boon.SerializedPayload) (boon.Payload, bool) {
	switch s.Kind {
	case "unit":
		return boon.Unit, true
	case "number":
		return boon.NumberPayload(s.Number), true
	case "text":
		return boon.TextPayload(s.Text), true
	case "bool":
		return boon.BoolPayload(s.Bool), true
	case "tag":
		return boon.TagPayload(boon.TagId(s.Tag)), true
	}
	return boon.Payload{}, false
}
