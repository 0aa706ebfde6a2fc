package boon

// ListDeltaKind discriminates ListDelta variants.
type ListDeltaKind uint8

const (
	ListInsert ListDeltaKind = iota
	ListUpdate
	ListFieldUpdate
	ListRemove
	ListMove
	ListReplace
)

// ListDelta is an incremental update description for a Bus-owned list.
// Emitted on a container node's output port during a tick and applied to
// downstream subscribers that maintain materialized copies.
type ListDelta struct {
	Kind ListDeltaKind

	Key   ItemKey
	Index uint32
	Value *Payload

	Field FieldId

	FromIndex uint32
	ToIndex   uint32

	Items []ListReplaceItem
}

// ListReplaceItem is one entry of a Replace delta's full item set.
type ListReplaceItem struct {
	Key   ItemKey
	Value Payload
}

// ListInsertDelta constructs an Insert{key,index,value} delta.
func ListInsertDelta(key ItemKey, index uint32, value Payload) ListDelta {
	return ListDelta{Kind: ListInsert, Key: key, Index: index, Value: &value}
}

// ListUpdateDelta constructs an Update{key,value} delta.
func ListUpdateDelta(key ItemKey, value Payload) ListDelta {
	return ListDelta{Kind: ListUpdate, Key: key, Value: &value}
}

// ListFieldUpdateDelta constructs a FieldUpdate{key,field,value} delta.
func ListFieldUpdateDelta(key ItemKey, field FieldId, value Payload) ListDelta {
	return ListDelta{Kind: ListFieldUpdate, Key: key, Field: field, Value: &value}
}

// ListRemoveDelta constructs a Remove{key} delta.
func ListRemoveDelta(key ItemKey) ListDelta {
	return ListDelta{Kind: ListRemove, Key: key}
}

// ListMoveDelta constructs a Move{key,from,to} delta.
func ListMoveDelta(key ItemKey, from, to uint32) ListDelta {
	return ListDelta{Kind: ListMove, Key: key, FromIndex: from, ToIndex: to}
}

// ListReplaceDelta constructs a full-list Replace{items} delta.
func ListReplaceDelta(items []ListReplaceItem) ListDelta {
	return ListDelta{Kind: ListReplace, Items: items}
}

// Equal reports structural equality between two ListDelta values.
func (d ListDelta) Equal(o ListDelta) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case ListInsert:
		return d.Key == o.Key && d.Index == o.Index && payloadPtrEqual(d.Value, o.Value)
	case ListUpdate:
		return d.Key == o.Key && payloadPtrEqual(d.Value, o.Value)
	case ListFieldUpdate:
		return d.Key == o.Key && d.Field == o.Field && payloadPtrEqual(d.Value, o.Value)
	case ListRemove:
		return d.Key == o.Key
	case ListMove:
		return d.Key == o.Key && d.FromIndex == o.FromIndex && d.ToIndex == o.ToIndex
	case ListReplace:
		if len(d.Items) != len(o.Items) {
			return false
		}
		for i := range d.Items {
			if d.Items[i].Key != o.Items[i].Key || !d.Items[i].Value.Equal(o.Items[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func payloadPtrEqual(a, b *Payload) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// ObjectDeltaKind discriminates ObjectDelta variants.
type ObjectDeltaKind uint8

const (
	ObjectFieldUpdate ObjectDeltaKind = iota
	ObjectFieldRemove
)

// ObjectDelta is an incremental update description for a Router-owned object.
type ObjectDelta struct {
	Kind  ObjectDeltaKind
	Field FieldId
	Value *Payload
}

// ObjectFieldUpdateDelta constructs a FieldUpdate{field,value} delta.
func ObjectFieldUpdateDelta(field FieldId, value Payload) ObjectDelta {
	return ObjectDelta{Kind: ObjectFieldUpdate, Field: field, Value: &value}
}

// ObjectFieldRemoveDelta constructs a FieldRemove{field} delta.
func ObjectFieldRemoveDelta(field FieldId) ObjectDelta {
	return ObjectDelta{Kind: ObjectFieldRemove, Field: field}
}

// Equal reports structural equality between two ObjectDelta values.
func (d ObjectDelta) Equal(o ObjectDelta) bool {
	if d.Kind != o.Kind || d.Field != o.Field {
		return false
	}
	if d.Kind == ObjectFieldUpdate {
		return payloadPtrEqual(d.Value, o.Value)
	}
	return true
}

// ApplyListDelta applies a ListDelta to a materialized slice copy, used by
// downstream subscribers (e.g. the differential backend's display stream,
// or a UI-side materialized list) that keep a plain ordered copy rather
// than addressing the Bus directly. Returns the updated slice.
func ApplyListDelta(items []ListReplaceItem, d ListDelta) []ListReplaceItem {
	switch d.Kind {
	case ListInsert:
		idx := int(d.Index)
		if idx > len(items) {
			idx = len(items)
		}
		items = append(items, ListReplaceItem{})
		copy(items[idx+1:], items[idx:])
		items[idx] = ListReplaceItem{Key: d.Key, Value: *d.Value}
		return items
	case ListUpdate:
		for i := range items {
			if items[i].Key == d.Key {
				items[i].Value = *d.Value
				break
			}
		}
		return items
	case ListFieldUpdate:
		// Field-level updates within an item require the item's own
		// ObjectDelta application; at the list level this is a no-op
		// marker consumed by a downstream Router, not the Bus itself.
		return items
	case ListRemove:
		out := items[:0]
		for _, it := range items {
			if it.Key != d.Key {
				out = append(out, it)
			}
		}
		return out
	case ListMove:
		if int(d.FromIndex) >= len(items) {
			return items
		}
		it := items[d.FromIndex]
		items = append(items[:d.FromIndex], items[d.FromIndex+1:]...)
		to := int(d.ToIndex)
		if to > len(items) {
			to = len(items)
		}
		items = append(items, ListReplaceItem{})
		copy(items[to+1:], items[to:])
		items[to] = it
		return items
	case ListReplace:
		out := make([]ListReplaceItem, len(d.Items))
		copy(out, d.Items)
		return out
	}
	return items
}
