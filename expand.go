package boon

// expandPayload resolves a Payload's handles into nested Go values suitable
// for json.Marshal, walking Bus/Router slots through the arena. visiting
// guards against a handle cycle (the compiler is expected to emit an
// acyclic graph, but expansion must not hang if it doesn't).
func (e *Engine) expandPayload(p Payload, visiting map[SlotId]bool) interface{} {
	switch p.Kind {
	case KindUnit:
		return nil
	case KindNumber:
		return p.Number
	case KindText:
		return p.Text
	case KindBool:
		return p.Bool
	case KindTag:
		name, ok := e.arena.TagName(TagId(p.Tag))
		if ok {
			return name
		}
		return map[string]interface{}{"_tag": p.Tag}
	case KindListHandle:
		return e.expandList(p.Handle, visiting)
	case KindObjectHandle:
		return e.expandObject(p.Handle, visiting)
	case KindTaggedObject:
		name, _ := e.arena.TagName(p.TaggedTag)
		fields := e.expandObject(p.TaggedFields, visiting)
		return map[string]interface{}{"_tag": name, "fields": fields}
	case KindFlushed:
		inner := interface{}(nil)
		if p.Flushed != nil {
			inner = e.expandPayload(*p.Flushed, visiting)
		}
		return map[string]interface{}{"error": inner}
	case KindListDelta, KindObjectDelta:
		return nil
	}
	return nil
}

func (e *Engine) expandList(bus SlotId, visiting map[SlotId]bool) []interface{} {
	if visiting[bus] {
		return nil
	}
	visiting[bus] = true
	defer delete(visiting, bus)

	node, err := e.arena.Get(bus)
	if err != nil || node.Extension == nil {
		return []interface{}{}
	}
	data, ok := node.Extension.Kind.Data.(*BusData)
	if !ok {
		return []interface{}{}
	}
	out := make([]interface{}, 0, len(data.Items))
	for _, it := range data.Items {
		itemNode, err := e.arena.Get(it.Slot)
		if err != nil {
			out = append(out, nil)
			continue
		}
		out = append(out, e.expandPayload(itemNode.CurrentValue(), visiting))
	}
	return out
}

func (e *Engine) expandObject(router SlotId, visiting map[SlotId]bool) map[string]interface{} {
	if visiting[router] {
		return nil
	}
	visiting[router] = true
	defer delete(visiting, router)

	node, err := e.arena.Get(router)
	if err != nil || node.Extension == nil {
		return map[string]interface{}{}
	}
	data, ok := node.Extension.Kind.Data.(*RouterData)
	if !ok {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(data.Fields))
	for fid, slot := range data.Fields {
		name, ok := e.arena.FieldName(fid)
		if !ok {
			continue
		}
		fieldNode, err := e.arena.Get(slot)
		if err != nil {
			out[name] = nil
			continue
		}
		out[name] = e.expandPayload(fieldNode.CurrentValue(), visiting)
	}
	return out
}
