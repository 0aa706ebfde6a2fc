package boon

// instantiateListItems is event-loop step 2: every ListAppender whose
// trigger carries a fresh non-absent value this tick grows its Bus by
// one clone of its template, and every ListMapper reconciles its mapped
// clones against its source Bus's current item set.
func (e *Engine) instantiateListItems() {
	n := e.arena.Len()
	for i := 0; i < n; i++ {
		node := &e.arena.nodes[i]
		if node.Extension == nil {
			continue
		}
		slot := SlotId{Index: uint32(i), Generation: node.Generation}
		switch d := node.Extension.Kind.Data.(type) {
		case *ListAppenderData:
			e.processListAppender(slot, d)
		case *ListMapperData:
			e.processListMapper(slot, d)
		}
	}
}

func (e *Engine) processListAppender(slot SlotId, d *ListAppenderData) {
	if d.Template == nil {
		return
	}
	ver, ok := e.readVersion(d.Input)
	if !ok {
		return
	}
	if d.everSeen && ver == d.lastInputVersion {
		return
	}
	d.everSeen = true
	d.lastInputVersion = ver
	trigger := e.readValue(d.Input)
	if trigger.IsAbsent() {
		return
	}

	busNode, err := e.arena.Get(d.BusSlot)
	if err != nil || busNode.Extension == nil {
		return
	}
	bus, ok := busNode.Extension.Kind.Data.(*BusData)
	if !ok {
		return
	}

	key := bus.AllocSite.Allocate()
	busAddr, _ := e.arena.GetAddress(d.BusSlot)
	scope := busAddr.Scope.Child(uint64(key))
	// The item clone's designated input wire carries the triggering value
	// itself rather than a shared external slot, so bind it through a fresh
	// Producer slot holding a snapshot of the trigger.
	itemSlot := e.arena.AllocWithAddress(NodeAddress{Source: bus.AllocSite.Source, Scope: scope})
	itemNode, _ := e.arena.Get(itemSlot)
	itemNode.SetKind(NodeKind{Tag: KindProducer, Data: &ProducerData{Value: trigger}})
	itemNode.SetCurrentValue(trigger)
	itemNode.Dirty = true

	allocated := e.instantiateTemplate(d.Template, scope, itemSlot)
	root := itemSlot
	if d.Template.Output >= 0 && d.Template.Output < len(allocated) {
		root = allocated[d.Template.Output]
	}

	bus.Items = append(bus.Items, BusItem{Key: key, Slot: root})
	e.setDirty(d.BusSlot)
	e.markSubscribersDirty(d.BusSlot)
	e.bumpGraphGeneration()
}

func (e *Engine) processListMapper(slot SlotId, d *ListMapperData) {
	srcNode, err := e.arena.Get(d.SourceBus)
	if err != nil || srcNode.Extension == nil {
		return
	}
	src, ok := srcNode.Extension.Kind.Data.(*BusData)
	if !ok {
		return
	}
	outNode, err := e.arena.Get(d.OutputBus)
	if err != nil || outNode.Extension == nil {
		return
	}
	out, ok := outNode.Extension.Kind.Data.(*BusData)
	if !ok {
		return
	}
	if d.MappedItems == nil {
		d.MappedItems = make(map[SlotId][]SlotId)
	}
	if d.MappedOutput == nil {
		d.MappedOutput = make(map[SlotId]SlotId)
	}

	live := make(map[SlotId]bool, len(src.Items))
	changed := false
	newOutItems := make([]BusItem, 0, len(src.Items))

	for _, it := range src.Items {
		live[it.Slot] = true
		mappedOut, ok := d.MappedOutput[it.Slot]
		if !ok {
			if d.Template != nil {
				itemAddr, _ := e.arena.GetAddress(it.Slot)
				scope := itemAddr.Scope.Child(uint64(it.Key))
				allocated := e.instantiateTemplate(d.Template, scope, it.Slot)
				root := it.Slot
				if d.Template.Output >= 0 && d.Template.Output < len(allocated) {
					root = allocated[d.Template.Output]
				}
				d.MappedItems[it.Slot] = allocated
				d.MappedOutput[it.Slot] = root
				mappedOut = root
				changed = true
			} else {
				mappedOut = it.Slot
			}
		}
		newOutItems = append(newOutItems, BusItem{Key: it.Key, Slot: mappedOut})
	}

	for srcSlot, allocated := range d.MappedItems {
		if live[srcSlot] {
			continue
		}
		for _, s := range allocated {
			e.routing.RemoveSlot(s)
			e.arena.Free(s)
		}
		delete(d.MappedItems, srcSlot)
		delete(d.MappedOutput, srcSlot)
		changed = true
	}

	if changed || len(out.Items) != len(newOutItems) {
		out.Items = newOutItems
		e.setDirty(d.OutputBus)
		e.markSubscribersDirty(d.OutputBus)
		e.bumpGraphGeneration()
	}
}

// instantiateTemplate clones tmpl's internal node set into fresh arena
// slots addressed under scope, rewires their internal edges, resolves each
// binding (the distinguished input port, plus any external captures), and
// marks every fresh slot dirty for the next stabilization pass.
func (e *Engine) instantiateTemplate(tmpl *SlotTemplate, scope ScopeId, inputSlot SlotId) []SlotId {
	slots := make([]SlotId, len(tmpl.Nodes))
	for i, desc := range tmpl.Nodes {
		addr := NodeAddress{Source: desc.Source, Scope: scope}
		s := e.arena.AllocWithAddress(addr)
		slots[i] = s
		node, _ := e.arena.Get(s)
		node.SetKind(cloneNodeKind(desc.Kind))
		node.Dirty = true
	}
	for i, desc := range tmpl.Nodes {
		target := slots[i]
		node, err := e.arena.Get(target)
		if err != nil {
			continue
		}
		kindSlots := kindInputSlots(node.Extension.Kind.Data, len(desc.Inputs))
		for inIdx, depIdx := range desc.Inputs {
			if depIdx < 0 || depIdx >= len(slots) {
				continue
			}
			source := slots[depIdx]
			if inIdx < len(node.Inputs) {
				node.Inputs[inIdx] = source
				if inIdx >= int(node.InputCount) {
					node.InputCount = uint8(inIdx + 1)
				}
			} else {
				node.ext().ExtraInputs = append(node.ext().ExtraInputs, source)
			}
			if inIdx < len(kindSlots) && kindSlots[inIdx] != nil {
				*kindSlots[inIdx] = source
			}
			e.routing.AddRoute(source, target, InputPort(uint8(inIdx)))
		}
	}
	for _, b := range tmpl.Bindings {
		if b.NodeIndex < 0 || b.NodeIndex >= len(slots) {
			continue
		}
		target := slots[b.NodeIndex]
		node, err := e.arena.Get(target)
		if err != nil {
			continue
		}
		external := b.External
		if b.IsInput {
			external = inputSlot
		}
		if !external.IsValid() {
			continue
		}
		ks := kindInputSlots(node.Extension.Kind.Data, 1)
		if len(ks) > 0 && ks[0] != nil {
			*ks[0] = external
		}
		if len(node.Inputs) > 0 {
			node.Inputs[0] = external
			if node.InputCount == 0 {
				node.InputCount = 1
			}
		}
		e.routing.AddRoute(external, target, InputPort(0))
	}
	e.bumpGraphGeneration()
	return slots
}

// cloneNodeKind deep-copies a template node's kind data so each instance
// carries independent mutable state (Register's stored value, a
// Combiner's per-input cache, and so on) instead of aliasing the template.
func cloneNodeKind(k NodeKind) NodeKind {
	switch d := k.Data.(type) {
	case *ProducerData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *WireData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *CombinerData:
		cp := *d
		cp.Inputs = append([]SlotId(nil), d.Inputs...)
		cp.LastValues = append([]Payload(nil), d.LastValues...)
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *RegisterData:
		cp := *d
		cp.HasStored = false
		cp.InitialReceived = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *TransformerData:
		cp := *d
		cp.everSeen = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *PatternMuxData:
		cp := *d
		cp.Arms = append([]PatternArm(nil), d.Arms...)
		cp.everSeen = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *SwitchedWireData:
		cp := *d
		cp.Arms = append([]PatternArm(nil), d.Arms...)
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *RouterData:
		cp := *d
		cp.Fields = make(map[FieldId]SlotId, len(d.Fields))
		for f, s := range d.Fields {
			cp.Fields[f] = s
		}
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *ExtractorData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *BusData:
		cp := *d
		cp.Items = nil
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *ListAppenderData:
		cp := *d
		cp.everSeen = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *ListMapperData:
		cp := *d
		cp.MappedItems = nil
		cp.MappedOutput = nil
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *FilteredViewData:
		cp := *d
		cp.Conditions = make(map[SlotId]SlotId, len(d.Conditions))
		for s, c := range d.Conditions {
			cp.Conditions[s] = c
		}
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *TimerData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *PulsesData:
		cp := *d
		cp.Started = false
		cp.Current = 0
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *SkipData:
		cp := *d
		cp.Skipped = 0
		cp.everSeen = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *AccumulatorData:
		cp := *d
		cp.Sum = 0
		cp.everSeen = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *ArithmeticData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *ComparisonData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *EffectData:
		cp := *d
		cp.everSeen = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *IOPadData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *TextTemplateData:
		cp := *d
		cp.Dependencies = append([]SlotId(nil), d.Dependencies...)
		cp.HasCached = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *ListCountData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *ListIsEmptyData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *BoolNotData:
		cp := *d
		cp.HasCached = false
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *TextTrimData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	case *TextIsNotEmptyData:
		cp := *d
		return NodeKind{Tag: k.Tag, Data: &cp}
	}
	return k
}
