package boon

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// kindInputSlots returns pointers into data's semantic slot fields, in the
// canonical order Engine.Compile expects NodeDescription.Inputs to supply
// them. n is the number of inputs the compiler declared for this node,
// used to size variable-arity kinds (Combiner, TextTemplate) before
// indexing into them. Kinds with no positional dependencies (Bus, Timer,
// Pulses) or keyed ones (Router, resolved via FieldInputs) return nil.
func kindInputSlots(data interface{}, n int) []*SlotId {
	switch d := data.(type) {
	case *ProducerData:
		return nil
	case *WireData:
		return []*SlotId{&d.Source}
	case *CombinerData:
		if len(d.Inputs) < n {
			grown := make([]SlotId, n)
			copy(grown, d.Inputs)
			d.Inputs = grown
		}
		if len(d.LastValues) < n {
			grown := make([]Payload, n)
			copy(grown, d.LastValues)
			d.LastValues = grown
		}
		out := make([]*SlotId, n)
		for i := range out {
			out[i] = &d.Inputs[i]
		}
		return out
	case *RegisterData:
		return []*SlotId{&d.BodyInput, &d.InitialInput}
	case *TransformerData:
		return []*SlotId{&d.Trigger, &d.BodySlot}
	case *PatternMuxData:
		out := make([]*SlotId, 0, 1+len(d.Arms))
		out = append(out, &d.Input)
		for i := range d.Arms {
			out = append(out, &d.Arms[i].BodySlot)
		}
		return out
	case *SwitchedWireData:
		out := make([]*SlotId, 0, 1+len(d.Arms))
		out = append(out, &d.Input)
		for i := range d.Arms {
			out = append(out, &d.Arms[i].BodySlot)
		}
		return out
	case *RouterData:
		return nil // wired via NodeDescription.FieldInputs instead
	case *ExtractorData:
		return []*SlotId{&d.Source}
	case *BusData:
		return nil
	case *ListAppenderData:
		return []*SlotId{&d.BusSlot, &d.Input}
	case *ListMapperData:
		return []*SlotId{&d.SourceBus, &d.OutputBus, &d.TemplateInput, &d.TemplateOutput}
	case *FilteredViewData:
		return []*SlotId{&d.SourceBus, &d.OutputBus}
	case *TimerData:
		return nil
	case *PulsesData:
		return nil
	case *SkipData:
		return []*SlotId{&d.Source}
	case *AccumulatorData:
		return []*SlotId{&d.Source}
	case *ArithmeticData:
		return []*SlotId{&d.Left, &d.Right}
	case *ComparisonData:
		return []*SlotId{&d.Left, &d.Right}
	case *EffectData:
		return []*SlotId{&d.Input}
	case *IOPadData:
		return []*SlotId{&d.ElementSlot}
	case *TextTemplateData:
		if len(d.Dependencies) < n {
			grown := make([]SlotId, n)
			copy(grown, d.Dependencies)
			d.Dependencies = grown
		}
		out := make([]*SlotId, n)
		for i := range out {
			out[i] = &d.Dependencies[i]
		}
		return out
	case *ListCountData:
		return []*SlotId{&d.Source}
	case *ListIsEmptyData:
		return []*SlotId{&d.Source}
	case *BoolNotData:
		return []*SlotId{&d.Source}
	case *TextTrimData:
		return []*SlotId{&d.Source}
	case *TextIsNotEmptyData:
		return []*SlotId{&d.Source}
	}
	return nil
}

// readValue returns source's current value, or Unit if the slot is invalid.
func (e *Engine) readValue(source SlotId) Payload {
	node, err := e.arena.Get(source)
	if err != nil {
		return Unit
	}
	return node.CurrentValue()
}

func (e *Engine) readVersion(source SlotId) (uint32, bool) {
	node, err := e.arena.Get(source)
	if err != nil {
		return 0, false
	}
	return node.Version, true
}

// finishLevel compares val against node's stored current value, reporting
// whether the stabilization loop should treat this as a change. A node
// that has never been computed is always reported changed so its first
// value propagates.
func finishLevel(node *ReactiveNode, val Payload) (Payload, bool) {
	if node.Extension == nil || !node.Extension.HasValue {
		return val, true
	}
	return val, !node.CurrentValue().Equal(val)
}

// computeLevel recomputes the value of a non-pulse node. Called only while
// node.Dirty, with node.Dirty already cleared by the caller (stabilizeOnce).
func (e *Engine) computeLevel(slot SlotId, node *ReactiveNode) (Payload, bool) {
	data := node.Extension.Kind.Data
	switch d := data.(type) {
	case *ProducerData:
		return finishLevel(node, d.Value)

	case *WireData:
		return finishLevel(node, e.readValue(d.Source))

	case *CombinerData:
		latest := node.CurrentValue()
		found := false
		var bestVersion uint32
		for i, in := range d.Inputs {
			if !in.IsValid() {
				continue
			}
			val := e.readValue(in)
			if i < len(d.LastValues) && val.Equal(d.LastValues[i]) {
				continue
			}
			if i < len(d.LastValues) {
				d.LastValues[i] = val
			}
			if val.IsAbsent() {
				continue
			}
			// Among inputs that changed this pass, the one with the
			// highest committed Version is the most recent write; a tie
			// (simultaneous first commit) favors the later input.
			ver, _ := e.readVersion(in)
			if !found || ver >= bestVersion {
				latest = val
				bestVersion = ver
				found = true
			}
		}
		if !found {
			return node.CurrentValue(), false
		}
		return finishLevel(node, latest)

	case *RegisterData:
		if !d.InitialReceived {
			initial := e.readValue(d.InitialInput)
			if !initial.IsAbsent() {
				d.StoredValue = initial
				d.HasStored = true
				d.InitialReceived = true
			}
		}
		body := e.readValue(d.BodyInput)
		if !body.IsAbsent() {
			d.StoredValue = body
			d.HasStored = true
		}
		if !d.HasStored {
			return finishLevel(node, Unit)
		}
		return finishLevel(node, d.StoredValue)

	case *SwitchedWireData:
		input := e.readValue(d.Input)
		idx := MatchArms(d.Arms, input)
		d.CurrentArm = idx
		if idx < 0 {
			return finishLevel(node, Unit)
		}
		return finishLevel(node, e.readValue(d.Arms[idx].BodySlot))

	case *RouterData:
		return finishLevel(node, ObjectHandlePayload(slot))

	case *ExtractorData:
		routerNode, err := e.arena.Get(d.Source)
		if err != nil || routerNode.Extension == nil {
			return finishLevel(node, Unit)
		}
		router, ok := routerNode.Extension.Kind.Data.(*RouterData)
		if !ok {
			return finishLevel(node, Unit)
		}
		fieldSlot, ok := router.Fields[d.Field]
		if !ok {
			return finishLevel(node, Unit)
		}
		if fieldSlot != d.SubscribedField {
			if d.SubscribedField.IsValid() {
				e.routing.RemoveRoute(d.SubscribedField, slot, OutputPort)
			}
			e.routing.AddRoute(fieldSlot, slot, OutputPort)
			d.SubscribedField = fieldSlot
		}
		return finishLevel(node, e.readValue(fieldSlot))

	case *BusData:
		return finishLevel(node, ListHandlePayload(slot))

	case *ListAppenderData:
		return finishLevel(node, Unit)

	case *ListMapperData:
		return finishLevel(node, ListHandlePayload(d.OutputBus))

	case *FilteredViewData:
		e.recomputeFilteredView(d)
		return finishLevel(node, ListHandlePayload(d.OutputBus))

	case *TimerData:
		return finishLevel(node, NumberPayload(float64(d.FireCount)))

	case *SkipData:
		ver, ok := e.readVersion(d.Source)
		if !ok {
			return finishLevel(node, Unit)
		}
		if !d.everSeen || ver != d.lastSourceVersion {
			d.everSeen = true
			d.lastSourceVersion = ver
			val := e.readValue(d.Source)
			if val.IsAbsent() {
				return node.CurrentValue(), false
			}
			if d.Skipped < d.Count {
				d.Skipped++
				return node.CurrentValue(), false
			}
			return finishLevel(node, val)
		}
		return node.CurrentValue(), false

	case *AccumulatorData:
		ver, ok := e.readVersion(d.Source)
		if !ok {
			return finishLevel(node, NumberPayload(d.Sum))
		}
		if !d.everSeen || ver != d.lastSourceVersion {
			d.everSeen = true
			d.lastSourceVersion = ver
			val := e.readValue(d.Source)
			if val.Kind == KindNumber {
				d.Sum += val.Number
			}
		}
		return finishLevel(node, NumberPayload(d.Sum))

	case *ArithmeticData:
		return finishLevel(node, e.computeArithmetic(d))

	case *ComparisonData:
		return finishLevel(node, e.computeComparison(d))

	case *EffectData:
		ver, _ := e.readVersion(d.Input)
		val := e.readValue(d.Input)
		if !d.everSeen || ver != d.lastInputVersion {
			d.everSeen = true
			d.lastInputVersion = ver
			e.runEffect(d.EffectType, val)
		}
		return finishLevel(node, val)

	case *IOPadData:
		if val, ok := e.inbox[inboxKey{slot, OutputPort}]; ok {
			return finishLevel(node, val)
		}
		return node.CurrentValue(), false

	case *TextTemplateData:
		return finishLevel(node, e.renderTextTemplate(d))

	case *ListCountData:
		return finishLevel(node, NumberPayload(float64(e.busLen(d.Source))))

	case *ListIsEmptyData:
		return finishLevel(node, BoolPayload(e.busLen(d.Source) == 0))

	case *BoolNotData:
		val := e.readValue(d.Source)
		switch {
		case val.IsAbsent():
			return finishLevel(node, Unit)
		case val.Kind != KindBool:
			return finishLevel(node, FlushedText("not: type mismatch"))
		default:
			return finishLevel(node, BoolPayload(!val.Bool))
		}

	case *TextTrimData:
		val := e.readValue(d.Source)
		if val.Kind != KindText {
			if val.IsAbsent() {
				return finishLevel(node, Unit)
			}
			return finishLevel(node, FlushedText("trim: type mismatch"))
		}
		return finishLevel(node, TextPayload(strings.TrimSpace(val.Text)))

	case *TextIsNotEmptyData:
		val := e.readValue(d.Source)
		if val.Kind != KindText {
			if val.IsAbsent() {
				return finishLevel(node, Unit)
			}
			return finishLevel(node, FlushedText("is_not_empty: type mismatch"))
		}
		return finishLevel(node, BoolPayload(strings.TrimSpace(val.Text) != ""))
	}
	return node.CurrentValue(), false
}

// computePulse recomputes a transient node visited in the pulse phase of
// Tick. Returns ok=false when nothing fired this tick.
func (e *Engine) computePulse(slot SlotId, node *ReactiveNode) (Payload, bool) {
	switch d := node.Extension.Kind.Data.(type) {
	case *TransformerData:
		ver, ok := e.readVersion(d.Trigger)
		if !ok {
			return Unit, false
		}
		if d.everSeen && ver == d.lastTriggerVersion {
			return Unit, false
		}
		d.everSeen = true
		d.lastTriggerVersion = ver
		trigger := e.readValue(d.Trigger)
		if trigger.IsAbsent() {
			return Unit, false
		}
		return e.readValue(d.BodySlot), true

	case *PatternMuxData:
		ver, ok := e.readVersion(d.Input)
		if !ok {
			return Unit, false
		}
		if d.everSeen && ver == d.lastInputVersion {
			return Unit, false
		}
		d.everSeen = true
		d.lastInputVersion = ver
		input := e.readValue(d.Input)
		idx := MatchArms(d.Arms, input)
		d.CurrentArm = idx
		if idx < 0 {
			return Unit, false
		}
		return e.readValue(d.Arms[idx].BodySlot), true

	case *PulsesData:
		if !d.Started {
			d.Started = true
		}
		if d.Current >= d.Total {
			return Unit, false
		}
		val := NumberPayload(float64(d.Current))
		d.Current++
		return val, true
	}
	return Unit, false
}

func (e *Engine) busLen(busSlot SlotId) int {
	node, err := e.arena.Get(busSlot)
	if err != nil || node.Extension == nil {
		return 0
	}
	data, ok := node.Extension.Kind.Data.(*BusData)
	if !ok {
		return 0
	}
	return len(data.Items)
}

func (e *Engine) recomputeFilteredView(d *FilteredViewData) {
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
	filtered := out.Items[:0]
	for _, it := range src.Items {
		condSlot, ok := d.Conditions[it.Slot]
		if !ok {
			continue
		}
		cond := e.readValue(condSlot)
		if cond.Kind == KindBool && cond.Bool {
			filtered = append(filtered, it)
		}
	}
	out.Items = filtered
	e.setDirty(d.OutputBus)
	e.markSubscribersDirty(d.OutputBus)
}

func (e *Engine) computeArithmetic(d *ArithmeticData) Payload {
	left := e.readValue(d.Left)
	if d.Op == ArithNegate {
		if left.IsAbsent() {
			return Unit
		}
		if left.Kind != KindNumber {
			return FlushedText("negate: type mismatch")
		}
		return NumberPayload(-left.Number)
	}
	right := e.readValue(d.Right)
	if left.IsAbsent() || right.IsAbsent() {
		return Unit
	}
	if left.Kind != KindNumber || right.Kind != KindNumber {
		return FlushedText("arithmetic: type mismatch")
	}
	switch d.Op {
	case ArithAdd:
		return NumberPayload(left.Number + right.Number)
	case ArithSub:
		return NumberPayload(left.Number - right.Number)
	case ArithMul:
		result := left.Number * right.Number
		if math.IsInf(result, 0) {
			return FlushedText("arithmetic overflow")
		}
		return NumberPayload(result)
	case ArithDiv:
		if right.Number == 0 {
			return FlushedText("division by zero")
		}
		return NumberPayload(left.Number / right.Number)
	}
	return Unit
}

func (e *Engine) computeComparison(d *ComparisonData) Payload {
	left := e.readValue(d.Left)
	right := e.readValue(d.Right)
	if left.IsAbsent() || right.IsAbsent() {
		return Unit
	}
	if d.Op == CmpEq {
		return BoolPayload(left.Equal(right))
	}
	if d.Op == CmpNe {
		return BoolPayload(!left.Equal(right))
	}
	if left.Kind != KindNumber || right.Kind != KindNumber {
		return FlushedText("comparison: type mismatch")
	}
	switch d.Op {
	case CmpGt:
		return BoolPayload(left.Number > right.Number)
	case CmpGe:
		return BoolPayload(left.Number >= right.Number)
	case CmpLt:
		return BoolPayload(left.Number < right.Number)
	case CmpLe:
		return BoolPayload(left.Number <= right.Number)
	}
	return Unit
}

func (e *Engine) runEffect(kind EffectKind, val Payload) {
	field := zap.String("value", val.ToDisplayString())
	switch kind {
	case EffectLogInfo:
		e.logger.Info("effect", field)
	case EffectLogWarn:
		e.logger.Warn("effect", field)
	case EffectLogError:
		e.logger.Error("effect", field)
	case EffectNavigate:
		e.logger.Info("navigate", field)
	}
}

func (e *Engine) renderTextTemplate(d *TextTemplateData) Payload {
	var b strings.Builder
	rest := d.Template
	for i := range d.Dependencies {
		placeholder := "{" + strconv.Itoa(i) + "}"
		idx := strings.Index(rest, placeholder)
		if idx < 0 {
			continue
		}
		b.WriteString(rest[:idx])
		b.WriteString(e.readValue(d.Dependencies[i]).ToDisplayString())
		rest = rest[idx+len(placeholder):]
	}
	b.WriteString(rest)
	d.Cached = b.String()
	d.HasCached = true
	return TextPayload(d.Cached)
}
