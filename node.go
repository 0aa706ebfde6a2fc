package boon

// NodeKindTag is the fast inline header used for dirty-check dispatch
// without indirecting through the (possibly nil) extension. The node kinds
// are a closed set produced by the compiler collaborator; there is no
// plugin registry and no virtual method table, just this tag plus a type
// switch over NodeKind.Data.
type NodeKindTag uint8

const (
	KindProducer NodeKindTag = iota
	KindWire
	KindCombiner
	KindRegister
	KindTransformer
	KindPatternMux
	KindSwitchedWire
	KindRouter
	KindExtractor
	KindBus
	KindListAppender
	KindListMapper
	KindFilteredView
	KindTimer
	KindPulses
	KindSkip
	KindAccumulator
	KindArithmetic
	KindComparison
	KindEffect
	KindIOPad
	KindTextTemplate
	KindListCount
	KindListIsEmpty
	KindBoolNot
	KindTextTrim
	KindTextIsNotEmpty
)

// IsPulse reports whether this kind produces a transient, one-shot-per-tick
// output rather than a persistent level. Pulse kinds are visited only in
// the tick loop's pulse phase and reset to absent afterward.
func (t NodeKindTag) IsPulse() bool {
	switch t {
	case KindTransformer, KindPatternMux, KindPulses:
		return true
	}
	return false
}

// NodeKind is the kind-specific record for a slot. Tag duplicates the
// concrete type of Data so callers can branch without a nil check when they
// only need the tag (e.g. IsPulse), while Data carries the actual fields a
// kind's update function needs.
type NodeKind struct {
	Tag  NodeKindTag
	Data interface{}
}

// ProducerData: emits a configured constant when first visited. Level.
type ProducerData struct {
	Value Payload
}

// WireData: forwards a single source value. Level.
type WireData struct {
	Source SlotId
}

// CombinerData (LATEST): most recent non-absent input wins. Level.
type CombinerData struct {
	Inputs     []SlotId
	LastValues []Payload
}

// RegisterData (HOLD): stores the last body pulse; initialized from Initial
// on first delivery. Level.
type RegisterData struct {
	StoredValue     Payload
	HasStored       bool
	BodyInput       SlotId
	InitialInput    SlotId
	InitialReceived bool
}

// TransformerData (THEN): copies body once when trigger is non-absent. Pulse.
type TransformerData struct {
	Trigger            SlotId
	BodySlot           SlotId
	lastTriggerVersion uint32
	everSeen           bool
}

// PatternMuxData (WHEN): routes to first matching arm; emits its body once. Pulse.
type PatternMuxData struct {
	Input            SlotId
	CurrentArm       int // -1 if none matched this tick
	Arms             []PatternArm
	lastInputVersion uint32
	everSeen         bool
}

// SwitchedWireData (WHILE): while pattern matches, forwards matched arm's body. Level.
type SwitchedWireData struct {
	Input      SlotId
	CurrentArm int
	Arms       []PatternArm
}

// PatternArm pairs a pattern with the slot holding its body's value.
type PatternArm struct {
	Pattern  RuntimePattern
	BodySlot SlotId
}

// RouterData: owns an object's fields, fans out per-field level outputs
// addressable by Port::Field(id).
type RouterData struct {
	Fields map[FieldId]SlotId
}

// ExtractorData: subscribes to a source's field port. Level.
type ExtractorData struct {
	Source          SlotId
	Field           FieldId
	SubscribedField SlotId
}

// BusData: owns a vector of (ItemKey, SlotId); emits a list handle and
// propagates ListDelta.
type BusData struct {
	Items     []BusItem
	AllocSite AllocSite
}

// BusItem is one (key, slot) entry owned by a Bus.
type BusItem struct {
	Key  ItemKey
	Slot SlotId
}

// ListAppenderData: on trigger, allocates a new item slot in its Bus by
// cloning Template. kindInputSlots wires its Inputs as {BusSlot, Input}.
type ListAppenderData struct {
	BusSlot           SlotId
	Input             SlotId
	Template          *SlotTemplate
	lastInputVersion  uint32
	everSeen          bool
}

// ListMapperData: for each source item, instantiates a clone of the
// template bound to that item's slot; maintains item-slot <-> mapped-root
// map so removals free the right clone and Replace deltas rebuild cleanly.
type ListMapperData struct {
	SourceBus      SlotId
	OutputBus      SlotId
	TemplateInput  SlotId
	TemplateOutput SlotId
	Template       *SlotTemplate
	MappedItems    map[SlotId][]SlotId // source item slot -> all slots allocated for its clone
	MappedOutput   map[SlotId]SlotId   // source item slot -> clone's designated output slot
}

// SlotTemplate is the compile-time blueprint a ListAppender/ListMapper
// clones at instantiation time: an internal node set plus the external
// bindings (captures, and the distinguished input port) resolved fresh for
// each instance.
type SlotTemplate struct {
	Nodes    []NodeDescription
	Bindings []TemplateBinding
	// Output is the index into Nodes whose slot becomes the clone's
	// externally-visible result (TemplateOutput / ListMapper's mapped
	// value); -1 if the template has no distinguished output.
	Output int
}

// TemplateBinding rewires one template-internal node's first input onto an
// externally-supplied slot at instantiation time: either the source item's
// own slot (IsInput) or a capture shared unchanged across every instance.
type TemplateBinding struct {
	NodeIndex int
	IsInput   bool
	External  SlotId
}

// FilteredViewData: membership gated by the boolean value of each item's
// condition slot. OutputBus is a compiler-allocated plain Bus this view
// keeps synchronized with the subset of SourceBus passing its conditions.
type FilteredViewData struct {
	SourceBus  SlotId
	OutputBus  SlotId
	Conditions map[SlotId]SlotId
}

// TimerData: counts fires delivered through Engine.FireTimer while Active,
// queueing a PendingTimer re-schedule request on each fire. Creating a
// Timer node does not register anything with the Clock.
type TimerData struct {
	IntervalMs float64
	NextTick   uint64
	Active     bool
	FireCount  uint64
}

// PulsesData: sequentially emits 0..N-1 across ticks. Pulse.
type PulsesData struct {
	Total   uint32
	Current uint32
	Started bool
}

// SkipData: forwards source after the first Count non-absent values are
// discarded.
type SkipData struct {
	Source            SlotId
	Count             uint32
	Skipped           uint32
	lastSourceVersion uint32
	everSeen          bool
}

// AccumulatorData: sums incoming numbers into a running total.
type AccumulatorData struct {
	Source            SlotId
	Sum               float64
	lastSourceVersion uint32
	everSeen          bool
}

// ArithmeticOp enumerates Arithmetic node operators.
type ArithmeticOp uint8

const (
	ArithAdd ArithmeticOp = iota
	ArithSub
	ArithMul
	ArithDiv
	ArithNegate
)

// ArithmeticData: Add/Sub/Mul/Div/Negate on numbers. Negate uses Left only.
type ArithmeticData struct {
	Op    ArithmeticOp
	Left  SlotId
	Right SlotId
}

// ComparisonOp enumerates Comparison node operators.
type ComparisonOp uint8

const (
	CmpEq ComparisonOp = iota
	CmpNe
	CmpGt
	CmpGe
	CmpLt
	CmpLe
)

// ComparisonData: boolean result of Eq/Ne/Gt/Ge/Lt/Le.
type ComparisonData struct {
	Op    ComparisonOp
	Left  SlotId
	Right SlotId
}

// EffectKind enumerates Effect node side effect types.
type EffectKind uint8

const (
	EffectLogInfo EffectKind = iota
	EffectLogWarn
	EffectLogError
	EffectNavigate
)

// EffectData: executes a side effect (log/navigate) when evaluated in a
// stabilization pass, once per change of Input's Version; it does not wait
// for the end of the tick. Value transparent (forwards Input unchanged).
type EffectData struct {
	Input            SlotId
	EffectType       EffectKind
	lastInputVersion uint32
	everSeen         bool
}

// IOPadData: boundary with the UI; carries events injected by the bridge.
type IOPadData struct {
	ElementSlot SlotId
	EventType   string
	Connected   bool
}

// TextTemplateData: re-renders a template when any dependency's displayed
// form changes; caches the rendered string.
type TextTemplateData struct {
	Template     string
	Dependencies []SlotId
	Cached       string
	HasCached    bool
}

// ListCountData, ListIsEmptyData, BoolNotData, TextTrimData,
// TextIsNotEmptyData are the trivial one-source reactive projections.
type ListCountData struct{ Source SlotId }
type ListIsEmptyData struct{ Source SlotId }
type BoolNotData struct {
	Source SlotId
	Cached bool
	HasCached bool
}
type TextTrimData struct{ Source SlotId }
type TextIsNotEmptyData struct{ Source SlotId }
