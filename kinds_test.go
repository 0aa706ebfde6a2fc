package boon

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustCompile(t *testing.T, e *Engine, program CompiledProgram) SlotId {
	t.Helper()
	root, ok := e.Compile(program)
	if !ok {
		t.Fatal("compile failed")
	}
	return root
}

func TestArithmeticOperators(t *testing.T) {
	cases := []struct {
		name string
		op   ArithmeticOp
		a, b float64
		want Payload
	}{
		{"add", ArithAdd, 3, 4, NumberPayload(7)},
		{"sub", ArithSub, 10, 4, NumberPayload(6)},
		{"mul", ArithMul, 3, 4, NumberPayload(12)},
		{"div", ArithDiv, 9, 3, NumberPayload(3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine()
			program := CompiledProgram{
				Nodes: []NodeDescription{
					{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(tc.a)}}},
					{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(tc.b)}}},
					{Kind: NodeKind{Tag: KindArithmetic, Data: &ArithmeticData{Op: tc.op}}, Inputs: []int{0, 1}},
				},
				Root: 2,
			}
			root := mustCompile(t, e, program)
			if res := e.RunUntilQuiescent(5); !res.Quiescent {
				t.Fatal("did not reach quiescence")
			}
			val, _ := e.GetCurrentValue(root)
			if diff := cmp.Diff(tc.want, val); diff != "" {
				t.Fatalf("unexpected value (-want +got):\n%s", diff)
			}
		})
	}
}

func TestArithmeticNegateUsesLeftOnly(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(5)}}},
			{Kind: NodeKind{Tag: KindArithmetic, Data: &ArithmeticData{Op: ArithNegate}}, Inputs: []int{0}},
		},
		Root: 1,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, _ := e.GetCurrentValue(root)
	if diff := cmp.Diff(NumberPayload(-5), val); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}
}

func TestArithmeticDivisionByZeroFlushes(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(1)}}},
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(0)}}},
			{Kind: NodeKind{Tag: KindArithmetic, Data: &ArithmeticData{Op: ArithDiv}}, Inputs: []int{0, 1}},
		},
		Root: 2,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, _ := e.GetCurrentValue(root)
	if val.Kind != KindFlushed {
		t.Fatalf("expected a flushed error payload, got %+v", val)
	}
}

func TestArithmeticTypeMismatchFlushes(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(1)}}},
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: TextPayload("x")}}},
			{Kind: NodeKind{Tag: KindArithmetic, Data: &ArithmeticData{Op: ArithAdd}}, Inputs: []int{0, 1}},
		},
		Root: 2,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, _ := e.GetCurrentValue(root)
	if val.Kind != KindFlushed {
		t.Fatalf("expected a flushed error payload, got %+v", val)
	}
}

func TestComparisonOperators(t *testing.T) {
	cases := []struct {
		name string
		op   ComparisonOp
		a, b float64
		want bool
	}{
		{"gt-true", CmpGt, 5, 3, true},
		{"gt-false", CmpGt, 3, 5, false},
		{"ge-equal", CmpGe, 3, 3, true},
		{"lt-true", CmpLt, 2, 3, true},
		{"le-equal", CmpLe, 3, 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine()
			program := CompiledProgram{
				Nodes: []NodeDescription{
					{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(tc.a)}}},
					{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(tc.b)}}},
					{Kind: NodeKind{Tag: KindComparison, Data: &ComparisonData{Op: tc.op}}, Inputs: []int{0, 1}},
				},
				Root: 2,
			}
			root := mustCompile(t, e, program)
			e.RunUntilQuiescent(5)
			val, _ := e.GetCurrentValue(root)
			if diff := cmp.Diff(BoolPayload(tc.want), val); diff != "" {
				t.Fatalf("unexpected value (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComparisonEqualityWorksAcrossKinds(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: TextPayload("a")}}},
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: TextPayload("a")}}},
			{Kind: NodeKind{Tag: KindComparison, Data: &ComparisonData{Op: CmpEq}}, Inputs: []int{0, 1}},
		},
		Root: 2,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, _ := e.GetCurrentValue(root)
	if diff := cmp.Diff(BoolPayload(true), val); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}
}

// Combiner (LATEST) keeps the most recent non-absent input; only an input
// whose value actually changed since the last read is considered "latest".
// The first input here is an IOPad so its value can change across ticks via
// Inject (a Producer's value is constant for the node's lifetime).
func TestCombinerPrefersMostRecentlyChangedInput(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindIOPad, Data: &IOPadData{}}},
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(2)}}},
			{Kind: NodeKind{Tag: KindCombiner, Data: &CombinerData{}}, Inputs: []int{0, 1}},
		},
		Root: 2,
	}
	root := mustCompile(t, e, program)
	padSlot := SlotId{Index: 0, Generation: 0}

	e.RunUntilQuiescent(5)
	val, _ := e.GetCurrentValue(root)
	// The IOPad has never been injected, so only the producer is non-absent.
	if diff := cmp.Diff(NumberPayload(2), val); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}

	// A fresh value on the IOPad input must override the combiner's value
	// even though the producer input never changes again.
	e.Inject(padSlot, OutputPort, NumberPayload(99))
	e.RunUntilQuiescent(5)
	val, _ = e.GetCurrentValue(root)
	if diff := cmp.Diff(NumberPayload(99), val); diff != "" {
		t.Fatalf("combiner did not adopt the freshly-changed input (-want +got):\n%s", diff)
	}
}

// When two Combiner inputs both change within the same tick, the tie-break
// is the committed Version, not input position: input 0 here is bumped to a
// higher Version on an earlier tick, then both inputs change again
// together; the input processed FIRST (index 0) must still win because its
// Version is higher, which a "last changed input in iteration order wins"
// implementation would get backwards.
func TestCombinerTieBreaksOnHighestVersionNotIterationOrder(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindIOPad, Data: &IOPadData{}}}, // 0: A
			{Kind: NodeKind{Tag: KindIOPad, Data: &IOPadData{}}}, // 1: B
			{Kind: NodeKind{Tag: KindCombiner, Data: &CombinerData{}}, Inputs: []int{0, 1}},
		},
		Root: 2,
	}
	root := mustCompile(t, e, program)
	padA := SlotId{Index: 0, Generation: 0}
	padB := SlotId{Index: 1, Generation: 0}

	// A alone commits once, bumping its Version ahead of B's (still at its
	// zero-value, uncommitted).
	e.Inject(padA, OutputPort, TextPayload("a1"))
	e.Tick()

	// Both commit together this tick: A's Version goes from 1 to 2, B's
	// from 0 to 1. A's Version remains the higher of the two.
	e.Inject(padA, OutputPort, TextPayload("a2"))
	e.Inject(padB, OutputPort, TextPayload("b1"))
	e.Tick()

	val, ok := e.GetCurrentValue(root)
	if !ok {
		t.Fatal("combiner has no value")
	}
	if diff := cmp.Diff(TextPayload("a2"), val); diff != "" {
		t.Fatalf("combiner did not tie-break on highest version (-want +got):\n%s", diff)
	}
}

func TestSkipDropsFirstNNonAbsentValues(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindPulses, Data: &PulsesData{Total: 5}}},
			{Kind: NodeKind{Tag: KindSkip, Data: &SkipData{Count: 2}}, Inputs: []int{0}},
		},
		Root: 1,
	}
	root := mustCompile(t, e, program)

	// Ticks 1-2 are skipped (Pulses emits 0, 1); tick 3 (Pulses emits 2) is
	// the first one the Skip node should forward.
	for i := 0; i < 2; i++ {
		e.Tick()
		if val, ok := e.GetCurrentValue(root); ok && !val.IsAbsent() {
			t.Fatalf("skip forwarded a value before its count elapsed: %v", val)
		}
	}
	e.Tick()
	val, ok := e.GetCurrentValue(root)
	if !ok {
		t.Fatal("skip produced no value after its skip count elapsed")
	}
	if diff := cmp.Diff(NumberPayload(2), val); diff != "" {
		t.Fatalf("unexpected forwarded value (-want +got):\n%s", diff)
	}
}

func TestAccumulatorSumsAcrossTicks(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindPulses, Data: &PulsesData{Total: 3}}},
			{Kind: NodeKind{Tag: KindAccumulator, Data: &AccumulatorData{}}, Inputs: []int{0}},
		},
		Root: 1,
	}
	root := mustCompile(t, e, program)

	// Pulses emits 0, 1, 2 across three ticks; the accumulator's running
	// sum after all three is 0+1+2 = 3.
	e.Tick()
	e.Tick()
	e.Tick()
	val, ok := e.GetCurrentValue(root)
	if !ok {
		t.Fatal("accumulator has no value")
	}
	if diff := cmp.Diff(NumberPayload(3), val); diff != "" {
		t.Fatalf("unexpected running sum (-want +got):\n%s", diff)
	}
}

func TestSwitchedWireForwardsMatchedArmBody(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: BoolPayload(true)}}}, // 0: selector
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(10)}}},  // 1: true-arm body
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(20)}}},  // 2: false-arm body
			{
				Kind: NodeKind{Tag: KindSwitchedWire, Data: &SwitchedWireData{
					Arms: []PatternArm{
						{Pattern: LiteralPattern(BoolPayload(true))},
						{Pattern: LiteralPattern(BoolPayload(false))},
					},
				}},
				Inputs: []int{0, 1, 2},
			},
		},
		Root: 3,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, ok := e.GetCurrentValue(root)
	if !ok {
		t.Fatal("switched wire has no value")
	}
	if diff := cmp.Diff(NumberPayload(10), val); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}
}

func TestSwitchedWireIsAbsentWhenNoArmMatches(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(7)}}},
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(1)}}},
			{
				Kind: NodeKind{Tag: KindSwitchedWire, Data: &SwitchedWireData{
					Arms: []PatternArm{
						{Pattern: LiteralPattern(NumberPayload(99))},
					},
				}},
				Inputs: []int{0, 1},
			},
		},
		Root: 2,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, ok := e.GetCurrentValue(root)
	if ok && !val.IsAbsent() {
		t.Fatalf("switched wire produced a value with no matching arm: %v", val)
	}
}

func TestPatternMuxFiresOnceForMatchedArm(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindPulses, Data: &PulsesData{Total: 1}}},              // 0: selector, fires 0
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: TextPayload("matched")}}}, // 1: arm body
			{
				Kind: NodeKind{Tag: KindPatternMux, Data: &PatternMuxData{
					Arms: []PatternArm{
						{Pattern: LiteralPattern(NumberPayload(0))},
					},
				}},
				Inputs: []int{0, 1},
			},
		},
		Root: 2,
	}
	root := mustCompile(t, e, program)
	e.Tick()
	node, err := e.arena.Get(root)
	if err != nil {
		t.Fatalf("root slot invalid: %v", err)
	}
	pmd, ok := node.Extension.Kind.Data.(*PatternMuxData)
	if !ok {
		t.Fatal("root is not backed by PatternMuxData")
	}
	if pmd.CurrentArm != 0 {
		t.Fatalf("pattern mux did not record the matching arm: got %d", pmd.CurrentArm)
	}
	if !pmd.everSeen {
		t.Fatal("pattern mux never recorded seeing its input")
	}
}

func TestTextTemplateInterpolatesDependencies(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: TextPayload("world")}}},
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(3)}}},
			{
				Kind:   NodeKind{Tag: KindTextTemplate, Data: &TextTemplateData{Template: "hello {0}, count {1}"}},
				Inputs: []int{0, 1},
			},
		},
		Root: 2,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, ok := e.GetCurrentValue(root)
	if !ok {
		t.Fatal("text template has no value")
	}
	if diff := cmp.Diff(TextPayload("hello world, count 3"), val); diff != "" {
		t.Fatalf("unexpected rendering (-want +got):\n%s", diff)
	}
}

func TestBoolNotInvertsSourceAndFlagsTypeMismatch(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: BoolPayload(false)}}},
			{Kind: NodeKind{Tag: KindBoolNot, Data: &BoolNotData{}}, Inputs: []int{0}},
		},
		Root: 1,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, _ := e.GetCurrentValue(root)
	if diff := cmp.Diff(BoolPayload(true), val); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}

	e2 := NewEngine()
	program2 := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: NumberPayload(1)}}},
			{Kind: NodeKind{Tag: KindBoolNot, Data: &BoolNotData{}}, Inputs: []int{0}},
		},
		Root: 1,
	}
	root2 := mustCompile(t, e2, program2)
	e2.RunUntilQuiescent(5)
	val2, _ := e2.GetCurrentValue(root2)
	if val2.Kind != KindFlushed {
		t.Fatalf("expected a flushed error payload for a non-bool source, got %+v", val2)
	}
}

func TestTextTrimAndIsNotEmpty(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: TextPayload("  padded  ")}}},
			{Kind: NodeKind{Tag: KindTextTrim, Data: &TextTrimData{}}, Inputs: []int{0}},
			{Kind: NodeKind{Tag: KindTextIsNotEmpty, Data: &TextIsNotEmptyData{}}, Inputs: []int{0}},
		},
		Root: 1,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, _ := e.GetCurrentValue(root)
	if diff := cmp.Diff(TextPayload("padded"), val); diff != "" {
		t.Fatalf("unexpected trimmed value (-want +got):\n%s", diff)
	}

	e2 := NewEngine()
	program2 := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: TextPayload("   ")}}},
			{Kind: NodeKind{Tag: KindTextIsNotEmpty, Data: &TextIsNotEmptyData{}}, Inputs: []int{0}},
		},
		Root: 1,
	}
	root2 := mustCompile(t, e2, program2)
	e2.RunUntilQuiescent(5)
	val2, _ := e2.GetCurrentValue(root2)
	if diff := cmp.Diff(BoolPayload(false), val2); diff != "" {
		t.Fatalf("whitespace-only text should report not-not-empty as false (-want +got):\n%s", diff)
	}
}

func TestRouterExtractorReadsNamedField(t *testing.T) {
	e := NewEngine()
	nameField := FieldId(1)
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindProducer, Data: &ProducerData{Value: TextPayload("ada")}}}, // 0: field value
			{Kind: NodeKind{Tag: KindRouter, Data: &RouterData{}}},                              // 1: object
			{Kind: NodeKind{Tag: KindExtractor, Data: &ExtractorData{Field: nameField}}},        // 2
		},
		Root: 2,
	}
	program.Nodes[2].Inputs = []int{1}
	program.Nodes[1].FieldInputs = []FieldInputDescription{{Field: nameField, Node: 0}}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, ok := e.GetCurrentValue(root)
	if !ok {
		t.Fatal("extractor has no value")
	}
	if diff := cmp.Diff(TextPayload("ada"), val); diff != "" {
		t.Fatalf("unexpected extracted field value (-want +got):\n%s", diff)
	}
}

// ListAppender reads its trigger's committed level value, so a value
// injected into a level-kind trigger (here an IOPad) is observed one tick
// after the tick that commits it: instantiateListItems runs as step 2 of
// Tick, before the stabilization pass (step 3) that would otherwise let the
// trigger's own value settle within the same tick.
func TestBusListAppenderGrowsOneTickAfterTriggerCommits(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindBus, Data: &BusData{AllocSite: NewAllocSite(SourceId{StableHash: 1})}}}, // 0: bus
			{Kind: NodeKind{Tag: KindIOPad, Data: &IOPadData{}}},                                             // 1: trigger
			{
				Kind:   NodeKind{Tag: KindListAppender, Data: &ListAppenderData{Template: &SlotTemplate{Output: -1}}},
				Inputs: []int{0, 1},
			}, // 2
			{Kind: NodeKind{Tag: KindListCount, Data: &ListCountData{}}, Inputs: []int{0}}, // 3: count of bus 0
		},
		Root: 3,
	}
	e.Compile(program)

	busSlot := SlotId{Index: 0, Generation: 0}
	padSlot := SlotId{Index: 1, Generation: 0}
	countRoot := SlotId{Index: 3, Generation: 0}

	e.Inject(padSlot, OutputPort, TextPayload("alpha"))
	e.Tick() // commits "alpha" as the pad's level value
	e.Tick() // appender observes the new version and appends

	count, ok := e.GetCurrentValue(countRoot)
	if !ok {
		t.Fatal("list count has no value")
	}
	if diff := cmp.Diff(NumberPayload(1), count); diff != "" {
		t.Fatalf("bus did not grow by one item (-want +got):\n%s", diff)
	}

	node, err := e.arena.Get(busSlot)
	if err != nil {
		t.Fatalf("bus slot invalid: %v", err)
	}
	bus, ok := node.Extension.Kind.Data.(*BusData)
	if !ok {
		t.Fatal("slot 0 is not backed by BusData")
	}
	if len(bus.Items) != 1 {
		t.Fatalf("expected 1 bus item, got %d", len(bus.Items))
	}
	itemNode, err := e.arena.Get(bus.Items[0].Slot)
	if err != nil {
		t.Fatalf("item slot invalid: %v", err)
	}
	if diff := cmp.Diff(TextPayload("alpha"), itemNode.CurrentValue()); diff != "" {
		t.Fatalf("item snapshot mismatch (-want +got):\n%s", diff)
	}

	// A second trigger value appends a second item the same way.
	e.Inject(padSlot, OutputPort, TextPayload("beta"))
	e.Tick()
	e.Tick()
	count, ok = e.GetCurrentValue(countRoot)
	if !ok {
		t.Fatal("list count has no value after second trigger")
	}
	if diff := cmp.Diff(NumberPayload(2), count); diff != "" {
		t.Fatalf("bus did not grow on a second trigger (-want +got):\n%s", diff)
	}
}

func TestListIsEmptyReflectsBusState(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindBus, Data: &BusData{AllocSite: NewAllocSite(SourceId{StableHash: 2})}}},
			{Kind: NodeKind{Tag: KindListIsEmpty, Data: &ListIsEmptyData{}}, Inputs: []int{0}},
		},
		Root: 1,
	}
	root := mustCompile(t, e, program)
	e.RunUntilQuiescent(5)
	val, _ := e.GetCurrentValue(root)
	if diff := cmp.Diff(BoolPayload(true), val); diff != "" {
		t.Fatalf("fresh bus should report empty (-want +got):\n%s", diff)
	}
}

func TestTimerEmitsFireCount(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindTimer, Data: &TimerData{IntervalMs: 100, Active: true}}},
		},
		Root: 0,
	}
	root := mustCompile(t, e, program)
	e.FireTimer(root)
	e.Tick()
	val, ok := e.GetCurrentValue(root)
	if !ok {
		t.Fatal("timer has no value after firing")
	}
	if diff := cmp.Diff(NumberPayload(1), val); diff != "" {
		t.Fatalf("unexpected fire count (-want +got):\n%s", diff)
	}

	e.FireTimer(root)
	e.Tick()
	val, _ = e.GetCurrentValue(root)
	if diff := cmp.Diff(NumberPayload(2), val); diff != "" {
		t.Fatalf("timer did not accumulate fire count across ticks (-want +got):\n%s", diff)
	}
}

func TestPulsesNeverFiresOnceExhausted(t *testing.T) {
	e := NewEngine()
	program := CompiledProgram{
		Nodes: []NodeDescription{
			{Kind: NodeKind{Tag: KindPulses, Data: &PulsesData{Total: 2}}},
		},
		Root: 0,
	}
	root := mustCompile(t, e, program)
	e.Tick()
	e.Tick()
	e.Tick() // exhausted after Total ticks; must not fire a third time

	node, err := e.arena.Get(root)
	if err != nil {
		t.Fatalf("root slot invalid: %v", err)
	}
	if node.Extension != nil && node.Extension.HasValue {
		t.Fatal("exhausted pulses still holds a value after tick reset")
	}
	pd, ok := node.Extension.Kind.Data.(*PulsesData)
	if !ok {
		t.Fatal("root is not backed by PulsesData")
	}
	if pd.Current != pd.Total {
		t.Fatalf("pulses kept counting past its total: current=%d total=%d", pd.Current, pd.Total)
	}
}
