package main

import (
	"encoding/json"
	"fmt"

	"github.com/boonlang/boon"
)

// wireScalar is the friendly JSON encoding for a scalar boon.Payload,
// reusing the same kind vocabulary as the engine's own snapshot format so
// --state files and inline literals read the same way.
type wireScalar struct {
	Kind   string  `json:"kind"`
	Number float64 `json:"number,omitempty"`
	Text   string  `json:"text,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
	Tag    string  `json:"tag,omitempty"`
}

func decodeScalar(raw json.RawMessage, tagID func(string) boon.TagId) (boon.Payload, error) {
	if len(raw) == 0 {
		return boon.Unit, nil
	}
	var s wireScalar
	if err := json.Unmarshal(raw, &s); err != nil {
		return boon.Payload{}, err
	}
	switch s.Kind {
	case "", "unit":
		return boon.Unit, nil
	case "number":
		return boon.NumberPayload(s.Number), nil
	case "text":
		return boon.TextPayload(s.Text), nil
	case "bool":
		return boon.BoolPayload(s.Bool), nil
	case "tag":
		return boon.TagPayload(tagID(s.Tag)), nil
	}
	return boon.Payload{}, fmt.Errorf("unknown scalar kind %q", s.Kind)
}

// wirePatternArm is the JSON encoding of one PatternMux/SwitchedWire arm.
// Only the pattern is supplied here; BodySlot is resolved positionally
// from the node's Inputs (the Input slot first, then one per arm, the
// same order kindInputSlots expects).
type wirePatternArm struct {
	Pattern wirePattern `json:"pattern"`
}

type wirePattern struct {
	Kind    string          `json:"kind"` // literal | wildcard | binding
	Literal json.RawMessage `json:"literal,omitempty"`
	Binding string          `json:"binding,omitempty"`
}

func (c *jsonCompiler) buildPattern(p wirePattern) (boon.RuntimePattern, error) {
	switch p.Kind {
	case "wildcard", "":
		return boon.WildcardPattern, nil
	case "binding":
		return boon.BindingPattern(p.Binding), nil
	case "literal":
		v, err := decodeScalar(p.Literal, c.tagID)
		if err != nil {
			return boon.RuntimePattern{}, err
		}
		return boon.LiteralPattern(v), nil
	}
	return boon.RuntimePattern{}, fmt.Errorf("unknown pattern kind %q", p.Kind)
}

// buildKind constructs the NodeKind for wn, decoding its Params into the
// matching kind-specific Data struct. SlotId-valued fields are left zero;
// Engine.Compile patches them in from wn.Inputs via kindInputSlots.
func (c *jsonCompiler) buildKind(wn wireNode) (boon.NodeKind, error) {
	raw := wn.Params
	switch wn.Tag {
	case "producer":
		var p struct {
			Value json.RawMessage `json:"value"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		v, err := decodeScalar(p.Value, c.tagID)
		if err != nil {
			return boon.NodeKind{}, err
		}
		return boon.NodeKind{Tag: boon.KindProducer, Data: &boon.ProducerData{Value: v}}, nil

	case "wire":
		return boon.NodeKind{Tag: boon.KindWire, Data: &boon.WireData{}}, nil

	case "combiner":
		return boon.NodeKind{Tag: boon.KindCombiner, Data: &boon.CombinerData{}}, nil

	case "register":
		return boon.NodeKind{Tag: boon.KindRegister, Data: &boon.RegisterData{}}, nil

	case "transformer":
		return boon.NodeKind{Tag: boon.KindTransformer, Data: &boon.TransformerData{}}, nil

	case "pattern_mux", "switched_wire":
		var p struct {
			Arms []wirePatternArm `json:"arms"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		arms := make([]boon.PatternArm, len(p.Arms))
		for i, a := range p.Arms {
			pat, err := c.buildPattern(a.Pattern)
			if err != nil {
				return boon.NodeKind{}, err
			}
			arms[i] = boon.PatternArm{Pattern: pat}
		}
		if wn.Tag == "pattern_mux" {
			return boon.NodeKind{Tag: boon.KindPatternMux, Data: &boon.PatternMuxData{CurrentArm: -1, Arms: arms}}, nil
		}
		return boon.NodeKind{Tag: boon.KindSwitchedWire, Data: &boon.SwitchedWireData{CurrentArm: -1, Arms: arms}}, nil

	case "router":
		return boon.NodeKind{Tag: boon.KindRouter, Data: &boon.RouterData{Fields: make(map[boon.FieldId]boon.SlotId)}}, nil

	case "extractor":
		var p struct {
			Field string `json:"field"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		return boon.NodeKind{Tag: boon.KindExtractor, Data: &boon.ExtractorData{Field: c.fieldID(p.Field)}}, nil

	case "bus":
		return boon.NodeKind{Tag: boon.KindBus, Data: &boon.BusData{}}, nil

	case "list_appender":
		return boon.NodeKind{Tag: boon.KindListAppender, Data: &boon.ListAppenderData{}}, nil

	case "list_mapper":
		return boon.NodeKind{Tag: boon.KindListMapper, Data: &boon.ListMapperData{
			MappedItems:  make(map[boon.SlotId][]boon.SlotId),
			MappedOutput: make(map[boon.SlotId]boon.SlotId),
		}}, nil

	case "filtered_view":
		return boon.NodeKind{Tag: boon.KindFilteredView, Data: &boon.FilteredViewData{Conditions: make(map[boon.SlotId]boon.SlotId)}}, nil

	case "timer":
		var p struct {
			IntervalMs float64 `json:"interval_ms"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		return boon.NodeKind{Tag: boon.KindTimer, Data: &boon.TimerData{IntervalMs: p.IntervalMs}}, nil

	case "pulses":
		var p struct {
			Total uint32 `json:"total"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		return boon.NodeKind{Tag: boon.KindPulses, Data: &boon.PulsesData{Total: p.Total}}, nil

	case "skip":
		var p struct {
			Count uint32 `json:"count"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		return boon.NodeKind{Tag: boon.KindSkip, Data: &boon.SkipData{Count: p.Count}}, nil

	case "accumulator":
		return boon.NodeKind{Tag: boon.KindAccumulator, Data: &boon.AccumulatorData{}}, nil

	case "arithmetic":
		var p struct {
			Op string `json:"op"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		op, err := arithmeticOp(p.Op)
		if err != nil {
			return boon.NodeKind{}, err
		}
		return boon.NodeKind{Tag: boon.KindArithmetic, Data: &boon.ArithmeticData{Op: op}}, nil

	case "comparison":
		var p struct {
			Op string `json:"op"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		op, err := comparisonOp(p.Op)
		if err != nil {
			return boon.NodeKind{}, err
		}
		return boon.NodeKind{Tag: boon.KindComparison, Data: &boon.ComparisonData{Op: op}}, nil

	case "effect":
		var p struct {
			Type string `json:"type"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		et, err := effectKind(p.Type)
		if err != nil {
			return boon.NodeKind{}, err
		}
		return boon.NodeKind{Tag: boon.KindEffect, Data: &boon.EffectData{EffectType: et}}, nil

	case "io_pad":
		var p struct {
			EventType string `json:"event_type"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		return boon.NodeKind{Tag: boon.KindIOPad, Data: &boon.IOPadData{EventType: p.EventType, Connected: true}}, nil

	case "text_template":
		var p struct {
			Template string `json:"template"`
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return boon.NodeKind{}, err
			}
		}
		return boon.NodeKind{Tag: boon.KindTextTemplate, Data: &boon.TextTemplateData{Template: p.Template}}, nil

	case "list_count":
		return boon.NodeKind{Tag: boon.KindListCount, Data: &boon.ListCountData{}}, nil

	case "list_is_empty":
		return boon.NodeKind{Tag: boon.KindListIsEmpty, Data: &boon.ListIsEmptyData{}}, nil

	case "bool_not":
		return boon.NodeKind{Tag: boon.KindBoolNot, Data: &boon.BoolNotData{}}, nil

	case "text_trim":
		return boon.NodeKind{Tag: boon.KindTextTrim, Data: &boon.TextTrimData{}}, nil

	case "text_is_not_empty":
		return boon.NodeKind{Tag: boon.KindTextIsNotEmpty, Data: &boon.TextIsNotEmptyData{}}, nil
	}
	return boon.NodeKind{}, fmt.Errorf("unknown node tag %q", wn.Tag)
}

func arithmeticOp(s string) (boon.ArithmeticOp, error) {
	switch s {
	case "add":
		return boon.ArithAdd, nil
	case "sub":
		return boon.ArithSub, nil
	case "mul":
		return boon.ArithMul, nil
	case "div":
		return boon.ArithDiv, nil
	case "negate":
		return boon.ArithNegate, nil
	}
	return 0, fmt.Errorf("unknown arithmetic op %q", s)
}

func comparisonOp(s string) (boon.ComparisonOp, error) {
	switch s {
	case "eq":
		return boon.CmpEq, nil
	case "ne":
		return boon.CmpNe, nil
	case "gt":
		return boon.CmpGt, nil
	case "ge":
		return boon.CmpGe, nil
	case "lt":
		return boon.CmpLt, nil
	case "le":
		return boon.CmpLe, nil
	}
	return 0, fmt.Errorf("unknown comparison op %q", s)
}

func effectKind(s string) (boon.EffectKind, error) {
	switch s {
	case "log_info":
		return boon.EffectLogInfo, nil
	case "log_warn":
		return boon.EffectLogWarn, nil
	case "log_error":
		return boon.EffectLogError, nil
	case "navigate":
		return boon.EffectNavigate, nil
	}
	return 0, fmt.Errorf("unknown effect type %q", s)
}
