package main

import (
	"encoding/json"
	"fmt"

	"github.com/boonlang/boon"
)

// wireProgram is the JSON wire shape this CLI accepts in place of real
// source text, standing in for the source-language front end that
// boon.Compiler's caller would otherwise run: the engine only ever
// consumes CompiledProgram, and lexing/parsing is an external
// collaborator this repository does not implement. Each node names one
// of the closed node kinds by tag and supplies its scalar parameters
// directly; SlotId-valued fields are resolved positionally from Inputs the
// same way Engine.Compile resolves them for a real front end.
type wireProgram struct {
	Root  int        `json:"root"`
	Nodes []wireNode `json:"nodes"`
}

type wireNode struct {
	Tag         string             `json:"tag"`
	Inputs      []int              `json:"inputs"`
	FieldInputs []wireFieldInput   `json:"field_inputs"`
	Params      json.RawMessage    `json:"params"`
	Scope       uint64             `json:"scope"`
}

type wireFieldInput struct {
	Field string `json:"field"`
	Node  int    `json:"node"`
}

// jsonCompiler implements boon.Compiler by decoding program (a JSON string
// in the wireProgram shape above) directly into a boon.CompiledProgram.
type jsonCompiler struct {
	fields map[string]boon.FieldId
	tags   map[string]boon.TagId
	nextF  boon.FieldId
	nextT  boon.TagId
}

func newJSONCompiler() *jsonCompiler {
	return &jsonCompiler{fields: make(map[string]boon.FieldId), tags: make(map[string]boon.TagId)}
}

func (c *jsonCompiler) fieldID(name string) boon.FieldId {
	if id, ok := c.fields[name]; ok {
		return id
	}
	c.nextF++
	c.fields[name] = c.nextF
	return c.nextF
}

func (c *jsonCompiler) tagID(name string) boon.TagId {
	if id, ok := c.tags[name]; ok {
		return id
	}
	c.nextT++
	c.tags[name] = c.nextT
	return c.nextT
}

func (c *jsonCompiler) Compile(program interface{}) (boon.CompiledProgram, error) {
	src, ok := program.(string)
	if !ok {
		return boon.CompiledProgram{}, fmt.Errorf("jsonCompiler: program must be a JSON string, got %T", program)
	}
	var wp wireProgram
	if err := json.Unmarshal([]byte(src), &wp); err != nil {
		return boon.CompiledProgram{}, fmt.Errorf("jsonCompiler: %w", err)
	}
	nodes := make([]boon.NodeDescription, len(wp.Nodes))
	for i, wn := range wp.Nodes {
		kind, err := c.buildKind(wn)
		if err != nil {
			return boon.CompiledProgram{}, fmt.Errorf("node %d (%s): %w", i, wn.Tag, err)
		}
		fieldInputs := make([]boon.FieldInputDescription, len(wn.FieldInputs))
		for j, fi := range wn.FieldInputs {
			fieldInputs[j] = boon.FieldInputDescription{Field: c.fieldID(fi.Field), Node: fi.Node}
		}
		nodes[i] = boon.NodeDescription{
			Source:      boon.SourceId{StableHash: boon.HashSource([]byte(fmt.Sprintf("%d:%s", i, wn.Tag))), ParseOrder: uint32(i)},
			Scope:       boon.ScopeId(wn.Scope),
			Kind:        kind,
			Inputs:      wn.Inputs,
			FieldInputs: fieldInputs,
		}
	}
	return boon.CompiledProgram{Nodes: nodes, Root: wp.Root}, nil
}

var _ boon.Compiler = (*jsonCompiler)(nil)
