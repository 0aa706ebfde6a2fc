package boon

// Compiler is the external collaborator that lowers a source-language AST
// into a CompiledProgram. The engine never parses source text; it only
// consumes this wire shape. The lexer/parser/AST themselves are out of
// scope for this repository.
type Compiler interface {
	Compile(program interface{}) (CompiledProgram, error)
}

// CompiledProgram is the compiler's only obligation to the engine: a flat
// description of node descriptions plus a root. Engine.Compile allocates
// one arena slot per NodeDescription (in order, so NodeDescription indices
// double as provisional slot references before allocation) and wires
// routes/inputs according to Inputs.
type CompiledProgram struct {
	Nodes []NodeDescription
	Root  int // index into Nodes of the document root, or -1 if none
}

// NodeDescription describes one node to allocate. Inputs are indices into
// the same CompiledProgram.Nodes slice (resolved to real SlotIds during
// Engine.Compile); Kind carries the fully-formed NodeKind data, with any
// SlotId fields left as InvalidSlot to be patched in by index via Inputs.
type NodeDescription struct {
	Source SourceId
	Scope  ScopeId
	Kind   NodeKind
	Inputs []int
	// FieldInputs wires a Router's per-field backing slots. Router is the
	// one kind whose dependencies are keyed (by FieldId) rather than
	// positional, so it is not carried through Inputs like every other kind.
	FieldInputs []FieldInputDescription
}

// FieldInputDescription pairs a field with the index (into the same
// CompiledProgram.Nodes slice) of the slot backing it.
type FieldInputDescription struct {
	Field FieldId
	Node  int
}

// Compile lowers a CompiledProgram into the engine's arena: allocates one
// slot per node (in order), then wires each node's declared inputs into
// routes so that the inputs' subscriber lists include this node. Returns
// the root slot and whether compilation produced one.
func (e *Engine) Compile(program CompiledProgram) (SlotId, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slots := make([]SlotId, len(program.Nodes))
	for i, desc := range program.Nodes {
		addr := NodeAddress{Source: desc.Source, Scope: desc.Scope}
		s := e.arena.AllocWithAddress(addr)
		slots[i] = s
		node, _ := e.arena.Get(s)
		node.SetKind(desc.Kind)
		node.Dirty = true
	}
	for i, desc := range program.Nodes {
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
		for _, fi := range desc.FieldInputs {
			if fi.Node < 0 || fi.Node >= len(slots) {
				continue
			}
			router, ok := node.Extension.Kind.Data.(*RouterData)
			if !ok {
				continue
			}
			source := slots[fi.Node]
			if router.Fields == nil {
				router.Fields = make(map[FieldId]SlotId)
			}
			router.Fields[fi.Field] = source
			e.routing.AddRoute(source, target, FieldPort(fi.Field))
		}
	}
	e.markAllDirty(slots)
	e.bumpGraphGeneration()

	if program.Root < 0 || program.Root >= len(slots) {
		return InvalidSlot, false
	}
	return slots[program.Root], true
}
