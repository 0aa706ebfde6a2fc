package boon

import "github.com/cespare/xxhash/v2"

// SourceId is a stable identifier derived from a source construct. The
// compiler collaborator computes StableHash over the structural shape of an
// expression (not its surrounding whitespace or comments) so that it
// survives cosmetic source edits; the engine only ever stores and compares
// SourceIds, never recomputes them.
type SourceId struct {
	StableHash uint64
	ParseOrder uint32
}

// HashSource computes a stable structural hash for use as SourceId.StableHash.
// Exposed for the compiler collaborator; the engine itself never hashes
// source text.
func HashSource(structural []byte) uint64 {
	return xxhash.Sum64(structural)
}

// ScopeId captures the dynamic instantiation context a node was created
// under: which iteration of which list item it belongs to. ROOT is the
// top-level document scope.
type ScopeId uint64

// ScopeRoot is the top-level scope, equivalent to Rust's ScopeId::ROOT.
const ScopeRoot ScopeId = 0

// Child derives a new ScopeId nested under this one, discriminated by an
// instance counter (typically an ItemKey). The mix matches the original
// engine's wrapping multiply-add so scope derivation is reproducible.
func (s ScopeId) Child(discriminator uint64) ScopeId {
	return ScopeId(uint64(s)*31 + discriminator)
}

// SlotId is a generational handle into the Arena. Reads validate Generation;
// a stale SlotId fails to resolve rather than aliasing a reused slot.
type SlotId struct {
	Index      uint32
	Generation uint32
}

// InvalidSlot is the zero-value-adjacent sentinel for "no slot", distinct
// from any SlotId the arena will ever allocate (Index == ^uint32(0)).
var InvalidSlot = SlotId{Index: ^uint32(0), Generation: 0}

// IsValid reports whether the SlotId could possibly refer to something (it
// does not check the arena; see Arena.Get for that).
func (s SlotId) IsValid() bool {
	return s.Index != InvalidSlot.Index
}

// Domain identifies which runtime a node's address belongs to. The engine
// currently executes only Main; Worker and Server are carried so that
// NodeAddress values remain stable if a future host adds non-Main domains,
// without changing the address encoding (addressing domains is not the
// same as executing them in parallel, which remains a Non-goal).
type Domain uint8

const (
	DomainMain Domain = iota
	DomainWorker
	DomainServer
)

// Port identifies a named pin of a node.
type Port struct {
	Kind  PortKind
	Input uint8  // valid when Kind == PortInput
	Field FieldId // valid when Kind == PortField
}

// PortKind discriminates the Port union.
type PortKind uint8

const (
	PortOutput PortKind = iota
	PortInput
	PortField
)

// InputPort constructs a numbered input port.
func InputPort(n uint8) Port { return Port{Kind: PortInput, Input: n} }

// FieldPort constructs a field port.
func FieldPort(f FieldId) Port { return Port{Kind: PortField, Field: f} }

// OutputPort is the default output pin, the zero value of Port.
var OutputPort = Port{Kind: PortOutput}

// NodeAddress fully addresses a port on a node, used when sorting and when
// subscribing across domains.
type NodeAddress struct {
	Domain   Domain
	Source   SourceId
	Scope    ScopeId
	Port     Port
}

// WithPort returns a copy of the address with a different port.
func (a NodeAddress) WithPort(p Port) NodeAddress {
	a.Port = p
	return a
}

// FieldId is an interned field name, owned by the Arena's intern table.
type FieldId uint32

// TagId is an interned tag name, owned by the Arena's intern table.
type TagId uint32

// ItemKey identifies a list item, allocated from an AllocSite. Keys are
// stable across ticks and form the identity ListDelta operations key on.
type ItemKey uint64

// AllocSite generates stable ItemKeys for a Bus, attached to the Bus's
// kind-specific data.
type AllocSite struct {
	Source       SourceId
	nextInstance uint64
}

// NewAllocSite creates an AllocSite rooted at the given source construct
// (typically the list-literal or comprehension that owns the Bus).
func NewAllocSite(source SourceId) AllocSite {
	return AllocSite{Source: source}
}

// Allocate returns the next stable ItemKey from this site.
func (a *AllocSite) Allocate() ItemKey {
	k := ItemKey(a.nextInstance)
	a.nextInstance++
	return k
}
