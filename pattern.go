package boon

// RuntimePatternKind discriminates RuntimePattern variants.
type RuntimePatternKind uint8

const (
	PatternLiteral RuntimePatternKind = iota
	PatternWildcard
	PatternBinding
	PatternList
	PatternObject
	PatternTag
)

// RuntimePattern is a compiled pattern used by PatternMux (WHEN) and
// SwitchedWire (WHILE). Matching is shallow for list/object patterns:
// handles match by kind only, not by contents. Deep matching would require
// walking into handles via the arena; this implementation preserves the
// reference engine's limitation rather than extending it (see DESIGN.md
// Open Question 1). Arms are tested in order; the first match wins.
type RuntimePattern struct {
	Kind RuntimePatternKind

	Literal Payload
	Binding string
	List    []RuntimePattern
	Object  []ObjectFieldPattern
	Tag     TagId
}

// ObjectFieldPattern pairs a field with the pattern its value must match.
type ObjectFieldPattern struct {
	Field   FieldId
	Pattern RuntimePattern
}

// LiteralPattern matches a payload exactly equal to v.
func LiteralPattern(v Payload) RuntimePattern {
	return RuntimePattern{Kind: PatternLiteral, Literal: v}
}

// WildcardPattern matches anything.
var WildcardPattern = RuntimePattern{Kind: PatternWildcard}

// BindingPattern captures anything under name, for use in the arm's body.
func BindingPattern(name string) RuntimePattern {
	return RuntimePattern{Kind: PatternBinding, Binding: name}
}

// ListPattern matches a ListHandle by kind only (see shallow-match note).
func ListPattern(elems []RuntimePattern) RuntimePattern {
	return RuntimePattern{Kind: PatternList, List: elems}
}

// ObjectPattern matches an ObjectHandle by kind only (see shallow-match note).
func ObjectPattern(fields []ObjectFieldPattern) RuntimePattern {
	return RuntimePattern{Kind: PatternObject, Object: fields}
}

// TagPattern matches a Tag payload or a TaggedObject by its tag field.
func TagPattern(tag TagId) RuntimePattern {
	return RuntimePattern{Kind: PatternTag, Tag: tag}
}

// Matches reports whether this pattern matches payload. List and Object
// patterns match any ListHandle/ObjectHandle respectively without
// inspecting contents; a compiler or node wanting deep structural matching
// must walk the arena explicitly (the engine does not do this implicitly).
func (p RuntimePattern) Matches(payload Payload) bool {
	switch p.Kind {
	case PatternWildcard, PatternBinding:
		return true
	case PatternLiteral:
		return p.Literal.Equal(payload)
	case PatternTag:
		if payload.Kind == KindTag {
			return p.Tag == payload.Tag
		}
		if payload.Kind == KindTaggedObject {
			return p.Tag == payload.TaggedTag
		}
		return false
	case PatternList:
		return payload.Kind == KindListHandle
	case PatternObject:
		return payload.Kind == KindObjectHandle
	}
	return false
}

// MatchArms returns the index of the first arm whose pattern matches
// payload, or -1 if none match (PatternNoMatch).
func MatchArms(arms []PatternArm, payload Payload) int {
	for i, arm := range arms {
		if arm.Pattern.Matches(payload) {
			return i
		}
	}
	return -1
}
