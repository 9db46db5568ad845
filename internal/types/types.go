package types

import (
	"fmt"

	"quill/internal/source"
)

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindNamed is a nominal type, possibly instantiated with generic arguments.
	KindNamed
	// KindParam is a generic placeholder scoped to one declaration.
	KindParam
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNamed:
		return "named"
	case KindParam:
		return "param"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
// Two types are identical iff their descriptors are structurally equal,
// which the interner reduces to TypeID equality.
type Type struct {
	Kind    Kind
	Name    source.StringID
	Args    []TypeID // generic arguments, KindNamed only
	Builtin bool     // builtins have no user-visible layout or constructor
}

// MakeNamed describes a nominal type instantiated with the given arguments.
func MakeNamed(name source.StringID, args ...TypeID) Type {
	return Type{Kind: KindNamed, Name: name, Args: args}
}

// MakeBuiltin describes a compiler-provided nominal type.
func MakeBuiltin(name source.StringID, args ...TypeID) Type {
	return Type{Kind: KindNamed, Name: name, Args: args, Builtin: true}
}

// MakeParam describes a generic placeholder with the given name.
func MakeParam(name source.StringID) Type {
	return Type{Kind: KindParam, Name: name}
}

// IsParam reports whether the descriptor is a generic placeholder.
func (t Type) IsParam() bool {
	return t.Kind == KindParam
}
