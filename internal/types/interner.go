package types

import (
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"

	"quill/internal/source"
)

// Builtins stores TypeIDs for the compiler-provided primitive types.
type Builtins struct {
	Invalid       TypeID
	None          TypeID
	Bool          TypeID
	Integer       TypeID
	Rational      TypeID
	String        TypeID
	MemoryAddress TypeID
	I32           TypeID
	F64           TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Structural equality of types reduces to TypeID equality.
//
// Safe for concurrent use: resolutions of independent calls may intern
// instantiated types (e.g. generic returns) against a shared interner.
type Interner struct {
	mu       sync.RWMutex
	strings  *source.Interner
	types    []Type
	index    map[string]TypeID
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner(strs *source.Interner) *Interner {
	in := &Interner{
		strings: strs,
		index:   make(map[string]TypeID, 64),
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.None = in.Intern(MakeBuiltin(strs.Intern("None")))
	in.builtins.Bool = in.Intern(MakeBuiltin(strs.Intern("Bool")))
	in.builtins.Integer = in.Intern(MakeBuiltin(strs.Intern("Integer")))
	in.builtins.Rational = in.Intern(MakeBuiltin(strs.Intern("Rational")))
	in.builtins.String = in.Intern(MakeBuiltin(strs.Intern("String")))
	in.builtins.MemoryAddress = in.Intern(MakeBuiltin(strs.Intern("MemoryAddress")))
	in.builtins.I32 = in.Intern(MakeBuiltin(strs.Intern("I32")))
	in.builtins.F64 = in.Intern(MakeBuiltin(strs.Intern("F64")))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Strings returns the string interner type names are allocated from.
func (in *Interner) Strings() *source.Interner {
	return in.strings
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the
// map. Callers hold mu (or own the interner exclusively, as in New).
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// IsParam reports whether the TypeID names a generic placeholder.
func (in *Interner) IsParam(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.IsParam()
}

// Label renders a type for diagnostics, e.g. "Array<Integer>".
func (in *Interner) Label(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	name, _ := in.strings.Lookup(t.Name)
	if len(t.Args) == 0 {
		return name
	}
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('<')
	for i, arg := range t.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(in.Label(arg))
	}
	sb.WriteByte('>')
	return sb.String()
}

// typeKey builds a structural hash key: kind, name, then argument IDs.
func typeKey(t Type) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:%d", t.Kind, t.Name)
	for _, arg := range t.Args {
		fmt.Fprintf(&sb, ":%d", arg)
	}
	return sb.String()
}
