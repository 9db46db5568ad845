package sig

import (
	"strings"

	"quill/internal/source"
	"quill/internal/types"
)

// GenericParam is a placeholder type local to one declaration, together
// with the traits its binding must satisfy.
type GenericParam struct {
	Name   source.StringID
	Type   types.TypeID // interned placeholder descriptor
	Bounds []source.StringID
	Span   source.Span
}

// Declaration is a concrete or generic function, or a trait method.
type Declaration struct {
	Shape    Shape
	Generics []GenericParam
	Return   types.TypeID // NoTypeID means None
	Span     source.Span  // declaring site

	// Trait is the owning trait for trait methods, NoStringID otherwise.
	Trait source.StringID
	// HasDefault marks a trait method that carries a default body.
	HasDefault bool
	// DefaultDeps lists shape keys of the required methods the default
	// body calls; they must resolve for a concrete type before the
	// default counts as satisfied.
	DefaultDeps []string
}

// IsGeneric reports whether any slot carries a generic placeholder.
func (d *Declaration) IsGeneric() bool {
	return len(d.Generics) > 0
}

// GenericByType finds the generic parameter interned as the given placeholder.
func (d *Declaration) GenericByType(id types.TypeID) (*GenericParam, bool) {
	for i := range d.Generics {
		if d.Generics[i].Type == id {
			return &d.Generics[i], true
		}
	}
	return nil, false
}

// Key returns the declaration's shape key (its "name format").
func (d *Declaration) Key(strs *source.Interner) string {
	return d.Shape.Key(strs)
}

// Label renders the full signature with parameter types, for diagnostics.
func (d *Declaration) Label(strs *source.Interner, tin *types.Interner) string {
	return d.Shape.Label(strs, tin)
}

// MangledName derives a stable backend name for the declaration under a
// generic binding: the shape key with spaces collapsed plus the bound
// argument types in slot order, e.g. `baz____Integer_Integer`.
func (d *Declaration) MangledName(strs *source.Interner, tin *types.Interner, bindings map[types.TypeID]types.TypeID) string {
	var sb strings.Builder
	for i, slot := range d.Shape.Slots {
		if i > 0 {
			sb.WriteByte('_')
		}
		if slot.Kind == SlotToken {
			text, _ := strs.Lookup(slot.Token)
			sb.WriteString(mangleToken(text))
			continue
		}
		ty := slot.Type
		if bound, ok := bindings[ty]; ok {
			ty = bound
		}
		sb.WriteString(mangleToken(tin.Label(ty)))
	}
	return sb.String()
}

func mangleToken(text string) string {
	var sb strings.Builder
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
