package sig

import (
	"strings"

	"quill/internal/source"
	"quill/internal/types"
)

// SlotKind distinguishes literal keyword tokens from argument slots.
type SlotKind uint8

const (
	SlotToken SlotKind = iota
	SlotArg
)

// Slot is one cell of a mixfix skeleton: either a literal keyword
// token or an argument slot with a type and an ownership qualifier.
type Slot struct {
	Kind  SlotKind
	Token source.StringID // SlotToken only
	Name  source.StringID // SlotArg: optional parameter name
	Type  types.TypeID    // SlotArg: concrete type or generic placeholder
	Qual  Qualifier       // SlotArg only
	Span  source.Span
}

// Shape is the mixfix skeleton of a declaration: the ordered token/slot
// sequence, independent of concrete argument types.
type Shape struct {
	Slots []Slot
}

// Key renders the shape skeleton with every argument slot blanked out,
// e.g. `<> + <>` or `baz <> <>`. Two shapes can only be candidates for
// each other when their keys are equal.
func (s Shape) Key(strs *source.Interner) string {
	var sb strings.Builder
	for i, slot := range s.Slots {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if slot.Kind == SlotToken {
			text, _ := strs.Lookup(slot.Token)
			sb.WriteString(text)
		} else {
			sb.WriteString("<>")
		}
	}
	return sb.String()
}

// Args returns the argument slots in order.
func (s Shape) Args() []Slot {
	out := make([]Slot, 0, len(s.Slots))
	for _, slot := range s.Slots {
		if slot.Kind == SlotArg {
			out = append(out, slot)
		}
	}
	return out
}

// Arity returns the total number of cells (tokens plus argument slots).
func (s Shape) Arity() int {
	return len(s.Slots)
}

// Span covers the whole shape.
func (s Shape) Span() source.Span {
	if len(s.Slots) == 0 {
		return source.Span{}
	}
	sp := s.Slots[0].Span
	for _, slot := range s.Slots[1:] {
		sp = sp.Cover(slot.Span)
	}
	return sp
}

// Label renders the shape with parameter types spelled out,
// e.g. `<:Bool> and <:Bool>`. Used in diagnostics and mangled names.
func (s Shape) Label(strs *source.Interner, tin *types.Interner) string {
	var sb strings.Builder
	for i, slot := range s.Slots {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if slot.Kind == SlotToken {
			text, _ := strs.Lookup(slot.Token)
			sb.WriteString(text)
			continue
		}
		sb.WriteString("<:")
		if slot.Qual != Owned {
			sb.WriteString(slot.Qual.String())
			sb.WriteByte(' ')
		}
		sb.WriteString(tin.Label(slot.Type))
		sb.WriteByte('>')
	}
	return sb.String()
}
