package sig

import (
	"strings"

	"quill/internal/source"
	"quill/internal/types"
)

// CallPart is one cell of a call expression: a literal keyword token,
// or an argument whose sub-expression was already typed and qualified
// by the surrounding expression checker.
type CallPart struct {
	Kind  SlotKind
	Token source.StringID // SlotToken only
	Type  types.TypeID    // SlotArg only
	Qual  Qualifier       // SlotArg only
	Span  source.Span
}

// CallSite is an ordered sequence of literal tokens and typed arguments.
type CallSite struct {
	Parts []CallPart
}

// Key renders the call's shape key, e.g. `<> + <>`. It matches
// Declaration keys by construction.
func (c *CallSite) Key(strs *source.Interner) string {
	var sb strings.Builder
	for i, part := range c.Parts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if part.Kind == SlotToken {
			text, _ := strs.Lookup(part.Token)
			sb.WriteString(text)
		} else {
			sb.WriteString("<>")
		}
	}
	return sb.String()
}

// Label renders the call with its argument types, e.g.
// `<:Integer> + <:Integer>`.
func (c *CallSite) Label(strs *source.Interner, tin *types.Interner) string {
	var sb strings.Builder
	for i, part := range c.Parts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if part.Kind == SlotToken {
			text, _ := strs.Lookup(part.Token)
			sb.WriteString(text)
			continue
		}
		sb.WriteString("<:")
		if part.Qual != Owned {
			sb.WriteString(part.Qual.String())
		}
		sb.WriteString(tin.Label(part.Type))
		sb.WriteByte('>')
	}
	return sb.String()
}

// Args returns the argument parts in order.
func (c *CallSite) Args() []CallPart {
	out := make([]CallPart, 0, len(c.Parts))
	for _, part := range c.Parts {
		if part.Kind == SlotArg {
			out = append(out, part)
		}
	}
	return out
}

// Span covers the whole call expression.
func (c *CallSite) Span() source.Span {
	if len(c.Parts) == 0 {
		return source.Span{}
	}
	sp := c.Parts[0].Span
	for _, part := range c.Parts[1:] {
		sp = sp.Cover(part.Span)
	}
	return sp
}
