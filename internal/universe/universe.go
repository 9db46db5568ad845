// Package universe stores every visible declaration, trait and type of a
// compilation unit, indexed for shape-based candidate lookup. Registration
// is a serialized build phase; once sealed, the universe is a read-only
// snapshot that any number of resolutions may query concurrently.
package universe

import (
	"fmt"
	"sort"
	"strings"

	"quill/internal/sig"
	"quill/internal/source"
	"quill/internal/types"
)

// TypeDecl records a declared (or builtin) type: its name, how many
// generic arguments it takes, and where it was declared.
type TypeDecl struct {
	Name    source.StringID
	Arity   int
	Builtin bool
	Span    source.Span
}

// Universe is the declaration store for one flattened lookup scope.
type Universe struct {
	strs *source.Interner
	tin  *types.Interner

	decls  []*sig.Declaration            // registration order
	byKey  map[string][]*sig.Declaration // shape key -> declarations
	ident  map[string]*sig.Declaration   // identity key -> first registration
	traits map[source.StringID]*sig.Trait
	typs   map[source.StringID]TypeDecl

	sealed bool
}

// New creates a universe seeded with the builtin type declarations.
func New(strs *source.Interner, tin *types.Interner) *Universe {
	u := &Universe{
		strs:   strs,
		tin:    tin,
		byKey:  make(map[string][]*sig.Declaration),
		ident:  make(map[string]*sig.Declaration),
		traits: make(map[source.StringID]*sig.Trait),
		typs:   make(map[source.StringID]TypeDecl),
	}
	for _, name := range []string{"None", "Bool", "Integer", "Rational", "String", "MemoryAddress", "I32", "F64"} {
		id := strs.Intern(name)
		u.typs[id] = TypeDecl{Name: id, Builtin: true}
	}
	return u
}

// Strings returns the string interner declarations were built against.
func (u *Universe) Strings() *source.Interner {
	return u.strs
}

// Types returns the type interner declarations were built against.
func (u *Universe) Types() *types.Interner {
	return u.tin
}

// DeclareType records a named type with its generic arity.
func (u *Universe) DeclareType(name source.StringID, arity int, span source.Span) error {
	if u.sealed {
		return errSealed
	}
	if prev, ok := u.typs[name]; ok {
		return &DuplicateTypeError{Name: name, Prev: prev.Span, Span: span}
	}
	u.typs[name] = TypeDecl{Name: name, Arity: arity, Span: span}
	return nil
}

// TypeByName returns the declaration record for a type name.
func (u *Universe) TypeByName(name source.StringID) (TypeDecl, bool) {
	td, ok := u.typs[name]
	return td, ok
}

// Register inserts a declaration, failing when an identical signature
// shape with identical parameter types is already present.
func (u *Universe) Register(d *sig.Declaration) error {
	if u.sealed {
		return errSealed
	}
	key := d.Key(u.strs)
	id := u.identityKey(d)
	if prev, ok := u.ident[id]; ok {
		return &DuplicateSignatureError{
			Label: d.Label(u.strs, u.tin),
			Span:  d.Span,
			Prev:  prev.Span,
		}
	}
	u.ident[id] = d
	u.decls = append(u.decls, d)
	u.byKey[key] = append(u.byKey[key], d)
	return nil
}

// RegisterTrait records a trait, rejects cyclic default-method dependency
// chains, and registers every default-bodied method as a callable generic
// declaration over Self.
func (u *Universe) RegisterTrait(t *sig.Trait) error {
	if u.sealed {
		return errSealed
	}
	if _, ok := u.traits[t.Name]; ok {
		return &DuplicateTypeError{Name: t.Name, Prev: u.traits[t.Name].Span, Span: t.Span}
	}
	if cycle := u.defaultCycle(t); len(cycle) > 0 {
		return &CyclicTraitDefaultError{
			Trait: t.Name,
			Span:  t.Span,
			Cycle: cycle,
		}
	}
	u.traits[t.Name] = t
	for _, m := range t.Methods {
		if !m.HasDefault {
			continue
		}
		if err := u.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Trait returns a registered trait by name.
func (u *Universe) Trait(name source.StringID) (*sig.Trait, bool) {
	t, ok := u.traits[name]
	return t, ok
}

// Lookup returns every declaration whose token/slot skeleton matches the
// given shape key. Type filtering happens later, during binding.
func (u *Universe) Lookup(key string) []*sig.Declaration {
	return u.byKey[key]
}

// MethodsOf returns the required method declarations of a trait.
func (u *Universe) MethodsOf(name source.StringID) []*sig.Declaration {
	t, ok := u.traits[name]
	if !ok {
		return nil
	}
	return t.Methods
}

// Decls returns every registered declaration in registration order.
func (u *Universe) Decls() []*sig.Declaration {
	return u.decls
}

// Seal marks the end of the registration phase. Resolution must only run
// against a sealed universe.
func (u *Universe) Seal() {
	u.sealed = true
}

// Sealed reports whether the registration phase has ended.
func (u *Universe) Sealed() bool {
	return u.sealed
}

// identityKey renders a declaration for duplicate detection: the shape
// key plus per-slot qualifiers and types. Generic placeholders are
// replaced by their ordinal and bound set, so alpha-renamed generics
// still collide while differently-bounded ones stay distinct.
func (u *Universe) identityKey(d *sig.Declaration) string {
	ordinal := make(map[types.TypeID]int, len(d.Generics))
	for i, g := range d.Generics {
		ordinal[g.Type] = i
	}
	var sb strings.Builder
	for i, slot := range d.Shape.Slots {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if slot.Kind == sig.SlotToken {
			text, _ := u.strs.Lookup(slot.Token)
			sb.WriteString(text)
			continue
		}
		fmt.Fprintf(&sb, "<%d:", slot.Qual)
		if ord, ok := ordinal[slot.Type]; ok {
			fmt.Fprintf(&sb, "?%d%s", ord, u.boundsKey(d.Generics[ord]))
		} else {
			fmt.Fprintf(&sb, "%d", slot.Type)
		}
		sb.WriteByte('>')
	}
	return sb.String()
}

// boundsKey renders a generic parameter's trait bounds in a stable order.
func (u *Universe) boundsKey(g sig.GenericParam) string {
	if len(g.Bounds) == 0 {
		return ""
	}
	names := make([]string, 0, len(g.Bounds))
	for _, b := range g.Bounds {
		name, _ := u.strs.Lookup(b)
		names = append(names, name)
	}
	sort.Strings(names)
	return ":" + strings.Join(names, "+")
}

// defaultCycle looks for a cycle in the default-method dependency graph
// of one trait. Returns the shape keys forming the cycle, if any.
func (u *Universe) defaultCycle(t *sig.Trait) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	deps := make(map[string][]string, len(t.Methods))
	for _, m := range t.Methods {
		if m.HasDefault {
			deps[m.Key(u.strs)] = m.DefaultDeps
		}
	}
	color := make(map[string]int, len(deps))
	var stack []string

	var visit func(key string) []string
	visit = func(key string) []string {
		color[key] = gray
		stack = append(stack, key)
		for _, dep := range deps[key] {
			switch color[dep] {
			case gray:
				// Slice the stack from the first occurrence of dep.
				for i, k := range stack {
					if k == dep {
						return append(append([]string(nil), stack[i:]...), dep)
					}
				}
				return []string{dep, dep}
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[key] = black
		return nil
	}

	for _, m := range t.Methods {
		if !m.HasDefault {
			continue
		}
		key := m.Key(u.strs)
		if color[key] == white {
			if cycle := visit(key); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
