package resolve

import (
	"quill/internal/sig"
	"quill/internal/source"
	"quill/internal/types"
	"quill/internal/universe"
)

// checkTraits verifies every trait bound of every bound generic parameter.
// It only runs on candidates whose slots all bound; trait checking is
// strictly more expensive and short-circuited otherwise.
func checkTraits(u *universe.Universe, cand *Candidate) {
	for i := range cand.Decl.Generics {
		g := &cand.Decl.Generics[i]
		concrete, bound := cand.Bindings[g.Type]
		if !bound || len(g.Bounds) == 0 {
			continue
		}
		argSpan := bindingSpan(cand, g.Type)

		for _, traitName := range g.Bounds {
			trait, ok := u.Trait(traitName)
			if !ok {
				cand.TraitFailures = append(cand.TraitFailures, TraitFailure{
					Param:     g.Name,
					Trait:     traitName,
					Concrete:  concrete,
					BoundSpan: g.Span,
					ArgSpan:   argSpan,
				})
				continue
			}
			for _, method := range trait.Methods {
				if satisfied(u, trait, method, concrete, make(map[string]bool)) {
					continue
				}
				cand.TraitFailures = append(cand.TraitFailures, TraitFailure{
					Param:     g.Name,
					Trait:     traitName,
					Concrete:  concrete,
					Missing:   method,
					BoundSpan: method.Span,
					ArgSpan:   argSpan,
				})
			}
		}
	}
}

// satisfied reports whether a concrete type provides one required method
// of a trait, either through a direct declaration specialized to the
// type, or through the method's default body. A default is not a free
// pass: every required method its body calls must itself be satisfied
// for the concrete type. Cycles among defaults are rejected at trait
// registration, so the recursion terminates; visiting guards against
// re-checking a method within one walk.
func satisfied(u *universe.Universe, trait *sig.Trait, method *sig.Declaration, concrete types.TypeID, visiting map[string]bool) bool {
	key := method.Key(u.Strings())
	if visiting[key] {
		return true
	}
	visiting[key] = true

	if hasDirectImpl(u, trait, method, concrete) {
		return true
	}
	if !method.HasDefault {
		return false
	}
	for _, depKey := range method.DefaultDeps {
		dep, ok := trait.MethodByKey(u.Strings(), depKey)
		if !ok {
			return false
		}
		if !satisfied(u, trait, dep, concrete, visiting) {
			return false
		}
	}
	return true
}

// hasDirectImpl scans the method's overload set for a non-generic
// declaration whose slots equal the required shape with Self replaced by
// the concrete type.
func hasDirectImpl(u *universe.Universe, trait *sig.Trait, method *sig.Declaration, concrete types.TypeID) bool {
	selfSubst := selfSubstitution(method, trait.Name, concrete)
	want := method.Shape.Args()

	for _, d := range u.Lookup(method.Key(u.Strings())) {
		if d == method || d.IsGeneric() {
			continue
		}
		have := d.Shape.Args()
		if len(have) != len(want) {
			continue
		}
		match := true
		for i := range want {
			expected := substitute(u.Types(), want[i].Type, selfSubst)
			if have[i].Type != expected || have[i].Qual != want[i].Qual {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// selfSubstitution maps the method's Self placeholder (any generic
// parameter bounded by the owning trait) to the concrete type.
func selfSubstitution(method *sig.Declaration, trait source.StringID, concrete types.TypeID) map[types.TypeID]types.TypeID {
	subst := make(map[types.TypeID]types.TypeID, 1)
	for _, g := range method.Generics {
		for _, b := range g.Bounds {
			if b == trait {
				subst[g.Type] = concrete
				break
			}
		}
	}
	return subst
}

// bindingSpan finds the call-site span of the first argument that fixed
// the placeholder's binding.
func bindingSpan(cand *Candidate, placeholder types.TypeID) source.Span {
	params := cand.Decl.Shape.Args()
	for i := range cand.Args {
		if params[i].Type == placeholder {
			return cand.Args[i].ArgSpan
		}
	}
	return source.Span{}
}
