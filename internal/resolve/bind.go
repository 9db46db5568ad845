package resolve

import (
	"quill/internal/sig"
	"quill/internal/types"
	"quill/internal/universe"
)

// bind attempts to unify a declaration's parameter slots with the call's
// argument types and ownership qualifiers, producing a per-slot trace.
//
// Each slot runs two orthogonal checks. The qualifier gate runs first (a
// failed borrow makes the slot unusable either way), but when the type
// comparison also fails the slot reports the type mismatch: callers find
// the wrong type more actionable than the wrong borrow of a wrong type.
func bind(u *universe.Universe, decl *sig.Declaration, call *sig.CallSite) *Candidate {
	cand := &Candidate{
		Decl:     decl,
		Bindings: make(map[types.TypeID]types.TypeID, len(decl.Generics)),
	}

	params := decl.Shape.Args()
	args := call.Args()
	// Shape-key lookup guarantees equal slot counts.
	cand.Args = make([]ArgMatch, len(args))

	tin := u.Types()
	for i := range args {
		param, arg := params[i], args[i]
		m := ArgMatch{
			Slot:         i,
			Kind:         MatchOK,
			Expected:     param.Type,
			Actual:       arg.Type,
			ExpectedQual: param.Qual,
			ActualQual:   arg.Qual,
			ArgSpan:      arg.Span,
			ParamSpan:    param.Span,
		}

		qualOK := param.Qual.Accepts(arg.Qual)
		typeOK := true
		if tin.IsParam(param.Type) {
			if bound, ok := cand.Bindings[param.Type]; ok {
				if bound != arg.Type {
					// Unification conflict: the placeholder was fixed
					// to a different concrete type by an earlier slot.
					typeOK = false
					m.Expected = bound
				}
			} else {
				cand.Bindings[param.Type] = arg.Type
			}
		} else if param.Type != arg.Type {
			typeOK = false
		}

		switch {
		case !typeOK:
			m.Kind = MatchTypeMismatch
		case !qualOK:
			m.Kind = MatchOwnershipMismatch
		}
		cand.Args[i] = m
	}

	return cand
}

// returnType resolves the declared return type under the final binding
// map. A generic return never constrains viability; the language has no
// return-type overloading.
func returnType(u *universe.Universe, cand *Candidate) types.TypeID {
	ret := cand.Decl.Return
	if ret == types.NoTypeID {
		return u.Types().Builtins().None
	}
	return substitute(u.Types(), ret, cand.Bindings)
}

// substitute rewrites placeholders inside a type according to bindings.
func substitute(tin *types.Interner, id types.TypeID, bindings map[types.TypeID]types.TypeID) types.TypeID {
	if bound, ok := bindings[id]; ok {
		return bound
	}
	t, ok := tin.Lookup(id)
	if !ok || len(t.Args) == 0 {
		return id
	}
	args := make([]types.TypeID, len(t.Args))
	changed := false
	for i, arg := range t.Args {
		args[i] = substitute(tin, arg, bindings)
		if args[i] != arg {
			changed = true
		}
	}
	if !changed {
		return id
	}
	return tin.Intern(types.Type{Kind: t.Kind, Name: t.Name, Args: args, Builtin: t.Builtin})
}
