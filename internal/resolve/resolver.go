// Package resolve finds the uniquely correct declaration for a mixfix
// call: it gathers every shape-matching candidate, binds generics and
// ownership qualifiers against the argument types, verifies trait
// bounds, and either selects a winner or assembles a per-candidate
// failure trace for diagnostics.
package resolve

import (
	"quill/internal/sig"
	"quill/internal/types"
	"quill/internal/universe"
)

// ResolvedCall is the outcome consumed downstream by code generation:
// the chosen declaration plus the generic-parameter binding map.
type ResolvedCall struct {
	Decl     *sig.Declaration
	Bindings map[types.TypeID]types.TypeID
	// Return is the declared return type with bindings applied.
	Return types.TypeID
}

// MangledName derives the monomorphized backend name for the resolution.
func (r *ResolvedCall) MangledName(u *universe.Universe) string {
	return r.Decl.MangledName(u.Strings(), u.Types(), r.Bindings)
}

// FailureKind classifies why a resolution produced no winner.
type FailureKind uint8

const (
	// FailNoViable: every gathered candidate was rejected.
	FailNoViable FailureKind = iota
	// FailAmbiguous: more than one equally specific viable candidate.
	FailAmbiguous
)

// Failure carries the full per-candidate trace of a failed resolution.
type Failure struct {
	Kind FailureKind
	Call *sig.CallSite
	Key  string
	// Candidates holds every considered candidate in registration
	// order: rejection traces for FailNoViable, the tied viable set
	// for FailAmbiguous.
	Candidates []*Candidate
}

// gather returns every declaration whose literal tokens and slot
// positions match the call's shape. The key encodes both arity and
// keyword text, so a declaration with the right skeleton but the wrong
// keywords is excluded before the more expensive binding step.
func gather(u *universe.Universe, call *sig.CallSite) (string, []*sig.Declaration) {
	key := call.Key(u.Strings())
	return key, u.Lookup(key)
}

// Resolve runs the full selection algorithm for one call against a
// sealed universe snapshot. It never mutates the universe; all candidate
// state is scoped to this resolution.
func Resolve(u *universe.Universe, call *sig.CallSite) (*ResolvedCall, *Failure) {
	key, decls := gather(u, call)

	candidates := make([]*Candidate, 0, len(decls))
	viable := make([]*Candidate, 0, len(decls))
	for _, decl := range decls {
		cand := bind(u, decl, call)
		if cand.boundOK() {
			checkTraits(u, cand)
		}
		cand.Viable = cand.boundOK() && len(cand.TraitFailures) == 0
		candidates = append(candidates, cand)
		if cand.Viable {
			viable = append(viable, cand)
		}
	}

	switch len(viable) {
	case 0:
		return nil, &Failure{Kind: FailNoViable, Call: call, Key: key, Candidates: candidates}
	case 1:
		return resolved(u, viable[0]), nil
	}

	// Specificity tie-break: a candidate with no generic parameters is
	// strictly more specific than a generic one. The language defines
	// no further ordering; remaining ties are ambiguous.
	concrete := make([]*Candidate, 0, len(viable))
	for _, cand := range viable {
		if !cand.Decl.IsGeneric() {
			concrete = append(concrete, cand)
		}
	}
	if len(concrete) == 1 {
		return resolved(u, concrete[0]), nil
	}
	tied := viable
	if len(concrete) > 1 {
		tied = concrete
	}
	return nil, &Failure{Kind: FailAmbiguous, Call: call, Key: key, Candidates: tied}
}

func resolved(u *universe.Universe, cand *Candidate) *ResolvedCall {
	return &ResolvedCall{
		Decl:     cand.Decl,
		Bindings: cand.Bindings,
		Return:   returnType(u, cand),
	}
}
