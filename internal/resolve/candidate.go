package resolve

import (
	"quill/internal/sig"
	"quill/internal/source"
	"quill/internal/types"
)

// MatchKind classifies the outcome for one argument slot of a candidate.
type MatchKind uint8

const (
	MatchOK MatchKind = iota
	// MatchTypeMismatch: the argument type does not equal the declared
	// type, or conflicts with an earlier binding of the same placeholder.
	MatchTypeMismatch
	// MatchOwnershipMismatch: the qualifiers are incompatible. Reported
	// only when the types themselves agree.
	MatchOwnershipMismatch
)

// ArgMatch records how one argument slot fared during binding.
type ArgMatch struct {
	Slot int // argument ordinal, 0-based
	Kind MatchKind

	Expected     types.TypeID // declared or previously-bound type
	Actual       types.TypeID
	ExpectedQual sig.Qualifier
	ActualQual   sig.Qualifier

	ArgSpan   source.Span // call site
	ParamSpan source.Span // declaration site
}

// TraitFailure records one unsatisfied trait bound of a bound generic.
type TraitFailure struct {
	Param    source.StringID // generic parameter name
	Trait    source.StringID
	Concrete types.TypeID
	// Missing is the required method shape no declaration satisfies.
	// Nil when the trait itself is unknown.
	Missing *sig.Declaration

	BoundSpan source.Span // where the requirement comes from
	ArgSpan   source.Span // call-site span that fixed the concrete type
}

// Candidate pairs one declaration with one call site for the duration of
// a single resolution.
type Candidate struct {
	Decl     *sig.Declaration
	Bindings map[types.TypeID]types.TypeID // placeholder -> concrete

	Args          []ArgMatch
	TraitFailures []TraitFailure
	Viable        bool
}

// boundOK reports whether every argument slot bound successfully.
func (c *Candidate) boundOK() bool {
	for i := range c.Args {
		if c.Args[i].Kind != MatchOK {
			return false
		}
	}
	return true
}
