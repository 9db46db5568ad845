package resolve

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/sig"
	"quill/internal/universe"
)

// Diagnostic converts a resolution failure into a single structured,
// span-annotated report: the call site as the primary span, one advice
// chain per rejected candidate. Advice order follows candidate
// registration order; causes within one candidate follow argument-slot
// order. Determinism is purely positional.
func (f *Failure) Diagnostic(u *universe.Universe) diag.Diagnostic {
	switch f.Kind {
	case FailAmbiguous:
		return f.ambiguous(u)
	default:
		return f.noViable(u)
	}
}

func (f *Failure) noViable(u *universe.Universe) diag.Diagnostic {
	d := diag.NewError(diag.SemaNoViableFunction, f.Call.Span(),
		fmt.Sprintf("no viable function for call `%s`", f.Key))
	for _, cand := range f.Candidates {
		d = d.WithNote(cand.Decl.Span,
			fmt.Sprintf("candidate `%s` does not match", cand.Decl.Label(u.Strings(), u.Types())))
		d = appendCauses(d, u, cand)
	}
	return d
}

func (f *Failure) ambiguous(u *universe.Universe) diag.Diagnostic {
	d := diag.NewError(diag.SemaAmbiguousCall, f.Call.Span(),
		fmt.Sprintf("ambiguous call `%s`", f.Key))
	for _, cand := range f.Candidates {
		d = d.WithNote(cand.Decl.Span,
			fmt.Sprintf("candidate `%s` is equally viable", cand.Decl.Label(u.Strings(), u.Types())))
	}
	return d
}

// appendCauses nests one candidate's most specific failure reasons:
// slot mismatches first (in slot order), then unsatisfied trait bounds.
func appendCauses(d diag.Diagnostic, u *universe.Universe, cand *Candidate) diag.Diagnostic {
	tin := u.Types()
	for i := range cand.Args {
		m := &cand.Args[i]
		switch m.Kind {
		case MatchTypeMismatch:
			d = d.WithNote(m.ParamSpan,
				fmt.Sprintf("argument %d: expected %s", m.Slot+1, tin.Label(m.Expected)))
			d = d.WithNote(m.ArgSpan,
				fmt.Sprintf("argument %d has type %s", m.Slot+1, tin.Label(m.Actual)))
		case MatchOwnershipMismatch:
			d = d.WithNote(m.ParamSpan,
				fmt.Sprintf("argument %d: parameter needs a %s value", m.Slot+1, qualLabel(m.ExpectedQual)))
			d = d.WithNote(m.ArgSpan,
				fmt.Sprintf("argument %d is passed as %s", m.Slot+1, qualLabel(m.ActualQual)))
		}
	}
	strs := u.Strings()
	for i := range cand.TraitFailures {
		tf := &cand.TraitFailures[i]
		traitName, _ := strs.Lookup(tf.Trait)
		if tf.Missing == nil {
			d = d.WithNote(tf.BoundSpan,
				fmt.Sprintf("bound references unknown trait %s", traitName))
			continue
		}
		d = d.WithNote(tf.BoundSpan,
			fmt.Sprintf("trait %s requires `%s`, not provided for %s",
				traitName, tf.Missing.Label(strs, tin), tin.Label(tf.Concrete)))
		d = d.WithNote(tf.ArgSpan,
			fmt.Sprintf("%s bound here", tin.Label(tf.Concrete)))
	}
	return d
}

// RegistrationDiagnostic converts a registration-phase error into a
// renderable diagnostic. Returns false for errors with no span to show.
func RegistrationDiagnostic(err error) (diag.Diagnostic, bool) {
	switch e := err.(type) {
	case *universe.DuplicateSignatureError:
		d := diag.NewError(diag.SemaDuplicateSignature, e.Span,
			fmt.Sprintf("duplicate signature `%s`", e.Label))
		d = d.WithNote(e.Prev, "previously declared here")
		return d, true
	case *universe.CyclicTraitDefaultError:
		d := diag.NewError(diag.SemaCyclicTraitDefault, e.Span, e.Error())
		return d, true
	case *universe.DuplicateTypeError:
		d := diag.NewError(diag.SemaDuplicateSignature, e.Span, "duplicate type declaration")
		d = d.WithNote(e.Prev, "previously declared here")
		return d, true
	}
	return diag.Diagnostic{}, false
}

func qualLabel(q sig.Qualifier) string {
	switch q {
	case sig.Ref:
		return "borrowed (&)"
	case sig.RefMut:
		return "mutably borrowed (&mut)"
	default:
		return "owned"
	}
}
