package driver

import (
	"fmt"
	"strings"

	"quill/internal/diag"
	"quill/internal/resolve"
	"quill/internal/sig"
	"quill/internal/source"
	"quill/internal/types"
	"quill/internal/universe"
)

// Unit is a manifest turned into a sealed declaration universe plus the
// calls to resolve against it.
type Unit struct {
	Name     string
	FileID   source.FileID
	Strings  *source.Interner
	Types    *types.Interner
	Universe *universe.Universe
	Calls    []*sig.CallSite
}

// BuildUnit runs the registration phase for one manifest: declare types,
// register traits (cycle-checked) and functions, parse call shapes.
// Registration problems are reported as diagnostics; the returned unit
// is still usable for whatever registered cleanly.
//
// Spans point into the manifest file: each signature's span is the
// offset of its text within the raw content.
func BuildUnit(m *Manifest, content []byte, fileID source.FileID, reporter diag.Reporter) *Unit {
	strs := source.NewInterner()
	tin := types.NewInterner(strs)
	u := universe.New(strs, tin)
	unit := &Unit{
		Name:     m.Unit,
		FileID:   fileID,
		Strings:  strs,
		Types:    tin,
		Universe: u,
	}
	text := string(content)

	for _, te := range m.Types {
		name := strs.Intern(te.Name)
		span := locate(text, te.Name, fileID)
		if err := u.DeclareType(name, te.Arity, span); err != nil {
			reportRegistration(reporter, err)
		}
	}

	for _, tr := range m.Traits {
		traitName := strs.Intern(tr.Name)
		trait := &sig.Trait{
			Name: traitName,
			Span: locate(text, tr.Name, fileID),
		}
		for _, me := range tr.Methods {
			base := locate(text, me.Signature, fileID)
			decl, ok := sig.ParseDeclaration(me.Signature, strs, tin, sig.ParseOptions{
				File:     fileID,
				Base:     base.Start,
				Reporter: reporter,
				Trait:    traitName,
			})
			if !ok {
				continue
			}
			decl.HasDefault = me.Default
			decl.DefaultDeps = me.Requires
			trait.Methods = append(trait.Methods, decl)
		}
		if err := u.RegisterTrait(trait); err != nil {
			reportRegistration(reporter, err)
		}
	}

	for _, fe := range m.Functions {
		base := locate(text, fe.Signature, fileID)
		decl, ok := sig.ParseDeclaration(fe.Signature, strs, tin, sig.ParseOptions{
			File:     fileID,
			Base:     base.Start,
			Reporter: reporter,
		})
		if !ok {
			continue
		}
		validateDecl(u, decl, reporter)
		if err := u.Register(decl); err != nil {
			reportRegistration(reporter, err)
		}
	}

	for _, ce := range m.Calls {
		base := locate(text, ce.Shape, fileID)
		call, ok := sig.ParseCall(ce.Shape, strs, tin, sig.ParseOptions{
			File:     fileID,
			Base:     base.Start,
			Reporter: reporter,
		})
		if !ok {
			continue
		}
		unit.Calls = append(unit.Calls, call)
	}

	u.Seal()
	return unit
}

// validateDecl checks that every named type and trait bound a signature
// references was declared.
func validateDecl(u *universe.Universe, decl *sig.Declaration, reporter diag.Reporter) {
	for _, slot := range decl.Shape.Args() {
		validateType(u, slot.Type, slot.Span, reporter)
	}
	if decl.Return != types.NoTypeID {
		validateType(u, decl.Return, decl.Span, reporter)
	}
	for _, g := range decl.Generics {
		for _, b := range g.Bounds {
			if _, ok := u.Trait(b); !ok {
				name, _ := u.Strings().Lookup(b)
				report(reporter, diag.SemaUnknownTrait, g.Span, "unknown trait '%s' in bound", name)
			}
		}
	}
}

func validateType(u *universe.Universe, id types.TypeID, span source.Span, reporter diag.Reporter) {
	t, ok := u.Types().Lookup(id)
	if !ok || t.IsParam() {
		return
	}
	td, declared := u.TypeByName(t.Name)
	name, _ := u.Strings().Lookup(t.Name)
	if !declared {
		report(reporter, diag.SemaUnknownType, span, "unknown type '%s'", name)
		return
	}
	if td.Arity != len(t.Args) {
		report(reporter, diag.SemaUnknownType, span, "type '%s' expects %d type argument(s), got %d", name, td.Arity, len(t.Args))
	}
	for _, arg := range t.Args {
		validateType(u, arg, span, reporter)
	}
}

// locate finds the span of a snippet inside the manifest content.
// Unlocated snippets get a zero span in the manifest file.
func locate(text, snippet string, fileID source.FileID) source.Span {
	idx := strings.Index(text, snippet)
	if idx < 0 {
		return source.Span{File: fileID}
	}
	return source.Span{
		File:  fileID,
		Start: uint32(idx),
		End:   uint32(idx + len(snippet)),
	}
}

func reportRegistration(reporter diag.Reporter, err error) {
	if d, ok := resolve.RegistrationDiagnostic(err); ok {
		if reporter != nil {
			reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
		return
	}
	report(reporter, diag.SemaInfo, source.Span{}, "%v", err)
}

func report(reporter diag.Reporter, code diag.Code, sp source.Span, format string, args ...any) {
	if reporter == nil {
		return
	}
	reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
}
