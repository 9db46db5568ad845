package resolve

import (
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/sig"
	"quill/internal/source"
	"quill/internal/types"
	"quill/internal/universe"
)

type env struct {
	strs *source.Interner
	tin  *types.Interner
	u    *universe.Universe
}

func newEnv(t *testing.T) *env {
	t.Helper()
	strs := source.NewInterner()
	tin := types.NewInterner(strs)
	return &env{strs: strs, tin: tin, u: universe.New(strs, tin)}
}

func (e *env) parseDecl(t *testing.T, text string, trait source.StringID) *sig.Declaration {
	t.Helper()
	bag := diag.NewBag(8)
	decl, ok := sig.ParseDeclaration(text, e.strs, e.tin, sig.ParseOptions{
		Reporter: diag.BagReporter{Bag: bag},
		Trait:    trait,
	})
	if !ok {
		t.Fatalf("parse of %q failed: %v", text, bag.Items())
	}
	return decl
}

func (e *env) register(t *testing.T, text string) *sig.Declaration {
	t.Helper()
	decl := e.parseDecl(t, text, source.NoStringID)
	if err := e.u.Register(decl); err != nil {
		t.Fatalf("register of %q failed: %v", text, err)
	}
	return decl
}

func (e *env) call(t *testing.T, text string) *sig.CallSite {
	t.Helper()
	bag := diag.NewBag(8)
	call, ok := sig.ParseCall(text, e.strs, e.tin, sig.ParseOptions{Reporter: diag.BagReporter{Bag: bag}})
	if !ok {
		t.Fatalf("parse of call %q failed: %v", text, bag.Items())
	}
	return call
}

func (e *env) resolve(t *testing.T, text string) (*ResolvedCall, *Failure) {
	t.Helper()
	e.u.Seal()
	return Resolve(e.u, e.call(t, text))
}

func TestResolveExactConcreteMatch(t *testing.T) {
	e := newEnv(t)
	boolAnd := e.register(t, "fn <x: Bool> and <y: Bool> -> Bool")
	e.register(t, "fn <x: Integer> and <y: Integer> -> Bool")

	res, fail := e.resolve(t, "<:Bool> and <:Bool>")
	if fail != nil {
		t.Fatalf("expected success, got failure kind %d", fail.Kind)
	}
	if res.Decl != boolAnd {
		t.Fatal("wrong declaration chosen")
	}
	if len(res.Bindings) != 0 {
		t.Fatalf("concrete match must have an empty binding map, got %d entries", len(res.Bindings))
	}
	if res.Return != e.tin.Builtins().Bool {
		t.Fatalf("expected Bool return, got %s", e.tin.Label(res.Return))
	}
}

func TestResolveBindsGenericAndIsIdempotent(t *testing.T) {
	e := newEnv(t)
	decl := e.register(t, "fn<T> baz <a: T> <b: T> -> T")
	e.u.Seal()

	call := e.call(t, "baz <:Integer> <:Integer>")
	first, fail := Resolve(e.u, call)
	if fail != nil {
		t.Fatalf("expected success, got failure kind %d", fail.Kind)
	}
	if first.Decl != decl {
		t.Fatal("wrong declaration chosen")
	}
	if got := first.Bindings[decl.Generics[0].Type]; got != e.tin.Builtins().Integer {
		t.Fatalf("T must bind to Integer, got %s", e.tin.Label(got))
	}
	if first.Return != e.tin.Builtins().Integer {
		t.Fatalf("generic return must resolve to Integer, got %s", e.tin.Label(first.Return))
	}

	second, fail := Resolve(e.u, call)
	if fail != nil {
		t.Fatal("second resolution must succeed")
	}
	if len(second.Bindings) != len(first.Bindings) {
		t.Fatal("binding maps must be identical across resolutions")
	}
	for k, v := range first.Bindings {
		if second.Bindings[k] != v {
			t.Fatal("binding maps must be identical across resolutions")
		}
	}
}

func TestUnificationConflictRejectsCandidate(t *testing.T) {
	e := newEnv(t)
	e.register(t, "fn<T: Foo> baz <a: T> <b: T>")

	_, fail := e.resolve(t, "baz <:None> <:Bool>")
	if fail == nil || fail.Kind != FailNoViable {
		t.Fatal("expected NoViableFunction")
	}
	if len(fail.Candidates) != 1 {
		t.Fatalf("expected 1 candidate trace, got %d", len(fail.Candidates))
	}
	cand := fail.Candidates[0]
	if cand.Args[0].Kind != MatchOK {
		t.Fatal("first slot binds T to None and must succeed")
	}
	m := cand.Args[1]
	if m.Kind != MatchTypeMismatch {
		t.Fatalf("second slot must be a type mismatch, got %d", m.Kind)
	}
	if m.Expected != e.tin.Builtins().None || m.Actual != e.tin.Builtins().Bool {
		t.Fatalf("mismatch must report previously-bound None vs Bool, got %s vs %s",
			e.tin.Label(m.Expected), e.tin.Label(m.Actual))
	}
}

func TestConcreteBeatsGeneric(t *testing.T) {
	e := newEnv(t)
	e.register(t, "fn<T> dup <a: T>")
	concrete := e.register(t, "fn dup <a: Integer>")

	res, fail := e.resolve(t, "dup <:Integer>")
	if fail != nil {
		t.Fatalf("expected success, got failure kind %d", fail.Kind)
	}
	if res.Decl != concrete {
		t.Fatal("concrete candidate must beat the generic one")
	}
}

func TestDifferentlyBoundedGenericsAreAmbiguous(t *testing.T) {
	e := newEnv(t)
	foo := e.strs.Intern("Foo")
	bar := e.strs.Intern("Bar")
	fooMethod := e.parseDecl(t, "fn foo of <x: Self> -> Bool", foo)
	barMethod := e.parseDecl(t, "fn bar of <x: Self> -> Bool", bar)
	if err := e.u.RegisterTrait(&sig.Trait{Name: foo, Methods: []*sig.Declaration{fooMethod}}); err != nil {
		t.Fatalf("trait Foo: %v", err)
	}
	if err := e.u.RegisterTrait(&sig.Trait{Name: bar, Methods: []*sig.Declaration{barMethod}}); err != nil {
		t.Fatalf("trait Bar: %v", err)
	}
	// Integer implements both traits directly.
	e.register(t, "fn foo of <x: Integer> -> Bool")
	e.register(t, "fn bar of <x: Integer> -> Bool")
	e.register(t, "fn<T: Foo> dup <a: T>")
	e.register(t, "fn<T: Bar> dup <a: T>")

	_, fail := e.resolve(t, "dup <:Integer>")
	if fail == nil || fail.Kind != FailAmbiguous {
		t.Fatal("two equally specific viable generics must be ambiguous")
	}
	if len(fail.Candidates) != 2 {
		t.Fatalf("ambiguity must list all tied candidates, got %d", len(fail.Candidates))
	}
}

func TestOwnershipMismatchReported(t *testing.T) {
	e := newEnv(t)
	e.register(t, "fn bump <target: &mut Integer>")

	_, fail := e.resolve(t, "bump <:Integer>")
	if fail == nil || fail.Kind != FailNoViable {
		t.Fatal("expected NoViableFunction")
	}
	m := fail.Candidates[0].Args[0]
	if m.Kind != MatchOwnershipMismatch {
		t.Fatalf("expected ownership mismatch, got %d", m.Kind)
	}
	if m.ExpectedQual != sig.RefMut || m.ActualQual != sig.Owned {
		t.Fatal("mismatch must carry both qualifiers")
	}
}

func TestTypeMismatchPreferredOverOwnership(t *testing.T) {
	e := newEnv(t)
	e.register(t, "fn bump <target: &mut Integer>")

	// Wrong type and wrong qualifier on the same slot: report the type.
	_, fail := e.resolve(t, "bump <:Bool>")
	if fail == nil {
		t.Fatal("expected failure")
	}
	m := fail.Candidates[0].Args[0]
	if m.Kind != MatchTypeMismatch {
		t.Fatalf("type mismatch must win over ownership mismatch, got %d", m.Kind)
	}
}

func TestReferenceParameterAcceptsOwnedArgument(t *testing.T) {
	e := newEnv(t)
	decl := e.register(t, "fn peek <source: &Array<Integer>> -> Integer")

	res, fail := e.resolve(t, "peek <:Array<Integer>>")
	if fail != nil {
		t.Fatalf("read-only borrow must accept an owned argument, got failure kind %d", fail.Kind)
	}
	if res.Decl != decl {
		t.Fatal("wrong declaration chosen")
	}
}

func registerEqTrait(t *testing.T, e *env) (eq source.StringID, equals, differs *sig.Declaration) {
	t.Helper()
	eq = e.strs.Intern("Eq")
	equals = e.parseDecl(t, "fn <x: Self> equals <y: Self> -> Bool", eq)
	differs = e.parseDecl(t, "fn <x: Self> differs <y: Self> -> Bool", eq)
	differs.HasDefault = true
	differs.DefaultDeps = []string{equals.Key(e.strs)}
	if err := e.u.RegisterTrait(&sig.Trait{Name: eq, Methods: []*sig.Declaration{equals, differs}}); err != nil {
		t.Fatalf("trait registration failed: %v", err)
	}
	return eq, equals, differs
}

func TestTraitDefaultSatisfiedTransitively(t *testing.T) {
	e := newEnv(t)
	_, _, differs := registerEqTrait(t, e)
	if err := e.u.DeclareType(e.strs.Intern("Point"), 0, source.Span{}); err != nil {
		t.Fatal(err)
	}
	e.register(t, "fn <x: Point> equals <y: Point> -> Bool")

	res, fail := e.resolve(t, "<:Point> differs <:Point>")
	if fail != nil {
		t.Fatalf("default method must resolve once equals is provided, got failure kind %d", fail.Kind)
	}
	if res.Decl != differs {
		t.Fatal("resolution must pick the trait default")
	}
	selfType := differs.Generics[0].Type
	point := e.tin.Intern(types.MakeNamed(e.strs.Intern("Point")))
	if res.Bindings[selfType] != point {
		t.Fatal("Self must bind to Point")
	}
}

func TestTraitDefaultIsNotAFreePass(t *testing.T) {
	e := newEnv(t)
	registerEqTrait(t, e)
	if err := e.u.DeclareType(e.strs.Intern("Blob"), 0, source.Span{}); err != nil {
		t.Fatal(err)
	}
	// No `equals` for Blob: the default body's dependency fails.

	_, fail := e.resolve(t, "<:Blob> differs <:Blob>")
	if fail == nil || fail.Kind != FailNoViable {
		t.Fatal("default without its dependency must not satisfy the bound")
	}
	cand := fail.Candidates[0]
	if len(cand.TraitFailures) == 0 {
		t.Fatal("candidate must record the unsatisfied trait bound")
	}
	tf := cand.TraitFailures[0]
	if name, _ := e.strs.Lookup(tf.Trait); name != "Eq" {
		t.Fatalf("unexpected trait %q", name)
	}
	if tf.Missing == nil || tf.Missing.Key(e.strs) != "<> equals <>" {
		t.Fatal("failure must name the missing required method")
	}
}

func TestTraitSatisfactionIsMonotonic(t *testing.T) {
	e := newEnv(t)
	registerEqTrait(t, e)
	if err := e.u.DeclareType(e.strs.Intern("Point"), 0, source.Span{}); err != nil {
		t.Fatal(err)
	}
	e.register(t, "fn <x: Point> equals <y: Point> -> Bool")
	// An unrelated declaration must never break satisfaction.
	e.register(t, "fn print <x: String> -> None")

	if _, fail := e.resolve(t, "<:Point> differs <:Point>"); fail != nil {
		t.Fatal("unrelated registration must not break trait satisfaction")
	}
}

func TestNoViableDiagnosticListsEveryCandidate(t *testing.T) {
	e := newEnv(t)
	add := e.strs.Intern("Add")
	plus := e.parseDecl(t, "fn <x: Self> + <y: Self> -> Self", add)
	plus.HasDefault = true
	if err := e.u.RegisterTrait(&sig.Trait{Name: add, Methods: []*sig.Declaration{plus}}); err != nil {
		t.Fatalf("trait Add: %v", err)
	}
	e.register(t, "fn <x: Integer> + <y: Integer> -> Integer")
	e.register(t, "fn <x: Rational> + <y: Rational> -> Rational")
	e.register(t, "fn <x: String> + <y: String> -> String")
	e.register(t, "fn <x: MemoryAddress> + <y: Integer> -> MemoryAddress")
	e.register(t, "fn <x: I32> + <y: I32> -> I32")
	e.register(t, "fn <x: F64> + <y: F64> -> F64")

	// 0.1 + 2: Rational on the left, Integer on the right.
	_, fail := e.resolve(t, "<:Rational> + <:Integer>")
	if fail == nil || fail.Kind != FailNoViable {
		t.Fatal("expected NoViableFunction")
	}
	if len(fail.Candidates) != 7 {
		t.Fatalf("expected 7 candidate traces, got %d", len(fail.Candidates))
	}
	for _, cand := range fail.Candidates {
		mismatches := 0
		for _, m := range cand.Args {
			switch m.Kind {
			case MatchTypeMismatch:
				mismatches++
			case MatchOwnershipMismatch:
				t.Fatal("no candidate may fail on ownership here")
			}
		}
		if mismatches == 0 {
			t.Fatalf("candidate `%s` must report a type mismatch", cand.Decl.Label(e.strs, e.tin))
		}
	}

	d := fail.Diagnostic(e.u)
	if d.Code != diag.SemaNoViableFunction {
		t.Fatalf("unexpected code %v", d.Code)
	}
	advices := 0
	for _, n := range d.Notes {
		if strings.HasPrefix(n.Msg, "candidate ") {
			advices++
		}
	}
	if advices != len(fail.Candidates) {
		t.Fatalf("diagnostic must carry one advice per candidate: %d vs %d", advices, len(fail.Candidates))
	}
}

func TestAmbiguousDiagnosticNamesTiedCandidates(t *testing.T) {
	e := newEnv(t)
	e.register(t, "fn<T: Foo> dup <a: T>")
	e.register(t, "fn<T: Bar> dup <a: T>")
	foo := e.strs.Intern("Foo")
	bar := e.strs.Intern("Bar")
	if err := e.u.RegisterTrait(&sig.Trait{Name: foo}); err != nil {
		t.Fatal(err)
	}
	if err := e.u.RegisterTrait(&sig.Trait{Name: bar}); err != nil {
		t.Fatal(err)
	}

	_, fail := e.resolve(t, "dup <:Integer>")
	if fail == nil || fail.Kind != FailAmbiguous {
		t.Fatal("expected AmbiguousCall")
	}
	d := fail.Diagnostic(e.u)
	if d.Code != diag.SemaAmbiguousCall {
		t.Fatalf("unexpected code %v", d.Code)
	}
	if len(d.Notes) != 2 {
		t.Fatalf("expected one note per tied candidate, got %d", len(d.Notes))
	}
}

func TestResolveUnknownShapeHasNoCandidates(t *testing.T) {
	e := newEnv(t)
	e.register(t, "fn <x: Bool> and <y: Bool> -> Bool")

	_, fail := e.resolve(t, "<:Bool> or <:Bool>")
	if fail == nil || fail.Kind != FailNoViable {
		t.Fatal("expected NoViableFunction")
	}
	if len(fail.Candidates) != 0 {
		t.Fatalf("no shape match means no candidates, got %d", len(fail.Candidates))
	}
}

func TestMangledNameOfResolvedGeneric(t *testing.T) {
	e := newEnv(t)
	e.register(t, "fn<T> baz <a: T> <b: T>")

	res, fail := e.resolve(t, "baz <:Integer> <:Integer>")
	if fail != nil {
		t.Fatal("expected success")
	}
	if got := res.MangledName(e.u); got != "baz_Integer_Integer" {
		t.Fatalf("unexpected mangled name %q", got)
	}
}
