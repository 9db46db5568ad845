package driver

import (
	"context"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
)

const demoManifest = `
unit = "demo"

[[types]]
name = "Pair"
arity = 2

[[functions]]
signature = "fn <a: Integer> plus <b: Integer> -> Integer"

[[functions]]
signature = "fn <a: Rational> plus <b: Rational> -> Rational"

[[calls]]
shape = "<:Integer> plus <:Integer>"

[[calls]]
shape = "<:Rational> plus <:Rational>"

[[calls]]
shape = "<:String> plus <:String>"
`

func buildDemo(t *testing.T, manifest string) (*Unit, *diag.Bag) {
	t.Helper()
	m, err := DecodeManifest([]byte(manifest))
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("demo.toml", []byte(manifest))
	bag := diag.NewBag(64)
	unit := BuildUnit(m, []byte(manifest), fileID, diag.BagReporter{Bag: bag})
	return unit, bag
}

func TestBuildUnitRegistersManifest(t *testing.T) {
	unit, bag := buildDemo(t, demoManifest)
	if bag.HasErrors() {
		t.Fatalf("unexpected registration errors: %+v", bag.Items())
	}
	if unit.Name != "demo" {
		t.Fatalf("unit name = %q, want demo", unit.Name)
	}
	if got := len(unit.Universe.Decls()); got != 2 {
		t.Fatalf("registered %d declarations, want 2", got)
	}
	if got := len(unit.Calls); got != 3 {
		t.Fatalf("parsed %d calls, want 3", got)
	}
	if !unit.Universe.Sealed() {
		t.Fatal("universe not sealed after BuildUnit")
	}
}

func TestBuildUnitSignatureSpans(t *testing.T) {
	unit, _ := buildDemo(t, demoManifest)
	decls := unit.Universe.Decls()
	if len(decls) == 0 {
		t.Fatal("no declarations registered")
	}
	sp := decls[0].Span
	if sp.File != unit.FileID {
		t.Fatalf("span file = %d, want %d", sp.File, unit.FileID)
	}
	text := demoManifest[sp.Start:sp.End]
	if !strings.HasPrefix(text, "fn ") {
		t.Fatalf("span does not cover a signature: %q", text)
	}
}

func TestBuildUnitUnknownType(t *testing.T) {
	manifest := `
unit = "broken"

[[functions]]
signature = "fn twice <a: Matrix> -> Matrix"
`
	_, bag := buildDemo(t, manifest)
	if !bag.HasErrors() {
		t.Fatal("expected unknown type diagnostic")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.SemaUnknownType {
			found = true
			if !strings.Contains(d.Message, "Matrix") {
				t.Fatalf("message does not name the type: %q", d.Message)
			}
		}
	}
	if !found {
		t.Fatalf("no SemaUnknownType diagnostic in %+v", bag.Items())
	}
}

func TestBuildUnitDuplicateSignature(t *testing.T) {
	manifest := `
unit = "dup"

[[functions]]
signature = "fn not <a: Bool> -> Bool"

[[functions]]
signature = "fn not <b: Bool> -> Bool"
`
	unit, bag := buildDemo(t, manifest)
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.SemaDuplicateSignature {
			found = true
		}
	}
	if !found {
		t.Fatalf("no SemaDuplicateSignature diagnostic in %+v", bag.Items())
	}
	if got := len(unit.Universe.Decls()); got != 1 {
		t.Fatalf("registered %d declarations, want only the first", got)
	}
}

func TestBuildUnitTraitMethods(t *testing.T) {
	manifest := `
unit = "traits"

[[traits]]
name = "Printable"

[[traits.methods]]
signature = "fn print <self: Self> -> String"

[[traits.methods]]
signature = "fn describe <self: Self> -> String"
default = true
requires = ["print <>"]

[[functions]]
signature = "fn print <self: Integer> -> String"

[[calls]]
shape = "describe <:Integer>"
`
	unit, bag := buildDemo(t, manifest)
	if bag.HasErrors() {
		t.Fatalf("unexpected registration errors: %+v", bag.Items())
	}
	results, err := ResolveUnit(context.Background(), unit, 1)
	if err != nil {
		t.Fatalf("ResolveUnit: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Resolved == nil {
		t.Fatalf("default method call did not resolve: %+v", results[0].Diagnostic)
	}
}

func TestResolveUnitKeepsCallOrder(t *testing.T) {
	unit, _ := buildDemo(t, demoManifest)
	results, err := ResolveUnit(context.Background(), unit, 4)
	if err != nil {
		t.Fatalf("ResolveUnit: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	wantMangled := []string{"Integer_plus_Integer", "Rational_plus_Rational"}
	for i, want := range wantMangled {
		res := results[i]
		if res.Resolved == nil {
			t.Fatalf("call %d failed: %+v", i, res.Diagnostic)
		}
		if got := res.Resolved.MangledName(unit.Universe); got != want {
			t.Fatalf("call %d mangled = %q, want %q", i, got, want)
		}
	}
	last := results[2]
	if last.Resolved != nil {
		t.Fatal("string call resolved, want no viable function")
	}
	if last.Diagnostic == nil || last.Diagnostic.Code != diag.SemaNoViableFunction {
		t.Fatalf("diagnostic = %+v, want SemaNoViableFunction", last.Diagnostic)
	}
}

func TestResolveUnitCanceledContext(t *testing.T) {
	unit, _ := buildDemo(t, demoManifest)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ResolveUnit(ctx, unit, 2); err == nil {
		t.Fatal("expected context error")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	content := []byte(demoManifest)
	key := HashContent(content)

	var miss DiskPayload
	ok, err := cache.Get(key, &miss)
	if err != nil {
		t.Fatalf("Get on empty cache: %v", err)
	}
	if ok {
		t.Fatal("hit on empty cache")
	}

	put := DiskPayload{
		Unit:         "demo",
		ManifestHash: key,
		Resolved:     []string{"Integer_plus_Integer", "Rational_plus_Rational", ""},
		Broken:       true,
	}
	if err := cache.Put(key, &put); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got DiskPayload
	ok, err = cache.Get(key, &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("miss after Put")
	}
	if got.Unit != "demo" || !got.Broken || len(got.Resolved) != 3 {
		t.Fatalf("payload mismatch: %+v", got)
	}
	if got.Resolved[0] != "Integer_plus_Integer" {
		t.Fatalf("resolved[0] = %q", got.Resolved[0])
	}

	other := HashContent([]byte("something else"))
	ok, err = cache.Get(other, &got)
	if err != nil {
		t.Fatalf("Get other key: %v", err)
	}
	if ok {
		t.Fatal("hit for unrelated key")
	}
}
