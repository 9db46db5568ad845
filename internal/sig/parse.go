package sig

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/types"
)

// ParseOptions configure signature/call text parsing.
type ParseOptions struct {
	File source.FileID
	// Base is the byte offset of the text inside File, so reported
	// spans stay source-accurate when the text is embedded in a manifest.
	Base     uint32
	Reporter diag.Reporter
	// Trait is the owning trait for trait-method signatures; it enables
	// the Self placeholder and supplies its implicit bound.
	Trait source.StringID
}

// ParseDeclaration decomposes a textual signature such as
//
//	fn <x: Bool> and <y: Bool> -> Bool
//	fn<T: Foo> baz <a: T> <b: T>
//
// into a Declaration. Returns false when the text is malformed; errors
// go through opts.Reporter.
func ParseDeclaration(text string, strs *source.Interner, tin *types.Interner, opts ParseOptions) (*Declaration, bool) {
	p := &sigParser{
		text: text,
		strs: strs,
		tin:  tin,
		opts: opts,
	}
	return p.declaration()
}

// ParseCall decomposes a textual call shape such as `<:Bool> and <:Bool>`
// into a CallSite with one typed argument per slot.
func ParseCall(text string, strs *source.Interner, tin *types.Interner, opts ParseOptions) (*CallSite, bool) {
	p := &sigParser{
		text: text,
		strs: strs,
		tin:  tin,
		opts: opts,
	}
	return p.call()
}

type sigParser struct {
	text string
	pos  int
	strs *source.Interner
	tin  *types.Interner
	opts ParseOptions

	generics []GenericParam
}

func (p *sigParser) declaration() (*Declaration, bool) {
	p.skipSpace()
	kw, kwSpan, ok := p.ident()
	if !ok || kw != "fn" {
		p.report(diag.SigUnexpectedToken, kwSpan, "signature must start with 'fn'")
		return nil, false
	}

	// Generic parameter list binds tightly: `fn<T: Foo> ...`.
	if p.pos < len(p.text) && p.text[p.pos] == '<' {
		if !p.genericList() {
			return nil, false
		}
	}

	decl := &Declaration{Trait: p.opts.Trait}
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peekArrow() {
			p.pos += 2
			p.skipSpace()
			ret, ok := p.typeExpr()
			if !ok {
				return nil, false
			}
			decl.Return = ret
			break
		}
		slot, ok := p.slotOrToken()
		if !ok {
			return nil, false
		}
		decl.Shape.Slots = append(decl.Shape.Slots, slot)
	}

	if len(decl.Shape.Slots) == 0 {
		p.report(diag.SigEmptySignature, p.spanFrom(0), "signature has no name parts")
		return nil, false
	}
	decl.Generics = p.generics
	decl.Span = decl.Shape.Span()
	return decl, true
}

func (p *sigParser) call() (*CallSite, bool) {
	call := &CallSite{}
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		slot, ok := p.slotOrToken()
		if !ok {
			return nil, false
		}
		part := CallPart{Kind: slot.Kind, Token: slot.Token, Span: slot.Span}
		if slot.Kind == SlotArg {
			part.Type = slot.Type
			part.Qual = slot.Qual
		}
		call.Parts = append(call.Parts, part)
	}
	if len(call.Parts) == 0 {
		p.report(diag.SigEmptySignature, p.spanFrom(0), "call shape has no parts")
		return nil, false
	}
	return call, true
}

// genericList parses `<T: Foo + Bar, U>` after `fn`.
func (p *sigParser) genericList() bool {
	p.pos++ // consume '<'
	for {
		p.skipSpace()
		name, nameSpan, ok := p.ident()
		if !ok {
			p.report(diag.SigExpectIdentifier, nameSpan, "expected generic parameter name")
			return false
		}
		param := GenericParam{
			Name: p.strs.Intern(name),
			Span: nameSpan,
		}
		param.Type = p.tin.Intern(types.MakeParam(param.Name))

		p.skipSpace()
		if p.cur() == ':' {
			p.pos++
			for {
				p.skipSpace()
				bound, boundSpan, ok := p.ident()
				if !ok {
					p.report(diag.SigExpectIdentifier, boundSpan, "expected trait bound name")
					return false
				}
				param.Bounds = append(param.Bounds, p.strs.Intern(bound))
				p.skipSpace()
				if p.cur() != '+' {
					break
				}
				p.pos++
			}
		}
		p.generics = append(p.generics, param)

		p.skipSpace()
		switch p.cur() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return true
		default:
			p.report(diag.SigUnclosedSlot, p.spanHere(), "expected ',' or '>' in generic parameter list")
			return false
		}
	}
}

// slotOrToken parses either `<name: Type>` / `<: &mut Type>` or a bare
// keyword token such as `and`, `+`, `to`.
func (p *sigParser) slotOrToken() (Slot, bool) {
	if p.cur() == '<' {
		return p.argSlot()
	}
	start := p.pos
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		if c == ' ' || c == '\t' || c == '<' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		p.report(diag.SigUnexpectedToken, p.spanHere(), "expected a keyword token or an argument slot")
		return Slot{}, false
	}
	text := p.text[start:p.pos]
	return Slot{
		Kind:  SlotToken,
		Token: p.strs.Intern(text),
		Span:  p.spanFrom(start),
	}, true
}

func (p *sigParser) argSlot() (Slot, bool) {
	start := p.pos
	p.pos++ // consume '<'
	p.skipSpace()

	slot := Slot{Kind: SlotArg}
	if p.cur() != ':' {
		name, nameSpan, ok := p.ident()
		if !ok {
			p.report(diag.SigExpectIdentifier, nameSpan, "expected parameter name or ':'")
			return Slot{}, false
		}
		slot.Name = p.strs.Intern(name)
		p.skipSpace()
	}
	if p.cur() != ':' {
		p.report(diag.SigExpectColon, p.spanHere(), "expected ':' before parameter type")
		return Slot{}, false
	}
	p.pos++
	p.skipSpace()

	if p.cur() == '&' {
		p.pos++
		slot.Qual = Ref
		p.skipSpace()
		if p.peekWord("mut") {
			p.pos += 3
			slot.Qual = RefMut
			p.skipSpace()
		}
	}

	ty, ok := p.typeExpr()
	if !ok {
		return Slot{}, false
	}
	slot.Type = ty

	p.skipSpace()
	if p.cur() != '>' {
		p.report(diag.SigUnclosedSlot, p.spanFrom(start), "argument slot is missing '>'")
		return Slot{}, false
	}
	p.pos++
	slot.Span = p.spanFrom(start)
	return slot, true
}

// typeExpr parses `Name` or `Name<Type, ...>`. Names matching a generic
// parameter (or Self inside a trait) become placeholders.
func (p *sigParser) typeExpr() (types.TypeID, bool) {
	name, nameSpan, ok := p.ident()
	if !ok {
		p.report(diag.SigExpectType, nameSpan, "expected a type name")
		return types.NoTypeID, false
	}
	nameID := p.strs.Intern(name)

	if name == "Self" {
		if p.opts.Trait == source.NoStringID {
			p.report(diag.SigExpectType, nameSpan, "Self is only allowed inside a trait")
			return types.NoTypeID, false
		}
		return p.selfParam(nameID), true
	}
	for i := range p.generics {
		if p.generics[i].Name == nameID {
			return p.generics[i].Type, true
		}
	}

	var args []types.TypeID
	if p.cur() == '<' {
		p.pos++
		for {
			p.skipSpace()
			arg, ok := p.typeExpr()
			if !ok {
				return types.NoTypeID, false
			}
			args = append(args, arg)
			p.skipSpace()
			if p.cur() == ',' {
				p.pos++
				continue
			}
			break
		}
		if p.cur() != '>' {
			p.report(diag.SigUnclosedSlot, nameSpan, "generic argument list is missing '>'")
			return types.NoTypeID, false
		}
		p.pos++
	}
	return p.tin.Intern(types.MakeNamed(nameID, args...)), true
}

// selfParam interns the implicit Self generic parameter, bounded by the
// owning trait, adding it to the declaration's generics exactly once.
func (p *sigParser) selfParam(nameID source.StringID) types.TypeID {
	for i := range p.generics {
		if p.generics[i].Name == nameID {
			return p.generics[i].Type
		}
	}
	param := GenericParam{
		Name:   nameID,
		Type:   p.tin.Intern(types.MakeParam(nameID)),
		Bounds: []source.StringID{p.opts.Trait},
	}
	p.generics = append(p.generics, param)
	return param.Type
}

// Scanner helpers ------------------------------------------------------------

func (p *sigParser) ident() (string, source.Span, bool) {
	start := p.pos
	for p.pos < len(p.text) {
		r, size := utf8.DecodeRuneInString(p.text[p.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos += size
	}
	if p.pos == start {
		return "", p.spanHere(), false
	}
	return p.text[start:p.pos], p.spanFrom(start), true
}

func (p *sigParser) skipSpace() {
	for p.pos < len(p.text) && (p.text[p.pos] == ' ' || p.text[p.pos] == '\t') {
		p.pos++
	}
}

func (p *sigParser) cur() byte {
	if p.pos >= len(p.text) {
		return 0
	}
	return p.text[p.pos]
}

func (p *sigParser) eof() bool {
	return p.pos >= len(p.text)
}

func (p *sigParser) peekArrow() bool {
	return p.pos+1 < len(p.text) && p.text[p.pos] == '-' && p.text[p.pos+1] == '>'
}

func (p *sigParser) peekWord(w string) bool {
	end := p.pos + len(w)
	if end > len(p.text) || p.text[p.pos:end] != w {
		return false
	}
	if end < len(p.text) {
		r, _ := utf8.DecodeRuneInString(p.text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return false
		}
	}
	return true
}

func (p *sigParser) spanHere() source.Span {
	return p.spanFrom(p.pos)
}

func (p *sigParser) spanFrom(start int) source.Span {
	return source.Span{
		File:  p.opts.File,
		Start: p.opts.Base + uint32(start),
		End:   p.opts.Base + uint32(p.pos),
	}
}

func (p *sigParser) report(code diag.Code, sp source.Span, format string, args ...any) {
	if p.opts.Reporter == nil {
		return
	}
	p.opts.Reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
}
