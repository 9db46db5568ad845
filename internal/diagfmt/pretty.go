// Package diagfmt renders diagnostics for humans. The core itself never
// formats anything; this package is the reporting collaborator's view of
// a diag.Bag.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"quill/internal/diag"
	"quill/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	noteColor = color.New(color.FgBlue)
)

// Pretty formats diagnostics in a human-readable layout. It walks
// bag.Items() as-is; call bag.Sort() first for deterministic output.
//
// Per diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	    <source line>
//	    ^~~~
//	  note: <path>:<line>:<col>: <message>
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeHead(w, d, fs, opts)
		if opts.Context {
			writeContext(w, d.Primary, fs, "    ")
		}
		for _, n := range d.Notes {
			path, lc := fs.Position(n.Span)
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n", label, path, lc.Line, lc.Col, n.Msg)
			if opts.Context {
				writeContext(w, n.Span, fs, "      ")
			}
		}
	}
}

func writeHead(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	path, lc := fs.Position(d.Primary)
	sev := d.Severity.String()
	if opts.Color {
		switch d.Severity {
		case diag.SevError:
			sev = errColor.Sprint(sev)
		case diag.SevWarning:
			sev = warnColor.Sprint(sev)
		default:
			sev = infoColor.Sprint(sev)
		}
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", path, lc.Line, lc.Col, sev, d.Code, d.Message)
}

// writeContext prints the source line under the span with a ^~~~ marker.
// Column math uses display widths so wide runes keep the caret aligned.
func writeContext(w io.Writer, sp source.Span, fs *source.FileSet, indent string) {
	_, lc := fs.Position(sp)
	line := fs.Line(sp.File, lc.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "%s%s\n", indent, line)

	col := int(lc.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	pad := runewidth.StringWidth(line[:col])

	span := int(sp.Len())
	if span <= 0 {
		span = 1
	}
	end := col + span
	if end > len(line) {
		end = len(line)
	}
	width := runewidth.StringWidth(line[col:end])
	if width < 1 {
		width = 1
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "%s%s%s\n", indent, strings.Repeat(" ", pad), marker)
}
