package diag

import (
	"fmt"
	"sort"
	"strings"

	"quill/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGolden renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden assertions: sorted deterministically,
// notes indented beneath their diagnostic when includeNotes is set.
func FormatGolden(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		path, lc := fs.Position(d.Primary)
		rendered = append(rendered, goldenDiagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code.String(),
			Path:     path,
			Line:     lc.Line,
			Column:   lc.Col,
			Message:  d.Message,
		})
	}

	order := make([]int, len(rendered))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := rendered[order[a]], rendered[order[b]]
		if da.Path != db.Path {
			return da.Path < db.Path
		}
		if da.Line != db.Line {
			return da.Line < db.Line
		}
		if da.Column != db.Column {
			return da.Column < db.Column
		}
		return da.Code < db.Code
	})

	for _, idx := range order {
		g := rendered[idx]
		lines = append(lines, fmt.Sprintf("%s:%d:%d: %s %s: %s", g.Path, g.Line, g.Column, g.Severity, g.Code, g.Message))
		if includeNotes {
			for _, n := range diags[idx].Notes {
				npath, nlc := fs.Position(n.Span)
				lines = append(lines, fmt.Sprintf("  note %s:%d:%d: %s", npath, nlc.Line, nlc.Col, n.Msg))
			}
		}
	}
	return strings.Join(lines, "\n")
}
