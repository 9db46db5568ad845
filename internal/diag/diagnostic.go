package diag

import (
	"quill/internal/source"
)

// Note attaches a secondary span with its own message to a diagnostic.
// Resolution failures use one note chain per rejected candidate.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is a single, renderable report: a primary span with a message
// and any number of span-annotated notes.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
