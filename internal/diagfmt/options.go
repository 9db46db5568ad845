package diagfmt

// PrettyOpts configure human-readable diagnostic rendering.
type PrettyOpts struct {
	// Color enables ANSI severity coloring.
	Color bool
	// Context prints the offending source line with an underline.
	Context bool
}
