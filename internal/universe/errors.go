package universe

import (
	"errors"
	"fmt"
	"strings"

	"quill/internal/source"
)

var errSealed = errors.New("universe: registration after seal")

// DuplicateSignatureError is returned when an identical signature shape
// with identical parameter types is registered twice.
type DuplicateSignatureError struct {
	Label string
	Span  source.Span
	Prev  source.Span
}

func (e *DuplicateSignatureError) Error() string {
	return fmt.Sprintf("duplicate signature `%s`", e.Label)
}

// DuplicateTypeError is returned when a type or trait name is declared twice.
type DuplicateTypeError struct {
	Name source.StringID
	Span source.Span
	Prev source.Span
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("duplicate type declaration (name #%d)", e.Name)
}

// CyclicTraitDefaultError is returned when a trait's default methods
// depend on each other in a cycle. This is a configuration fault of the
// trait, rejected at registration time.
type CyclicTraitDefaultError struct {
	Trait source.StringID
	Span  source.Span
	Cycle []string
}

func (e *CyclicTraitDefaultError) Error() string {
	return fmt.Sprintf("cyclic default-method dependency: %s", strings.Join(e.Cycle, " -> "))
}
