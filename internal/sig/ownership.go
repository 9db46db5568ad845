package sig

import "fmt"

// Qualifier captures how a parameter or argument holds its value:
// moved in, borrowed read-only, or borrowed with exclusive write access.
type Qualifier uint8

const (
	// Owned means the callee consumes the value.
	Owned Qualifier = iota
	// Ref is a read-only borrow.
	Ref
	// RefMut is an exclusive, writable borrow.
	RefMut
)

func (q Qualifier) String() string {
	switch q {
	case Owned:
		return "owned"
	case Ref:
		return "&"
	case RefMut:
		return "&mut"
	default:
		return fmt.Sprintf("Qualifier(%d)", q)
	}
}

// Accepts reports whether a parameter with qualifier q can take an
// argument with qualifier arg. An owned parameter needs an owned value,
// a read-only borrow also accepts an owned value, a mutable borrow
// needs a mutable borrow.
func (q Qualifier) Accepts(arg Qualifier) bool {
	switch q {
	case Owned:
		return arg == Owned
	case Ref:
		return arg == Owned || arg == Ref
	case RefMut:
		return arg == RefMut
	}
	return false
}
