package sig

import (
	"quill/internal/source"
)

// Trait names a set of required method shapes. A method may carry a
// default body; the default's own call targets (other methods of the
// same trait) still have to resolve for an implementing type.
type Trait struct {
	Name    source.StringID
	Span    source.Span
	Methods []*Declaration
}

// MethodByKey finds a required method by its shape key.
func (t *Trait) MethodByKey(strs *source.Interner, key string) (*Declaration, bool) {
	for _, m := range t.Methods {
		if m.Key(strs) == key {
			return m, true
		}
	}
	return nil, false
}
