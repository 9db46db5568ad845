package driver

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest describes one compilation unit for the resolution harness:
// declared types, traits, function signatures, and the calls to resolve.
// Signatures and call shapes use the textual grammar from internal/sig.
type Manifest struct {
	Unit      string          `toml:"unit"`
	Types     []TypeEntry     `toml:"types"`
	Traits    []TraitEntry    `toml:"traits"`
	Functions []FunctionEntry `toml:"functions"`
	Calls     []CallEntry     `toml:"calls"`
}

// TypeEntry declares a named type with its generic arity.
type TypeEntry struct {
	Name  string `toml:"name"`
	Arity int    `toml:"arity"`
}

// TraitEntry declares a trait and its required method signatures.
type TraitEntry struct {
	Name    string        `toml:"name"`
	Methods []MethodEntry `toml:"methods"`
}

// MethodEntry is one required method of a trait. Default methods list
// the shape keys of the required methods their body calls.
type MethodEntry struct {
	Signature string   `toml:"signature"`
	Default   bool     `toml:"default"`
	Requires  []string `toml:"requires"`
}

// FunctionEntry is one free-function signature.
type FunctionEntry struct {
	Signature string `toml:"signature"`
}

// CallEntry is one call shape to resolve, e.g. `<:Bool> and <:Bool>`.
type CallEntry struct {
	Shape string `toml:"shape"`
}

// DecodeManifest parses a unit manifest from raw TOML bytes.
func DecodeManifest(content []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("failed to parse unit manifest: %w", err)
	}
	if strings.TrimSpace(m.Unit) == "" {
		m.Unit = "unit"
	}
	return &m, nil
}
