// Package action models the Reader View toolbar action registry
// (user-action.json): an ordered list of button descriptors whose code
// strings the extension later runs in its own sandbox. This package only
// validates and serializes the document; it never executes anything.
package action

import (
	"encoding/json"
	"fmt"
	"os"
)

// Descriptor is one toolbar button entry. All three fields are required.
// Code is opaque to us — a single-line script body the host's sandboxed
// interpreter evaluates verbatim when the button is clicked.
type Descriptor struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Code  string `json:"code"`
}

// Registry is the ordered action list. Order is toolbar display order.
// Labels are not required to be unique.
type Registry []Descriptor

// Serialize renders the registry in canonical form: two-space-indented JSON
// with entries in registry order. Validate on the output yields an equal
// registry.
func Serialize(r Registry) ([]byte, error) {
	if r == nil {
		r = Registry{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize registry: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile serializes the registry and writes it to path.
func WriteFile(path string, r Registry) error {
	data, err := Serialize(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
