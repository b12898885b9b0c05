// Package resume holds the master resume data model: a per-person directory
// of YAML components plus a Markdown achievements file. Every loader
// validates on the way in so downstream consumers can trust field contents,
// and every value kept in the model is traceable to a source file. The
// model is the ground truth the tailoring agents quote from.
package resume

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// validator is implemented by models that check their own field contents.
type validator interface {
	Validate() error
}

// decodeYAML parses strict YAML into dst, rejecting unknown fields, then
// runs the model's own validation.
func decodeYAML(data []byte, dst validator, name string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s: empty document", name)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if err := dst.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}

// loadYAMLFile reads and decodes one component file.
func loadYAMLFile(path string, dst validator, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	return decodeYAML(data, dst, name)
}

// saveYAMLFile marshals one component and writes it out.
func saveYAMLFile(path string, src any, name string) error {
	data, err := yaml.Marshal(src)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	return nil
}
