package model

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// schemaFile is the contract document. A bare list of names is accepted too.
type schemaFile struct {
	Model    string   `yaml:"model"`
	Features []string `yaml:"features"`
}

// ReadSchemaFile reads an ordered feature-name list from a YAML or JSON file.
func ReadSchemaFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return ParseSchema(raw)
}

// ParseSchema decodes either `features: [...]` or a top-level list.
func ParseSchema(raw []byte) ([]string, error) {
	var doc schemaFile
	if err := yaml.Unmarshal(raw, &doc); err == nil && len(doc.Features) > 0 {
		return doc.Features, nil
	}
	var names []string
	if err := yaml.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("%w: schema is neither a feature list nor a features document", ErrSchemaContract)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrSchemaContract)
	}
	return names, nil
}

// bindSchema installs names as the model's contract, checking them against
// any names embedded in the model itself.
func (b *Booster) bindSchema(names []string) error {
	if len(names) != b.numFeature {
		return fmt.Errorf("%w: %s schema lists %d names for %d features", ErrSchemaContract, b.name, len(names), b.numFeature)
	}
	if len(b.schema.Names) > 0 && !slices.Equal(b.schema.Names, names) {
		return fmt.Errorf("%w: %s schema order differs from the model's feature names", ErrSchemaContract, b.name)
	}
	b.schema.Model = b.name
	b.schema.Names = append([]string(nil), names...)
	return nil
}
