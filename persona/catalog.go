// Package persona generates the seeded fake data woven into decoy pages.
// A persona type names an ordered field vocabulary; a seed deterministically
// expands that vocabulary into concrete values, so the same assignment always
// renders the same page.
package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Type is one persona: a display name and the ordered field names that
// page placeholders are matched against.
type Type struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

// Builtin returns the stock catalog. Order matters: variant numbers map
// onto types by position.
func Builtin() []Type {
	return []Type{
		{
			Name: "Companies",
			Fields: []string{
				"name",
				"year",
				"location",
				"founder",
				"number",
				"product",
				"employee count",
				"product 1",
				"product 2",
				"product 3",
				"product",
				"dollars",
			},
		},
		{
			Name: "Artists",
			Fields: []string{
				"name",
				"date",
				"location",
				"year",
				"nickname",
				"concert 1",
				"concert 2",
				"concert 3",
				"song 1",
				"song 2",
				"song 3",
				"birth location",
			},
		},
		{
			Name: "Products",
			Fields: []string{
				"product name",
				"year",
				"price number 1",
				"price number 2",
				"price number 3",
				"person name",
				"location",
				"company name",
				"collab name",
				"generic email",
				"phone number",
				"brand company",
			},
		},
		{
			Name: "Politicians",
			Fields: []string{
				"birth date",
				"name",
				"allied faction",
				"main country",
				"other faction",
				"country 1",
				"country 2",
				"date 1",
				"date 2",
				"university name",
				"birth location",
				"date 3",
			},
		},
		{
			Name: "Researchers",
			Fields: []string{
				"university 1",
				"date",
				"name",
				"science field 1",
				"science field 2",
				"birth date",
				"birth location",
				"researcher name",
				"prize name",
				"journal name 1",
				"university 2",
				"country",
			},
		},
	}
}

type catalogFile struct {
	Types []Type `yaml:"types"`
}

// LoadCatalog reads a YAML catalog. An empty path returns the builtin
// catalog unchanged.
func LoadCatalog(path string) ([]Type, error) {
	if path == "" {
		return Builtin(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}
	if len(file.Types) == 0 {
		return nil, fmt.Errorf("persona catalog %s defines no types", path)
	}
	for i, t := range file.Types {
		if t.Name == "" {
			return nil, fmt.Errorf("persona catalog %s: type %d has no name", path, i)
		}
		if len(t.Fields) == 0 {
			return nil, fmt.Errorf("persona catalog %s: type %q has no fields", path, t.Name)
		}
	}
	return file.Types, nil
}
