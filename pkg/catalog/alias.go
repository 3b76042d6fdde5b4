// CLAUDE:SUMMARY Manual alias map (YAML) for course names fuzzy matching cannot reach, e.g. acronyms.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AliasMap holds curated raw-name -> canonical-name overrides. It is consulted
// before fuzzy matching and covers cases a similarity score cannot, such as
// acronyms ("POO" -> "Programación Orientada a Objetos"). An empty value keeps
// the name as-is, marking it reviewed but intentionally unmapped.
type AliasMap struct {
	exact map[string]string // verbatim raw name -> canonical
	byKey map[string]string // NormalizeKey(raw) -> canonical
}

type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliases reads the alias YAML file. A missing file yields an empty map;
// any other read or parse failure is an error.
func LoadAliases(path string) (*AliasMap, error) {
	m := &AliasMap{exact: map[string]string{}, byKey: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read aliases %s: %w", path, err)
	}

	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse aliases %s: %w", path, err)
	}

	for raw, canonical := range f.Aliases {
		m.exact[raw] = canonical
		m.byKey[NormalizeKey(raw)] = canonical
	}
	return m, nil
}

// NewAliasMap builds an alias map from a plain mapping (tests, fakes).
func NewAliasMap(aliases map[string]string) *AliasMap {
	m := &AliasMap{exact: map[string]string{}, byKey: map[string]string{}}
	for raw, canonical := range aliases {
		m.exact[raw] = canonical
		m.byKey[NormalizeKey(raw)] = canonical
	}
	return m
}

// Resolve returns the canonical name for raw, trying the verbatim spelling
// first and the comparison key second. An empty canonical maps raw to itself.
func (m *AliasMap) Resolve(raw string) (string, bool) {
	canonical, ok := m.exact[raw]
	if !ok {
		canonical, ok = m.byKey[NormalizeKey(raw)]
	}
	if !ok {
		return "", false
	}
	if canonical == "" {
		return raw, true
	}
	return canonical, true
}

// Len returns the number of alias entries.
func (m *AliasMap) Len() int { return len(m.exact) }
