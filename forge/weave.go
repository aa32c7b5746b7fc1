package forge

import (
	"regexp"
	"strings"

	"github.com/wovenlabs/gossamer/persona"
)

var (
	placeholderRe = regexp.MustCompile(`\{([^}]+)\}`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// normalize lowercases a placeholder spec and collapses its whitespace so
// authoring variations like "{ Price Number 1 }" still match.
func normalize(s string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// fieldMap resolves placeholder specs to row indexes. Keys keep first
// declaration order; a repeated field name keeps its position but points
// at its last occurrence in the row.
type fieldMap struct {
	keys []string
	idx  map[string]int
}

func newFieldMap(fields []string) *fieldMap {
	m := &fieldMap{idx: make(map[string]int, len(fields))}
	for i, f := range fields {
		k := normalize(f)
		if _, seen := m.idx[k]; !seen {
			m.keys = append(m.keys, k)
		}
		m.idx[k] = i
	}
	return m
}

// resolve returns the row index for a spec: the first field key in
// declaration order that equals the spec or prefixes it. So "location
// (city)" resolves through the "location" field, and "product 2" through
// the bare "product" field when one is declared first.
func (m *fieldMap) resolve(spec string) (int, bool) {
	for _, k := range m.keys {
		if spec == k || strings.HasPrefix(spec, k) {
			return m.idx[k], true
		}
	}
	return 0, false
}

// substitute replaces {field spec} placeholders in body with stringified
// row values. Unresolvable placeholders are left verbatim.
func substitute(body string, t persona.Type, row []persona.Value) string {
	fm := newFieldMap(t.Fields)
	return placeholderRe.ReplaceAllStringFunc(body, func(match string) string {
		spec := normalize(match[1 : len(match)-1])
		if i, ok := fm.resolve(spec); ok && i < len(row) {
			return persona.Stringify(row[i], spec)
		}
		return match
	})
}
