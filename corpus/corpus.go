// Package corpus loads the master HTML file and splits it into the
// ordered section grid that template variants are woven from. The master
// file is operator-authored: top-level <h1> headings open sections,
// <h2> headings open subsections inside them, and everything between two
// headings belongs to the heading above it.
package corpus

import (
	"fmt"
	"os"
	"strings"
)

// Subsection is one <h2> block inside a section.
type Subsection struct {
	Title   string
	Content string
}

// Section is one <h1> block of the master file.
type Section struct {
	Title string

	// Content is the HTML between the <h1> and the first <h2>. It is
	// what the section contributes when it has no subsections.
	Content string

	// Subs are the <h2> blocks in document order.
	Subs []Subsection
}

// Corpus is the parsed master file.
type Corpus struct {
	Sections []Section
}

// Len is the number of top-level sections.
func (c *Corpus) Len() int {
	return len(c.Sections)
}

// Titles lists the section titles in document order.
func (c *Corpus) Titles() []string {
	out := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		out[i] = s.Title
	}
	return out
}

// Load reads, sanitizes and parses the master file. A non-empty selector
// scopes parsing to the matched subtree.
func Load(path, selector string) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return ParseString(string(raw), selector)
}

// ParseString sanitizes and parses master HTML held in memory.
func ParseString(raw, selector string) (*Corpus, error) {
	clean := Sanitize(raw)
	if selector != "" {
		scoped, err := Scope(clean, selector)
		if err != nil {
			return nil, fmt.Errorf("scope corpus: %w", err)
		}
		clean = scoped
	}
	return parse(strings.NewReader(clean))
}
