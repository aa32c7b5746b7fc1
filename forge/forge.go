// Package forge assembles decoy pages. A variant number selects a slice
// of the corpus and a persona type; a seed expands the persona into
// concrete values; the weave substitutes those values into the section's
// placeholders and wraps the result in the site shell. The same
// (variant, seed) pair always produces the same bytes, which is what
// makes a served page attributable later.
package forge

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/wovenlabs/gossamer/corpus"
	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/persona"
	"github.com/wovenlabs/gossamer/simhash"
)

// Output formats for woven pages.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

const fallbackContent = "<p>Content not available.</p>"

// Forge weaves pages from a parsed corpus and a persona catalog.
type Forge struct {
	corpus   *corpus.Corpus
	catalog  []persona.Type
	perGroup int
	total    int
}

// New builds a Forge over a corpus. groups and perGroup define the
// variant grid; the servable space is groups*perGroup.
func New(c *corpus.Corpus, catalog []persona.Type, groups, perGroup int) *Forge {
	return &Forge{
		corpus:   c,
		catalog:  catalog,
		perGroup: perGroup,
		total:    groups * perGroup,
	}
}

// TotalVariants is the size of the variant space.
func (f *Forge) TotalVariants() int {
	return f.total
}

// Catalog exposes the persona catalog, in variant order.
func (f *Forge) Catalog() []persona.Type {
	return f.catalog
}

// Sections is the number of loaded corpus sections.
func (f *Forge) Sections() int {
	return f.corpus.Len()
}

// Page is one woven decoy page.
type Page struct {
	Variant int
	Seed    int64
	Persona string
	Title   string

	// HTML is the complete page document. Content is the body in the
	// requested format and equals HTML when the format is "html".
	HTML    string
	Content string
	Format  string

	// Hash is the SimHash of the page text, the content fingerprint
	// recorded with every visit.
	Hash uint64
}

// Weave produces the page for a variant and seed. Seed 0 picks a random
// seed; the one used is reported back on the Page.
func (f *Forge) Weave(variant int, seed int64, format string) (*Page, error) {
	if seed == 0 {
		seed = persona.NewSeed()
	}
	if variant < 1 || variant > f.total {
		return nil, models.NewDecoyError(models.ErrCodeInvalidInput,
			fmt.Sprintf("variant must be between 1 and %d", f.total), nil)
	}
	if f.corpus.Len() == 0 {
		return nil, models.NewDecoyError(models.ErrCodeCorpusUnavailable,
			"no corpus sections loaded", nil)
	}

	typeIdx := (variant - 1) / f.perGroup
	if typeIdx >= len(f.catalog) {
		return nil, models.NewDecoyError(models.ErrCodeInvalidInput,
			fmt.Sprintf("variant %d exceeds the %d persona types", variant, len(f.catalog)), nil)
	}
	ptype := f.catalog[typeIdx]

	title, body := f.section(variant)
	row := persona.Generate(ptype, seed)
	body = substitute(body, ptype, row)
	body = applyPronouns(body, seed)

	doc := shell(title, body)
	text := flattenText(doc)

	page := &Page{
		Variant: variant,
		Seed:    seed,
		Persona: ptype.Name,
		Title:   title,
		HTML:    doc,
		Format:  format,
		Hash:    simhash.Fingerprint(text),
	}

	switch format {
	case "", FormatHTML:
		page.Format = FormatHTML
		page.Content = doc
	case FormatText:
		page.Content = text
	case FormatMarkdown:
		md, err := toMarkdown(doc)
		if err != nil {
			return nil, models.NewDecoyError(models.ErrCodeWeaveFailure,
				"markdown conversion failed", err)
		}
		page.Content = md
	default:
		return nil, models.NewDecoyError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown format %q", format), nil)
	}

	return page, nil
}

// section reconstructs the heading slice for a variant. Both indexes wrap
// on the actually loaded section counts, so a thin corpus still serves
// every variant number.
func (f *Forge) section(variant int) (title, body string) {
	idx := variant - 1
	secs := f.corpus.Sections
	sec := secs[(idx/f.perGroup)%len(secs)]

	var b strings.Builder
	b.WriteString("<h1>" + html.EscapeString(sec.Title) + "</h1>")

	switch {
	case len(sec.Subs) > 0:
		sub := sec.Subs[(idx%f.perGroup)%len(sec.Subs)]
		b.WriteString("<h2>" + html.EscapeString(sub.Title) + "</h2>")
		b.WriteString(sub.Content)
	case sec.Content != "":
		b.WriteString(sec.Content)
	default:
		slog.Warn("corpus section has no content, serving fallback", "section", sec.Title)
		b.WriteString(fallbackContent)
	}

	return sec.Title, b.String()
}
