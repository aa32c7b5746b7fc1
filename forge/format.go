package forge

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
)

// mdConverter is shared; the converter is goroutine-safe. The base plugin
// drops head, style and script, so the shell's CSS never leaks into the
// markdown a text-oriented scraper consumes.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// toMarkdown renders a woven page as Markdown for scrapers that ask for
// text formats. The fake data survives conversion unchanged, so the
// fingerprint carries over.
func toMarkdown(doc string) (string, error) {
	return mdConverter.ConvertString(doc)
}

// flattenText strips a woven page to whitespace-normalized visible text.
// This is both the "text" output format and the input to the content
// fingerprint.
func flattenText(doc string) string {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return strings.Join(strings.Fields(doc), " ")
	}
	gq.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(gq.Text()), " ")
}
