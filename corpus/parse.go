package corpus

import (
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// parse walks the document once per <h1>, collecting the raw sibling
// nodes up to the next <h1> and splitting them again on <h2>. The walk
// is over raw nodes, not elements, so loose text between tags survives.
func parse(r io.Reader) (*Corpus, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var sections []Section
	doc.Find("h1").Each(func(_ int, h1 *goquery.Selection) {
		sec := Section{Title: strings.TrimSpace(h1.Text())}

		var direct bytes.Buffer
		var sub bytes.Buffer
		subTitle := ""
		inSub := false

		flush := func() {
			if !inSub {
				return
			}
			sec.Subs = append(sec.Subs, Subsection{
				Title:   subTitle,
				Content: strings.TrimSpace(sub.String()),
			})
			sub.Reset()
		}

		for n := h1.Get(0).NextSibling; n != nil; n = n.NextSibling {
			if isElement(n, "h1") {
				break
			}
			if isElement(n, "h2") {
				flush()
				subTitle = strings.TrimSpace(textContent(n))
				inSub = true
				continue
			}
			if inSub {
				html.Render(&sub, n)
			} else {
				html.Render(&direct, n)
			}
		}
		flush()

		sec.Content = strings.TrimSpace(direct.String())
		sections = append(sections, sec)
	})

	return &Corpus{Sections: sections}, nil
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// textContent concatenates the text nodes under n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
