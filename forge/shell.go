package forge

import (
	"fmt"
	"html"
	"strings"

	"github.com/wovenlabs/gossamer/corpus"
)

// pageShell is the document frame every decoy page is served in. The
// styling is deliberately ordinary; the page should look like any small
// content site.
const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>%s</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body {
            font-family: 'Segoe UI', Arial, sans-serif;
            background: #f8f9fa;
            margin: 0;
            padding: 0;
        }
        .container {
            max-width: 900px;
            margin: 40px auto;
            background: #fff;
            border-radius: 12px;
            box-shadow: 0 4px 24px rgba(0,0,0,0.08);
            padding: 32px 40px;
        }
        h1, h2, h3 {
            color: #2c3e50;
            margin-top: 1.5em;
        }
        h1 {
            border-bottom: 2px solid #3498db;
            padding-bottom: 0.3em;
        }
        h2 {
            border-left: 4px solid #3498db;
            padding-left: 0.5em;
            margin-top: 1.2em;
        }
        p {
            color: #444;
            line-height: 1.7;
        }
        ul, ol {
            margin-left: 2em;
        }
        a {
            color: #3498db;
            text-decoration: none;
        }
        a:hover {
            text-decoration: underline;
        }
        @media (max-width: 600px) {
            .container {
                padding: 16px 8px;
            }
        }
    </style>
</head>
<body>
    <div class="container">
        %s
    </div>
</body>
</html>
`

// shell wraps woven body HTML in the full page document.
func shell(title, body string) string {
	if title == "" {
		title = "Home"
	}
	return fmt.Sprintf(pageShell, html.EscapeString(title), body)
}

// HomePage renders the page served to human visitors: the corpus
// section titles as a plain landing page in the same shell the decoys
// use, so both surfaces read as one site.
func HomePage(c *corpus.Corpus) string {
	var b strings.Builder
	b.WriteString("<h1>Welcome</h1>")
	b.WriteString("<p>A small archive of notes and articles, updated now and then.</p>")
	if titles := c.Titles(); len(titles) > 0 {
		b.WriteString("<ul>")
		for _, title := range titles {
			b.WriteString("<li>" + html.EscapeString(title) + "</li>")
		}
		b.WriteString("</ul>")
	}
	return shell("", b.String())
}
