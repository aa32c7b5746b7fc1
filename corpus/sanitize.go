package corpus

import "github.com/microcosm-cc/bluemonday"

// The master file may be assembled from scraped or donated material, so
// active content is stripped before any of it is woven into a page.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	return p
}()

// Sanitize removes scripts, event handlers and other active content
// while keeping the structural elements the section parser relies on.
func Sanitize(raw string) string {
	return policy.Sanitize(raw)
}
