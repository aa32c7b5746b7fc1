// Package detect decides whether a request comes from a scraping bot and
// under what identity. The identity string is what assignments are keyed
// on, so it must be stable across requests from the same scraper.
package detect

import (
	"strings"

	"github.com/mssola/useragent"
)

// Verdict is the classification of one request.
type Verdict struct {
	// Bot reports whether the visitor gets a decoy page.
	Bot bool

	// Name is the visitor identity assignments are keyed on. Empty for
	// humans.
	Name string

	// Trap is set when the request hit a path only ever advertised
	// through robots.txt Disallow lines.
	Trap bool
}

// AI scraper signatures the user-agent library does not always name.
// Matched case-insensitively, first match wins.
var aiSignatures = []struct {
	name    string
	pattern string
}{
	{"GPTBot", "gptbot"},
	{"OAI-SearchBot", "oai-searchbot"},
	{"ChatGPT-User", "chatgpt-user"},
	{"ClaudeBot", "claudebot"},
	{"Claude-Web", "claude-web"},
	{"Anthropic-AI", "anthropic-ai"},
	{"PerplexityBot", "perplexitybot"},
	{"Google-Extended", "google-extended"},
	{"Applebot-Extended", "applebot-extended"},
	{"CCBot", "ccbot"},
	{"Bytespider", "bytespider"},
	{"Amazonbot", "amazonbot"},
	{"Meta-ExternalAgent", "meta-externalagent"},
	{"FacebookBot", "facebookbot"},
	{"Cohere-AI", "cohere-ai"},
	{"MistralAI-User", "mistralai-user"},
	{"Diffbot", "diffbot"},
	{"Omgilibot", "omgili"},
	{"Timpibot", "timpibot"},
	{"ImagesiftBot", "imagesiftbot"},
	{"YouBot", "youbot"},
	{"FriendlyCrawler", "friendlycrawler"},
}

// Detector classifies requests against a set of trap paths.
type Detector struct {
	traps []string
}

// New builds a Detector. Trap paths are normalized to have a leading
// slash and no trailing slash.
func New(trapPaths []string) *Detector {
	d := &Detector{}
	for _, p := range trapPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		d.traps = append(d.traps, strings.TrimRight(p, "/"))
	}
	return d
}

// TrapPaths returns the normalized trap paths.
func (d *Detector) TrapPaths() []string {
	return d.traps
}

// IsTrap reports whether the path is a trap path or lies under one.
func (d *Detector) IsTrap(path string) bool {
	path = strings.TrimRight(path, "/")
	if path == "" {
		path = "/"
	}
	for _, t := range d.traps {
		if path == t || strings.HasPrefix(path, t+"/") {
			return true
		}
	}
	return false
}

// Classify inspects a request. Trap paths mark any visitor as a bot,
// even with a browser user agent: no served page ever links there, so a
// human cannot stumble in.
func (d *Detector) Classify(uaString, path, clientIP string) Verdict {
	if d.IsTrap(path) {
		name := BotName(uaString)
		if name == "" {
			name = "trap:" + clientIP
		}
		return Verdict{Bot: true, Name: name, Trap: true}
	}
	if name := BotName(uaString); name != "" {
		return Verdict{Bot: true, Name: name}
	}
	return Verdict{}
}

// BotName extracts the bot identity from a user agent, or "" when the
// user agent reads as a human browser.
func BotName(uaString string) string {
	if uaString == "" {
		return ""
	}

	lower := strings.ToLower(uaString)
	for _, sig := range aiSignatures {
		if strings.Contains(lower, sig.pattern) {
			return sig.name
		}
	}

	ua := useragent.New(uaString)
	if !ua.Bot() {
		return ""
	}
	if name, _ := ua.Browser(); name != "" {
		return name
	}
	// Unnamed bot: fall back to the leading product token.
	token := strings.Fields(uaString)[0]
	if i := strings.IndexByte(token, '/'); i > 0 {
		token = token[:i]
	}
	return token
}
