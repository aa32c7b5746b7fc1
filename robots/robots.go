// Package robots builds the site's robots.txt. The trap paths are
// deliberately listed as Disallow rules: a compliant crawler stays out,
// and anything that reads the file and visits them anyway has
// identified itself.
package robots

import (
	"fmt"
	"strings"

	"github.com/temoto/robotstxt"
)

// Generate renders a robots.txt that allows the site root and
// disallows every trap path for all agents.
func Generate(traps []string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	for _, trap := range traps {
		b.WriteString("Disallow: " + trap + "\n")
	}
	return b.String()
}

// Validate parses content and checks that it keeps the root reachable
// while disallowing every trap path, as a crawler would read it.
func Validate(content string, traps []string) error {
	data, err := robotstxt.FromString(content)
	if err != nil {
		return fmt.Errorf("parse robots.txt: %w", err)
	}

	group := data.FindGroup("GPTBot")
	if !group.Test("/") {
		return fmt.Errorf("robots.txt blocks the site root")
	}
	for _, trap := range traps {
		if group.Test(trap) {
			return fmt.Errorf("robots.txt does not disallow trap path %s", trap)
		}
	}
	return nil
}
