package forge

import "strings"

// Pronoun placeholders are authored in the male form and rewritten per
// seed, so a third of assignments read she/her, a third they/them.
var pronounSets = map[string]map[string]string{
	"male": {
		"he": "he", "him": "him", "his": "his", "himself": "himself",
	},
	"female": {
		"he": "she", "him": "her", "his": "her", "himself": "herself",
	},
	"they": {
		"he": "they", "him": "them", "his": "their", "himself": "themself",
	},
}

var pronounKeys = []string{"he", "him", "his", "himself"}

// applyPronouns replaces {he} {Him} {HIS} style placeholders, preserving
// the case shape of each placeholder.
func applyPronouns(s string, seed int64) string {
	set := pronounSets[[]string{"male", "female", "they"}[seed%3]]

	for _, key := range pronounKeys {
		repl := set[key]
		for _, variant := range []struct {
			form string
			repl string
		}{
			{key, repl},
			{titleCase(key), titleCase(repl)},
			{strings.ToUpper(key), strings.ToUpper(repl)},
		} {
			s = strings.ReplaceAll(s, "{"+variant.form+"}", variant.repl)
		}
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
