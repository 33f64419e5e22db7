// Package textfilter flags language that does not belong in content written
// for young players.
package textfilter

import (
	"regexp"
	"strings"
)

// Words unsuitable for a young audience, with a gentler alternative where
// one exists.
var unsuitable = []struct {
	word        string
	alternative string
}{
	{"fuck", "fudge"},
	{"shit", "shoot"},
	{"damn", "dang"},
	{"goddamn", "gosh"},
	{"hell", "heck"},
	{"ass", "butt"},
	{"asshole", "jerk"},
	{"bitch", "jerk"},
	{"bastard", "jerk"},
	{"crap", "crud"},
	{"piss", "ticked"},
	{"dick", "jerk"},
	{"bullshit", "nonsense"},
	{"dumbass", "goof"},
	{"jackass", "goof"},
	{"stupid", "silly"},
	{"idiot", "goof"},
	{"shut up", "be quiet"},
}

// Checker finds unsuitable words in text. The zero value is not usable; call
// New.
type Checker struct {
	patterns []*regexp.Regexp
}

// New compiles the word list.
func New() *Checker {
	c := &Checker{patterns: make([]*regexp.Regexp, len(unsuitable))}
	for i, u := range unsuitable {
		c.patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(u.word) + `\b`)
	}
	return c
}

// Find returns each unsuitable word that occurs in text, lowercased, in
// word-list order.
func (c *Checker) Find(text string) []string {
	var found []string
	for i, re := range c.patterns {
		if re.MatchString(text) {
			found = append(found, unsuitable[i].word)
		}
	}
	return found
}

// Alternative returns a gentler word to use instead of word, or "" if none
// is known.
func Alternative(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	for _, u := range unsuitable {
		if u.word == word {
			return u.alternative
		}
	}
	return ""
}
