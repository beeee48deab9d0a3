// Package normalize converts recognized text into a form the chatbox font can
// render. Each language gets at most one rule; anything non-ASCII that no
// rule claims is transliterated generically.
package normalize

import (
	"github.com/mozillazg/go-unidecode"

	"github.com/AymNine/vrc-osc-scripts/internal/lang"
)

// Rule converts text for the languages Match accepts.
type Rule struct {
	Name  string
	Match func(language string) bool
	Apply func(text string) string
}

// Normalizer applies the first matching rule, falling back to generic
// transliteration of non-ASCII text.
type Normalizer struct {
	rules []Rule
}

// New creates a normalizer with the given rules ahead of the fallback.
func New(rules ...Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Default returns the standard rule table: Russian, Ukrainian, Japanese.
func Default() *Normalizer {
	return New(
		Rule{Name: "ru", Match: exact("ru-RU"), Apply: russian.transliterate},
		Rule{Name: "uk", Match: exact("uk-UA"), Apply: ukrainian.transliterate},
		Rule{Name: "ja", Match: base("ja"), Apply: Romanize},
	)
}

// Normalize returns the display form of text in language and whether it
// differs from the input.
func (n *Normalizer) Normalize(text, language string) (string, bool) {
	out := n.apply(text, language)
	return out, out != text
}

// RuleFor names the rule that would handle language.
func (n *Normalizer) RuleFor(language string) string {
	for _, r := range n.rules {
		if r.Match(language) {
			return r.Name
		}
	}
	return "fallback"
}

func (n *Normalizer) apply(text, language string) string {
	for _, r := range n.rules {
		if r.Match(language) {
			return r.Apply(text)
		}
	}
	if isASCII(text) {
		return text
	}
	return unidecode.Unidecode(text)
}

func exact(tag string) func(string) bool {
	return func(l string) bool { return lang.Equal(l, tag) }
}

func base(b string) func(string) bool {
	return func(l string) bool { return lang.Base(l) == b }
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
