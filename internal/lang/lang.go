// Package lang handles BCP 47 language tags as they appear in settings.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Base returns the lower-case primary subtag of tag, e.g. "ja" for "ja-JP".
// Unparseable tags fall back to the text before the first separator.
func Base(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return fallbackBase(tag)
	}
	b, _ := t.Base()
	return b.String()
}

// Equal reports whether a and b name the same language and region.
func Equal(a, b string) bool {
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	return ta == tb
}

// StripDialect reduces tag to the form translation services expect: the
// primary subtag alone, except Chinese which keeps a simplified or
// traditional marker ("zh-CN" or "zh-TW").
func StripDialect(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return fallbackBase(tag)
	}
	b, _ := t.Base()
	if b.String() != "zh" {
		return b.String()
	}

	if r, conf := t.Region(); conf == language.Exact && r.String() == "CN" {
		return "zh-CN"
	}
	if s, conf := t.Script(); conf == language.Exact && s.String() == "Hans" {
		return "zh-CN"
	}
	return "zh-TW"
}

func fallbackBase(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
