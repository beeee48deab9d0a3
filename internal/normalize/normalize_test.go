package normalize

import (
	"strings"
	"testing"
	"unicode"
)

func onlyLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
		if r >= 0x80 {
			return false
		}
	}
	return true
}

func TestRussianIsLatinOnly(t *testing.T) {
	n := Default()
	out, changed := n.Normalize("Привет, как дела? Щука и Ёжик", "ru-RU")

	if !changed {
		t.Error("Normalize() should report a change")
	}
	if !onlyLatin(out) {
		t.Errorf("Normalize() = %q, contains non-Latin letters", out)
	}
	if !strings.HasPrefix(out, "Privet, kak dela?") {
		t.Errorf("Normalize() = %q", out)
	}
	if !strings.Contains(out, "Shchuka") || !strings.Contains(out, "Yozhik") {
		t.Errorf("Normalize() = %q, want capitalised digraphs", out)
	}
}

func TestUkrainianScheme(t *testing.T) {
	n := Default()
	out, _ := n.Normalize("Гарна їжа", "uk-UA")
	if out != "Harna yizha" {
		t.Errorf("Normalize() = %q, want %q", out, "Harna yizha")
	}

	// The same text under Russian rules reads г as g.
	out, _ = n.Normalize("Гарна", "ru-RU")
	if out != "Garna" {
		t.Errorf("Normalize() = %q, want %q", out, "Garna")
	}
}

func TestAllCapsWord(t *testing.T) {
	out := russian.transliterate("ЩИ и Щи")
	if out != "SHCHI i Shchi" {
		t.Errorf("transliterate() = %q", out)
	}
}

func TestKanaToHepburn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"コンニチハ", "konnichiha"},
		{"トウキョウ", "toukyou"},
		{"きって", "kitte"},
		{"マッチ", "matchi"},
		{"コーヒー", "koohii"},
		{"シャシン", "shashin"},
		{"ジュース", "juusu"},
		{"ファイル", "fairu"},
		{"abc", "abc"},
		{"。", "."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := kanaToHepburn(tt.in); got != tt.want {
				t.Errorf("kanaToHepburn(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJapaneseRomanized(t *testing.T) {
	n := Default()
	out, changed := n.Normalize("私は学生です。", "ja-JP")

	if !changed {
		t.Error("Normalize() should report a change")
	}
	if !isASCII(out) {
		t.Errorf("Normalize() = %q, want ASCII", out)
	}
	for _, word := range []string{"watashi", "gakusei", "desu."} {
		if !strings.Contains(out, word) {
			t.Errorf("Normalize() = %q, missing %q", out, word)
		}
	}
}

func TestFallback(t *testing.T) {
	n := Default()

	out, changed := n.Normalize("hello there", "en-US")
	if changed || out != "hello there" {
		t.Errorf("ASCII text = %q, %v, want unchanged", out, changed)
	}

	out, changed = n.Normalize("Crème brûlée", "fr-FR")
	if !changed || out != "Creme brulee" {
		t.Errorf("Normalize() = %q, %v, want %q", out, changed, "Creme brulee")
	}

	// Russian text under a non-Russian language uses the generic fallback.
	out, _ = n.Normalize("да", "en-US")
	if !isASCII(out) {
		t.Errorf("Normalize() = %q, want ASCII", out)
	}
}

func TestRuleFor(t *testing.T) {
	n := Default()
	tests := []struct {
		lang string
		want string
	}{
		{"ru-RU", "ru"},
		{"ru", "fallback"},
		{"uk-UA", "uk"},
		{"ja-JP", "ja"},
		{"ja", "ja"},
		{"en-US", "fallback"},
	}
	for _, tt := range tests {
		if got := n.RuleFor(tt.lang); got != tt.want {
			t.Errorf("RuleFor(%q) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}

func TestCustomRuleOrder(t *testing.T) {
	n := New(
		Rule{Name: "first", Match: func(string) bool { return true }, Apply: strings.ToUpper},
		Rule{Name: "second", Match: func(string) bool { return true }, Apply: strings.ToLower},
	)
	if out, _ := n.Normalize("MiXeD", "xx"); out != "MIXED" {
		t.Errorf("Normalize() = %q, want first rule to win", out)
	}
}
