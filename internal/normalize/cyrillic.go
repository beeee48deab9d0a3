package normalize

import (
	"strings"
	"unicode"
)

// cyrillicScheme maps lower-case Cyrillic letters to ASCII Latin.
type cyrillicScheme map[rune]string

var russian = cyrillicScheme{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

var ukrainian = cyrillicScheme{
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d", 'е': "e",
	'є': "ye", 'ж': "zh", 'з': "z", 'и': "y", 'і': "i", 'ї': "yi", 'й': "j",
	'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r",
	'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ь': "", 'ю': "yu", 'я': "ya", '’': "'",
}

func (s cyrillicScheme) transliterate(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	runes := []rune(text)
	for i, r := range runes {
		lower := unicode.ToLower(r)
		latin, ok := s[lower]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if lower == r || latin == "" {
			b.WriteString(latin)
			continue
		}
		// An all-caps word keeps all caps; otherwise only the first letter is upper.
		if allCapsAround(runes, i) {
			b.WriteString(strings.ToUpper(latin))
		} else {
			b.WriteString(strings.ToUpper(latin[:1]) + latin[1:])
		}
	}
	return b.String()
}

func allCapsAround(runes []rune, i int) bool {
	neighbour := func(j int) (rune, bool) {
		if j < 0 || j >= len(runes) || !unicode.IsLetter(runes[j]) {
			return 0, false
		}
		return runes[j], true
	}
	if r, ok := neighbour(i + 1); ok {
		return unicode.IsUpper(r)
	}
	if r, ok := neighbour(i - 1); ok {
		return unicode.IsUpper(r)
	}
	return false
}
