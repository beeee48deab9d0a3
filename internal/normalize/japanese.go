package normalize

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/mozillazg/go-unidecode"
)

var (
	tokenizerOnce sync.Once
	jaTokenizer   *tokenizer.Tokenizer
)

// The IPA dictionary is large; load it the first time Japanese text shows up.
func japaneseTokenizer() *tokenizer.Tokenizer {
	tokenizerOnce.Do(func() {
		t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		if err != nil {
			slog.Error("japanese tokenizer unavailable", "error", err)
			return
		}
		jaTokenizer = t
	})
	return jaTokenizer
}

// Romanize converts Japanese text to Hepburn romaji, one word per token.
func Romanize(text string) string {
	t := japaneseTokenizer()
	if t == nil {
		return unidecode.Unidecode(text)
	}

	var words []string
	for _, tok := range t.Tokenize(text) {
		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		reading, ok := tok.Reading()
		if !ok || reading == "" || reading == "*" {
			reading = tok.Surface
		}
		word := kanaToHepburn(reading)
		if !isASCII(word) {
			word = unidecode.Unidecode(word)
		}
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		if isPunct(word) && len(words) > 0 {
			words[len(words)-1] += word
			continue
		}
		words = append(words, word)
	}
	return strings.Join(words, " ")
}

func isPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}

// kanaToHepburn romanizes hiragana and katakana. Other runes pass through,
// with full-width Japanese punctuation mapped to ASCII.
func kanaToHepburn(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'ぁ' && r <= 'ゖ' {
			runes[i] = r + ('ァ' - 'ぁ')
		}
	}

	var b strings.Builder
	geminate := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == 'ッ' {
			geminate = true
			continue
		}
		if r == 'ー' {
			if v := lastVowel(b.String()); v != 0 {
				b.WriteByte(v)
			}
			continue
		}

		var syl string
		if i+1 < len(runes) {
			if s, ok := katakana[string(runes[i:i+2])]; ok {
				syl = s
				i++
			}
		}
		if syl == "" {
			if s, ok := katakana[string(r)]; ok {
				syl = s
			} else if p, ok := punctuation[r]; ok {
				syl = p
			} else {
				syl = string(r)
			}
		}

		if geminate {
			geminate = false
			switch {
			case strings.HasPrefix(syl, "ch"):
				b.WriteByte('t')
			case syl != "" && isConsonant(syl[0]):
				b.WriteByte(syl[0])
			}
		}
		b.WriteString(syl)
	}
	return b.String()
}

func isConsonant(c byte) bool {
	return c >= 'a' && c <= 'z' && !strings.ContainsRune("aeiou", rune(c))
}

// lastVowel returns the vowel a long-vowel mark extends, or 0.
func lastVowel(s string) byte {
	if s == "" || strings.IndexByte("aeiou", s[len(s)-1]) < 0 {
		return 0
	}
	return s[len(s)-1]
}

var punctuation = map[rune]string{
	'。': ".", '、': ",", '！': "!", '？': "?", '「': "\"", '」': "\"",
	'『': "\"", '』': "\"", '（': "(", '）': ")", '・': " ", '〜': "~",
	'～': "~", '：': ":", '；': ";", '　': " ",
}

var katakana = map[string]string{
	"ア": "a", "イ": "i", "ウ": "u", "エ": "e", "オ": "o",
	"カ": "ka", "キ": "ki", "ク": "ku", "ケ": "ke", "コ": "ko",
	"サ": "sa", "シ": "shi", "ス": "su", "セ": "se", "ソ": "so",
	"タ": "ta", "チ": "chi", "ツ": "tsu", "テ": "te", "ト": "to",
	"ナ": "na", "ニ": "ni", "ヌ": "nu", "ネ": "ne", "ノ": "no",
	"ハ": "ha", "ヒ": "hi", "フ": "fu", "ヘ": "he", "ホ": "ho",
	"マ": "ma", "ミ": "mi", "ム": "mu", "メ": "me", "モ": "mo",
	"ヤ": "ya", "ユ": "yu", "ヨ": "yo",
	"ラ": "ra", "リ": "ri", "ル": "ru", "レ": "re", "ロ": "ro",
	"ワ": "wa", "ヰ": "i", "ヱ": "e", "ヲ": "o", "ン": "n",
	"ガ": "ga", "ギ": "gi", "グ": "gu", "ゲ": "ge", "ゴ": "go",
	"ザ": "za", "ジ": "ji", "ズ": "zu", "ゼ": "ze", "ゾ": "zo",
	"ダ": "da", "ヂ": "ji", "ヅ": "zu", "デ": "de", "ド": "do",
	"バ": "ba", "ビ": "bi", "ブ": "bu", "ベ": "be", "ボ": "bo",
	"パ": "pa", "ピ": "pi", "プ": "pu", "ペ": "pe", "ポ": "po",
	"ヴ": "vu",
	"ァ": "a", "ィ": "i", "ゥ": "u", "ェ": "e", "ォ": "o",
	"ャ": "ya", "ュ": "yu", "ョ": "yo", "ヮ": "wa",

	"キャ": "kya", "キュ": "kyu", "キョ": "kyo",
	"シャ": "sha", "シュ": "shu", "ショ": "sho", "シェ": "she",
	"チャ": "cha", "チュ": "chu", "チョ": "cho", "チェ": "che",
	"ニャ": "nya", "ニュ": "nyu", "ニョ": "nyo",
	"ヒャ": "hya", "ヒュ": "hyu", "ヒョ": "hyo",
	"ミャ": "mya", "ミュ": "myu", "ミョ": "myo",
	"リャ": "rya", "リュ": "ryu", "リョ": "ryo",
	"ギャ": "gya", "ギュ": "gyu", "ギョ": "gyo",
	"ジャ": "ja", "ジュ": "ju", "ジョ": "jo", "ジェ": "je",
	"ヂャ": "ja", "ヂュ": "ju", "ヂョ": "jo",
	"ビャ": "bya", "ビュ": "byu", "ビョ": "byo",
	"ピャ": "pya", "ピュ": "pyu", "ピョ": "pyo",
	"ティ": "ti", "ディ": "di", "トゥ": "tu", "ドゥ": "du",
	"ファ": "fa", "フィ": "fi", "フェ": "fe", "フォ": "fo",
	"ウィ": "wi", "ウェ": "we", "ウォ": "wo",
	"ヴァ": "va", "ヴィ": "vi", "ヴェ": "ve", "ヴォ": "vo",
	"ツァ": "tsa", "ツェ": "tse", "ツォ": "tso",
}
