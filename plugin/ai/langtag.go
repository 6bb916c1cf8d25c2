package ai

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/omadigital23/assistant/store"
)

// languageTagPattern matches "[en]", "[lang:fr]" and "[ lang: EN ]" at the start of a reply.
var languageTagPattern = regexp.MustCompile(`^\s*\[\s*(?:lang\s*:)?\s*([a-zA-Z]{2})\s*\]\s*`)

// ParseLanguageTag strips the leading language tag of text. A missing,
// malformed or unsupported tag yields fallback; a well-formed tag is stripped
// even when its language is unsupported.
func ParseLanguageTag(text string, fallback store.Language) (store.Language, string) {
	m := languageTagPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return fallback, strings.TrimSpace(text)
	}
	rest := strings.TrimSpace(text[m[1]:])
	if lang, ok := store.ParseLanguage(text[m[2]:m[3]]); ok {
		return lang, rest
	}
	return fallback, rest
}

// LanguageTagInstruction tells the model how to prefix its answer.
func LanguageTagInstruction() string {
	return `Start your answer with a language tag, "[lang:fr]" or "[lang:en]", matching the language of your answer.`
}

// TruncateSentences keeps the first max sentences of text. A sentence ends at
// '.', '!', '?' or '…' followed by whitespace or the end of text; list
// numbering such as "1." at the start of a line does not end a sentence. max <= 0 keeps everything.
func TruncateSentences(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 0 || text == "" {
		return text
	}
	runes := []rune(text)
	count := 0
	wordStart := 0
	for i, r := range runes {
		if unicode.IsSpace(r) {
			wordStart = i + 1
			continue
		}
		if !isTerminator(r) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) && !isTerminator(runes[i+1]) {
			continue
		}
		if i+1 < len(runes) && isTerminator(runes[i+1]) {
			// "?!" and "..." end once, at their last rune.
			continue
		}
		if r == '.' && startsLine(runes, wordStart) && isNumber(runes[wordStart:i]) {
			continue
		}
		count++
		if count == max {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}
	return text
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isNumber(word []rune) bool {
	if len(word) == 0 {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func startsLine(runes []rune, i int) bool {
	return i == 0 || runes[i-1] == '\n'
}
