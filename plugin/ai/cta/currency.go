package cta

import (
	"regexp"
	"strings"
)

// currencyWords are the currency names an amount may carry. A lone "F" is the
// usual shorthand for the CFA franc.
const currencyWords = `(?:euros?|eur|usd|dollars?|f\s?cfa|fcfa|cfa|xof|francs?|f)\b`

// magnitude is an optional scale between the figure and the currency, with
// the French "de"/"d'" that may follow it.
const magnitude = `(?:(?:milliards?|millions?|mille|billions?|thousands?|mds?|k|m)\s?)?(?:(?:de|d['’])\s?)?`

// currencyPattern matches "150 000 FCFA", "1.500€", "200k$", "$200", "XOF 30 000",
// "1,5 million FCFA", "2 millions de FCFA", "5 mille euros".
var currencyPattern = regexp.MustCompile(`(?i)` +
	`\d[\d\s.,]*\s?` + magnitude + `(?:€|\$|£|` + currencyWords + `)` +
	`|(?:€|\$|£|\b(?:eur|usd|fcfa|xof)\b)\s?\d[\d\s.,]*`,
)

// ContainsCurrency reports whether text holds a currency amount.
func ContainsCurrency(text string) bool {
	return currencyPattern.MatchString(text)
}

// StripCurrency drops every sentence holding a currency amount, then removes
// any amount left in what remains. The result never matches currencyPattern.
func StripCurrency(text string) string {
	if !ContainsCurrency(text) {
		return text
	}
	var kept []string
	for _, sentence := range splitSentences(text) {
		if !ContainsCurrency(sentence) {
			kept = append(kept, sentence)
		}
	}
	out := strings.Join(kept, " ")
	for ContainsCurrency(out) {
		out = currencyPattern.ReplaceAllString(out, "")
	}
	return strings.Join(strings.Fields(out), " ")
}

// splitSentences splits on terminators followed by whitespace, and on newlines.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		end := false
		switch r {
		case '\n':
			end = true
		case '.', '!', '?', '…':
			end = i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n'
		}
		if !end {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
