package store

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes diacritics: "Créé à Dakar" becomes "Cree a Dakar".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold is the comparison form of stored and queried text: trimmed, lowercase, accent-free.
func Fold(s string) string {
	return strings.ToLower(StripAccents(strings.TrimSpace(s)))
}

// FoldKeywords folds every keyword, dropping blanks and duplicates. Order is kept.
func FoldKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = Fold(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// SearchText is the folded title and content that lexical search matches against.
func (e *KnowledgeEntry) SearchText() string {
	return Fold(e.Title + " " + e.Content)
}
