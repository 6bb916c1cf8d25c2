// Package queryengine turns raw user questions into normalized, keyword-expanded queries.
package queryengine

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/omadigital23/assistant/store"
)

// NormalizedQuery is derived from raw user input once per request.
type NormalizedQuery struct {
	// Original is the raw input.
	Original string
	// Text is the accent-stripped, lowercase, punctuation-free input.
	Text string
	// Keywords is the expanded keyword set: stems first, then variants, then synonyms.
	Keywords []string
	// Language is the language the caller asked for. Empty means every supported language.
	Language store.Language
	// DetectedLanguage is the best guess from the wording, used for phrasing answers.
	DetectedLanguage store.Language
}

// Empty reports whether the query has no searchable content.
func (q *NormalizedQuery) Empty() bool {
	return len(q.Keywords) == 0
}

// ResponseLanguage is the declared language when set, the detected one otherwise.
func (q *NormalizedQuery) ResponseLanguage() store.Language {
	if q.Language != "" {
		return q.Language
	}
	return q.DetectedLanguage
}

// HasKeyword reports whether kw is in the expanded keyword set.
func (q *NormalizedQuery) HasKeyword(kw string) bool {
	for _, k := range q.Keywords {
		if k == kw {
			return true
		}
	}
	return false
}

// Normalizer builds NormalizedQuery values. It is safe for concurrent use.
type Normalizer struct {
	config   *Config
	fallback store.Language
	lexicons map[store.Language]lexicon
}

// NewNormalizer creates a normalizer. fallback is used when the language cannot be detected.
func NewNormalizer(config *Config, fallback store.Language) *Normalizer {
	if config == nil {
		config = DefaultConfig()
	}
	if err := ValidateConfig(config); err != nil {
		config = DefaultConfig()
	}
	if fallback == "" {
		fallback = store.LanguageFrench
	}
	lexicons := make(map[store.Language]lexicon, len(store.SupportedLanguages))
	for _, lang := range store.SupportedLanguages {
		lexicons[lang] = buildLexicon(lang)
	}
	return &Normalizer{
		config:   config,
		fallback: fallback,
		lexicons: lexicons,
	}
}

// StripAccents removes diacritics: "Créé à Dakar" becomes "Cree a Dakar".
func StripAccents(s string) string {
	return store.StripAccents(s)
}

// Tokenize lowercases, strips accents and splits on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(StripAccents(s)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalize builds the normalized query. An empty language means "not declared".
// Blank input yields an empty keyword set; it is not an error.
func (n *Normalizer) Normalize(text string, language store.Language) *NormalizedQuery {
	q := &NormalizedQuery{
		Original: text,
		Language: language,
		Keywords: []string{},
	}

	if limit := n.config.QueryLimits.MaxQueryLength; utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}

	tokens := Tokenize(text)
	q.Text = strings.Join(tokens, " ")
	q.DetectedLanguage = n.detectLanguage(text, tokens)
	if len(tokens) == 0 {
		return q
	}

	// Declared language picks one stop-word list; otherwise both apply.
	lexLangs := store.SupportedLanguages
	if language != "" {
		lexLangs = []store.Language{language}
	}

	var stems []string
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < n.config.QueryLimits.MinTokenLength {
			continue
		}
		if n.isStopWord(tok, lexLangs) {
			continue
		}
		stems = append(stems, tok)
	}

	var variants, synonyms []string
	for _, stem := range stems {
		variants = append(variants, numberVariants(stem)...)
		for _, lang := range lexLangs {
			for _, base := range append([]string{stem}, numberVariants(stem)...) {
				synonyms = append(synonyms, n.lexicons[lang].synonyms[base]...)
			}
		}
	}

	q.Keywords = capKeywords(n.config.QueryLimits.MaxKeywords, stems, variants, synonyms)
	return q
}

func (n *Normalizer) isStopWord(tok string, langs []store.Language) bool {
	for _, lang := range langs {
		if n.lexicons[lang].stop[tok] {
			return true
		}
	}
	return false
}

// detectLanguage counts stop-word hits per language; French diacritics add one vote.
func (n *Normalizer) detectLanguage(raw string, tokens []string) store.Language {
	votes := map[store.Language]int{}
	for _, tok := range tokens {
		for _, lang := range store.SupportedLanguages {
			if n.lexicons[lang].stop[tok] {
				votes[lang]++
			}
		}
	}
	if strings.ContainsAny(strings.ToLower(raw), "éèêàâçùûôîïë") {
		votes[store.LanguageFrench]++
	}

	best, bestVotes, tie := n.fallback, 0, false
	for _, lang := range store.SupportedLanguages {
		switch {
		case votes[lang] > bestVotes:
			best, bestVotes, tie = lang, votes[lang], false
		case votes[lang] == bestVotes && bestVotes > 0:
			tie = true
		}
	}
	if bestVotes == 0 || tie {
		return n.fallback
	}
	return best
}

// numberVariants toggles the plural suffix of a token.
func numberVariants(tok string) []string {
	switch {
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		return []string{strings.TrimSuffix(tok, "ies") + "y"}
	case strings.HasSuffix(tok, "y") && len(tok) > 3 && !isVowel(tok[len(tok)-2]):
		return []string{strings.TrimSuffix(tok, "y") + "ies"}
	case strings.HasSuffix(tok, "ss"):
		return []string{tok + "es"}
	case strings.HasSuffix(tok, "s") && len(tok) > 3:
		return []string{strings.TrimSuffix(tok, "s")}
	case strings.HasSuffix(tok, "x") || strings.HasSuffix(tok, "z"):
		// French invariable plurals (prix, devis-like forms).
		return nil
	default:
		return []string{tok + "s"}
	}
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}

// capKeywords merges the groups in priority order, deduplicated, up to limit entries.
func capKeywords(limit int, groups ...[]string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	for _, group := range groups {
		for _, kw := range group {
			if len(out) >= limit {
				return out
			}
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return out
}
