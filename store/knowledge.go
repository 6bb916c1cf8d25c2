package store

import (
	"strings"
	"unicode/utf8"
)

// Language is one of the closed set of languages the knowledge base is written in.
type Language string

const (
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
)

// SupportedLanguages lists every language the core can retrieve and answer in.
var SupportedLanguages = []Language{LanguageFrench, LanguageEnglish}

// ParseLanguage maps a loosely formatted tag ("EN", " fr-FR ") to a supported language.
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > 2 {
		s = s[:2]
	}
	switch Language(s) {
	case LanguageFrench:
		return LanguageFrench, true
	case LanguageEnglish:
		return LanguageEnglish, true
	default:
		return "", false
	}
}

// Category tags a knowledge entry with the business area it describes.
type Category string

const (
	CategoryServices  Category = "services"
	CategoryPricing   Category = "pricing"
	CategoryContact   Category = "contact"
	CategoryAbout     Category = "about"
	CategoryTechnical Category = "technical"
	CategoryDemo      Category = "demo"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryServices,
	CategoryPricing,
	CategoryContact,
	CategoryAbout,
	CategoryTechnical,
	CategoryDemo,
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MaxContentLength bounds the content of a single knowledge entry, in characters.
const MaxContentLength = 2000

// KnowledgeEntry is a retrievable fact record.
type KnowledgeEntry struct {
	ID       string
	Title    string
	Content  string
	Category Category
	Language Language
	// Keywords are stored folded (see Fold), the form the normalizer produces.
	Keywords []string
	Active   bool

	CreatedTs int64
	UpdatedTs int64
}

// Validate checks the invariants a stored entry must hold.
func (e *KnowledgeEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEntryIDRequired
	}
	if _, ok := ParseLanguage(string(e.Language)); !ok {
		return ErrEntryLanguageInvalid
	}
	if !e.Category.IsValid() {
		return ErrEntryCategoryInvalid
	}
	if utf8.RuneCountInString(e.Content) > MaxContentLength {
		return ErrEntryContentTooLong
	}
	return nil
}

// FindKnowledge filters a knowledge listing.
type FindKnowledge struct {
	Language   *Language
	Category   *Category
	ActiveOnly bool
}

// FullTextSearch is a relevance search over title and content.
type FullTextSearch struct {
	Text string
	// Language restricts results; nil searches every language.
	Language *Language
	Limit    int
}

// KeywordSearch matches entries whose keyword array overlaps Keywords.
type KeywordSearch struct {
	Keywords []string
	Language *Language
	Limit    int
}

// CategorySearch lists active entries in one category.
type CategorySearch struct {
	Category Category
	Language *Language
	Limit    int
}
