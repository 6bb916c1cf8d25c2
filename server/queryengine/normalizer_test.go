package queryengine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadigital23/assistant/store"
)

func TestStripAccents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Créé à Dakar", "Cree a Dakar"},
		{"déjà vu", "deja vu"},
		{"français ÇA", "francais CA"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripAccents(tt.in))
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "are", "your", "services"}, Tokenize("What are your services?"))
	assert.Equal(t, []string{"l", "offre", "a", "propos", "du", "site"}, Tokenize("L'offre à propos du site!"))
	assert.Empty(t, Tokenize("  \t\n "))
}

func TestNormalize_English(t *testing.T) {
	n := NewNormalizer(nil, store.LanguageFrench)

	q := n.Normalize("What are your services?", store.LanguageEnglish)

	assert.Equal(t, "What are your services?", q.Original)
	assert.Equal(t, "what are your services", q.Text)
	assert.Equal(t, store.LanguageEnglish, q.Language)
	assert.Equal(t, store.LanguageEnglish, q.DetectedLanguage)
	require.NotEmpty(t, q.Keywords)
	assert.Equal(t, "services", q.Keywords[0], "stems come first")
	assert.Contains(t, q.Keywords, "service")
	assert.Contains(t, q.Keywords, "offer")
	assert.NotContains(t, q.Keywords, "what")
	assert.NotContains(t, q.Keywords, "your")
	assert.False(t, q.Empty())
}

func TestNormalize_FrenchWithAccents(t *testing.T) {
	n := NewNormalizer(nil, store.LanguageEnglish)

	q := n.Normalize("Quel est le prix de la création d'un site ?", "")

	assert.Equal(t, store.Language(""), q.Language)
	assert.Equal(t, store.LanguageFrench, q.DetectedLanguage)
	assert.Equal(t, store.LanguageFrench, q.ResponseLanguage())
	assert.Contains(t, q.Keywords, "prix")
	assert.Contains(t, q.Keywords, "creation")
	assert.Contains(t, q.Keywords, "site")
	assert.Contains(t, q.Keywords, "tarif", "french synonyms apply when language is undeclared")
	assert.Contains(t, q.Keywords, "website", "english synonyms apply when language is undeclared")
	assert.NotContains(t, q.Keywords, "prixs", "invariable plural")
}

func TestNormalize_Empty(t *testing.T) {
	n := NewNormalizer(nil, store.LanguageFrench)

	for _, in := range []string{"", "   ", "\t\n", "?!"} {
		q := n.Normalize(in, store.LanguageEnglish)
		assert.True(t, q.Empty(), "%q", in)
		assert.Empty(t, q.Keywords)
	}

	q := n.Normalize("is it for you?", store.LanguageEnglish)
	assert.True(t, q.Empty(), "only stop-words and short tokens")
}

func TestNormalize_KeywordCap(t *testing.T) {
	n := NewNormalizer(nil, store.LanguageEnglish)

	q := n.Normalize("website price contact demo application chatbot company offer", store.LanguageEnglish)
	assert.Len(t, q.Keywords, 15)
	assert.Equal(t, []string{"website", "price", "contact", "demo", "application", "chatbot", "company", "offer"}, q.Keywords[:8])

	seen := map[string]bool{}
	for _, kw := range q.Keywords {
		assert.False(t, seen[kw], "duplicate keyword %s", kw)
		seen[kw] = true
	}
}

func TestNormalize_TruncatesLongInput(t *testing.T) {
	n := NewNormalizer(nil, store.LanguageEnglish)
	q := n.Normalize(strings.Repeat("website ", 1000), store.LanguageEnglish)
	assert.LessOrEqual(t, len(q.Text), 500)
}

func TestNumberVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"services", []string{"service"}},
		{"service", []string{"services"}},
		{"companies", []string{"company"}},
		{"company", []string{"companies"}},
		{"day", []string{"days"}},
		{"business", []string{"businesses"}},
		{"prix", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, numberVariants(tt.in), tt.in)
	}
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultConfig()))

	cfg := DefaultConfig()
	cfg.QueryLimits.MaxKeywords = 0
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QueryLimits.MaxKeywords")
}
