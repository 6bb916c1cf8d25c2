package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	input := `
entries:
  - id: svc-web-en
    title: Website development
    content: We build fast, mobile-first websites.
    category: services
    language: EN
    keywords: [website, web, development]
  - id: contact-fr
    title: Nous contacter
    content: Ecrivez-nous sur WhatsApp.
    category: contact
    language: fr
    keywords: [Téléphone, WhatsApp, téléphone]
    active: false
`
	entries, err := ParseSeed(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "svc-web-en", entries[0].ID)
	assert.Equal(t, LanguageEnglish, entries[0].Language)
	assert.Equal(t, CategoryServices, entries[0].Category)
	assert.True(t, entries[0].Active)
	assert.Equal(t, []string{"website", "web", "development"}, entries[0].Keywords)

	assert.False(t, entries[1].Active)
	assert.Equal(t, []string{"telephone", "whatsapp"}, entries[1].Keywords)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{
			name:  "missing id",
			input: "entries:\n  - title: x\n    category: services\n    language: en\n",
			err:   ErrEntryIDRequired,
		},
		{
			name:  "unknown language",
			input: "entries:\n  - id: a\n    category: services\n    language: de\n",
			err:   ErrEntryLanguageInvalid,
		},
		{
			name:  "unknown category",
			input: "entries:\n  - id: a\n    category: weather\n    language: en\n",
			err:   ErrEntryCategoryInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseSeed_Empty(t *testing.T) {
	entries, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"fr", LanguageFrench, true},
		{" EN ", LanguageEnglish, true},
		{"fr-FR", LanguageFrench, true},
		{"de", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLanguage(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
