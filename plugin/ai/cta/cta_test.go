package cta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/store"
)

func TestContainsCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Un site vitrine coûte 150 000 FCFA.", true},
		{"It starts at 1.500€ per month.", true},
		{"Only $200!", true},
		{"Budget: 200k$", true},
		{"Comptez XOF 30 000 environ.", true},
		{"Around 300 euros", true},
		{"150000fcfa", true},
		{"Our e-commerce sites start at 1,5 million FCFA.", true},
		{"Comptez 2 millions de FCFA pour une boutique.", true},
		{"Environ 5 mille euros.", true},
		{"About 2 thousand dollars", true},
		{"Un logo coûte 50 000 F.", true},
		{"Prévoir 75 000 F CFA.", true},
		{"Un budget de 3 millions d'euros", true},
		{"1,2 milliard de francs", true},
		{"Livraison en 5 jours, 2 fois plus vite.", false},
		{"We have 2 million visitors a year.", false},
		{"We answer within 24 hours.", false},
		{"Call +221 77 123 45 67.", false},
		{"We work with 12 francophone clients.", false},
		{"Our eurasian partners", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsCurrency(tt.in), tt.in)
	}
}

func TestStripCurrency(t *testing.T) {
	in := "We build websites. A landing page costs 150 000 FCFA. Delivery takes two weeks."
	out := StripCurrency(in)
	assert.Equal(t, "We build websites. Delivery takes two weeks.", out)
	assert.False(t, ContainsCurrency(out))

	assert.Equal(t, "no amounts here", StripCurrency("no amounts here"))
	assert.False(t, ContainsCurrency(StripCurrency("€5 €6 $7 8 USD")))
}

func TestProcessor_StripsAmountsWithMagnitudeWords(t *testing.T) {
	p := NewProcessor(nil)
	cls := router.Classification{Intent: router.IntentServices}

	drafts := []string{
		"Our e-commerce sites start at 1,5 million FCFA.",
		"Comptez 2 millions de FCFA pour une boutique en ligne.",
		"Une application mobile revient à 5 mille euros.",
		"Un logo coûte 50 000 F.",
	}
	for _, text := range drafts {
		got := p.Apply(Draft{Text: text}, cls, store.LanguageFrench)
		assert.False(t, ContainsCurrency(got.Text), got.Text)
		for _, token := range []string{"FCFA", "euros", "million", " F."} {
			assert.NotContains(t, got.Text, token, text)
		}
	}
}

func TestHasCTAMarker(t *testing.T) {
	assert.True(t, HasCTAMarker("Here is what we do:\n\n- websites\n- chatbots"))
	assert.True(t, HasCTAMarker("1. Call us\n2. Get a demo"))
	assert.True(t, HasCTAMarker("Great question → write to us"))
	assert.False(t, HasCTAMarker("We build websites and chatbots."))
	assert.False(t, HasCTAMarker("Contactez-nous - nous répondons vite."))
}

func TestProcessor_PriceQuestion(t *testing.T) {
	p := NewProcessor(map[Action]string{ActionQuote: "https://wa.me/221770000000"})
	cls := router.Classification{Intent: router.IntentPricing, PriceQuery: true}

	got := p.Apply(Draft{Text: "A website costs 300 000 FCFA. It includes hosting."}, cls, store.LanguageEnglish)

	assert.False(t, ContainsCurrency(got.Text))
	assert.Contains(t, got.Text, "It includes hosting.")
	assert.Contains(t, got.Text, ValueFraming(store.LanguageEnglish))
	require.NotNil(t, got.CTA)
	assert.Equal(t, ActionQuote, got.CTA.Action)
	assert.Contains(t, labels[ActionQuote][store.LanguageEnglish], got.CTA.Label)
	assert.True(t, strings.HasSuffix(got.Text, arrow+got.CTA.Label))
	assert.Equal(t, "https://wa.me/221770000000", got.CTA.Payload["target"])
	assert.Equal(t, "pricing", got.CTA.Payload["intent"])
}

func TestProcessor_PriceTriggerOverridesIntent(t *testing.T) {
	p := NewProcessor(nil)
	cls := router.Classification{Intent: router.IntentGeneral, PriceQuery: true}

	got := p.Apply(Draft{Text: "Nous créons des sites."}, cls, store.LanguageFrench)
	assert.Equal(t, ActionQuote, got.CTA.Action)
	assert.Contains(t, got.Text, ValueFraming(store.LanguageFrench))
}

func TestProcessor_NoDuplicateCTA(t *testing.T) {
	p := NewProcessor(nil)
	cls := router.Classification{Intent: router.IntentServices}
	text := "We offer:\n\n- websites\n- chatbots"

	got := p.Apply(Draft{Text: text}, cls, store.LanguageEnglish)
	assert.Equal(t, text, got.Text)
	require.NotNil(t, got.CTA, "the structured CTA is still attached")
	assert.Equal(t, ActionDemo, got.CTA.Action)
}

func TestProcessor_RotatesLabelsPerAction(t *testing.T) {
	p := NewProcessor(nil)
	cls := router.Classification{Intent: router.IntentContact}
	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		got := p.Apply(Draft{Text: "Hello."}, cls, store.LanguageEnglish)
		assert.Equal(t, ActionContact, got.CTA.Action)
		seen[got.CTA.Label] = true
	}
	assert.Len(t, seen, len(labels[ActionContact][store.LanguageEnglish]))
}

func TestProcessor_UnknownLanguageFallsBack(t *testing.T) {
	got := NewProcessor(nil).Apply(Draft{Text: ""}, router.Classification{Intent: router.IntentDemo}, "de")
	assert.Equal(t, "fr", got.CTA.Payload["language"])
	assert.Contains(t, labels[ActionDemo][store.LanguageFrench], got.CTA.Label)
}

func TestActionForIsTotal(t *testing.T) {
	for _, intent := range router.Intents {
		action := actionFor(intent)
		assert.NotEmpty(t, labels[action][store.LanguageEnglish], intent)
		assert.NotEmpty(t, labels[action][store.LanguageFrench], intent)
		assert.Len(t, Suggestions(intent, store.LanguageEnglish), MaxSuggestions, intent)
	}
}

func TestLabelsCarryNoAmounts(t *testing.T) {
	for _, byLang := range labels {
		for _, list := range byLang {
			for _, label := range list {
				assert.False(t, ContainsCurrency(label), label)
			}
		}
	}
	for _, framing := range valueFraming {
		assert.False(t, ContainsCurrency(framing), framing)
	}
}
