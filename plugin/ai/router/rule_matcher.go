package router

import (
	"strings"

	"github.com/omadigital23/assistant/server/queryengine"
	"github.com/omadigital23/assistant/store"
)

// Trigger is a phrase, accent-stripped and lowercase, with its weight.
// Multi-word phrases match on word boundaries.
type Trigger struct {
	Phrase string
	Weight int
}

// TriggerTable holds the triggers of every intent per language.
type TriggerTable map[Intent]map[store.Language][]Trigger

// ConfidenceDivisor normalizes a matched weight into [0,1].
const ConfidenceDivisor = 5

// DefaultTriggers is the built-in table.
var DefaultTriggers = TriggerTable{
	IntentPricing: {
		store.LanguageEnglish: {
			{"price", 3}, {"prices", 3}, {"pricing", 3}, {"cost", 3}, {"costs", 3}, {"how much", 3},
			{"quote", 2}, {"budget", 2}, {"cheap", 2}, {"expensive", 2}, {"fee", 2}, {"fees", 2}, {"rate", 1}, {"rates", 1},
		},
		store.LanguageFrench: {
			{"prix", 3}, {"tarif", 3}, {"tarifs", 3}, {"cout", 3}, {"couts", 3}, {"combien", 3},
			{"devis", 2}, {"budget", 2}, {"cher", 2}, {"coute", 2}, {"payer", 1},
		},
	},
	IntentContact: {
		store.LanguageEnglish: {
			{"contact", 3}, {"whatsapp", 3}, {"phone", 2}, {"email", 2}, {"call", 2}, {"reach", 2},
			{"address", 2}, {"talk to", 2}, {"get in touch", 3},
		},
		store.LanguageFrench: {
			{"contact", 3}, {"contacter", 3}, {"whatsapp", 3}, {"telephone", 2}, {"email", 2}, {"appeler", 2},
			{"joindre", 2}, {"adresse", 2}, {"parler a", 2},
		},
	},
	IntentDemo: {
		store.LanguageEnglish: {
			{"demo", 3}, {"demonstration", 3}, {"trial", 2}, {"show me", 2}, {"try", 1},
		},
		store.LanguageFrench: {
			{"demo", 3}, {"demonstration", 3}, {"essai", 2}, {"essayer", 2}, {"tester", 2}, {"montrer", 1},
		},
	},
	IntentServices: {
		store.LanguageEnglish: {
			{"services", 2}, {"service", 2}, {"offer", 2}, {"offers", 2}, {"what do you do", 3},
			{"website", 2}, {"chatbot", 2}, {"marketing", 2}, {"seo", 2}, {"web", 1}, {"app", 1}, {"application", 1},
		},
		store.LanguageFrench: {
			{"services", 2}, {"service", 2}, {"offre", 2}, {"offres", 2}, {"que faites", 3}, {"prestations", 2},
			{"site", 2}, {"chatbot", 2}, {"marketing", 2}, {"referencement", 2}, {"web", 1}, {"application", 1},
		},
	},
	IntentTechnical: {
		store.LanguageEnglish: {
			{"technology", 2}, {"stack", 2}, {"integration", 2}, {"api", 2}, {"hosting", 2},
			{"security", 2}, {"maintenance", 2}, {"support", 1},
		},
		store.LanguageFrench: {
			{"technologie", 2}, {"integration", 2}, {"api", 2}, {"hebergement", 2},
			{"securite", 2}, {"maintenance", 2}, {"support", 1},
		},
	},
	IntentAbout: {
		store.LanguageEnglish: {
			{"who are you", 3}, {"about you", 3}, {"company", 2}, {"team", 2}, {"experience", 2},
			{"located", 2}, {"history", 2},
		},
		store.LanguageFrench: {
			{"qui etes", 3}, {"propos", 2}, {"entreprise", 2}, {"equipe", 2}, {"experience", 2},
			{"situe", 2}, {"histoire", 2},
		},
	},
}

// RuleMatcher implements deterministic, table-driven intent matching.
type RuleMatcher struct {
	triggers TriggerTable
}

// NewRuleMatcher creates a new rule matcher over the given table.
func NewRuleMatcher(triggers TriggerTable) *RuleMatcher {
	if triggers == nil {
		triggers = DefaultTriggers
	}
	return &RuleMatcher{triggers: triggers}
}

// Match classifies q. The highest cumulative weight wins; a tie at the top
// or no match at all yields IntentGeneral with zero confidence.
func (m *RuleMatcher) Match(q *queryengine.NormalizedQuery) Classification {
	langs := store.SupportedLanguages
	if q.Language != "" {
		langs = []store.Language{q.Language}
	}
	padded := " " + q.Text + " "

	result := Classification{
		Intent: IntentGeneral,
		Scores: make(map[Intent]int),
	}
	best, tie := 0, false
	for _, intent := range Intents {
		score := m.calculateScore(padded, intent, langs)
		if score == 0 {
			continue
		}
		result.Scores[intent] = score
		if intent == IntentPricing {
			result.PriceQuery = true
		}
		switch {
		case score > best:
			best, tie = score, false
			result.Intent = intent
		case score == best:
			tie = true
		}
	}

	if tie {
		result.Intent = IntentGeneral
		return result
	}
	result.Confidence = normalizeConfidence(best, ConfidenceDivisor)
	return result
}

// calculateScore sums the weights of the triggers of intent present in padded.
// A phrase shared by both languages counts once.
func (m *RuleMatcher) calculateScore(padded string, intent Intent, langs []store.Language) int {
	seen := make(map[string]bool)
	score := 0
	for _, lang := range langs {
		for _, trig := range m.triggers[intent][lang] {
			if seen[trig.Phrase] {
				continue
			}
			if strings.Contains(padded, " "+trig.Phrase+" ") {
				seen[trig.Phrase] = true
				score += trig.Weight
			}
		}
	}
	return score
}

// normalizeConfidence normalizes score to 0-1 confidence range.
func normalizeConfidence(score, divisor int) float64 {
	if score >= divisor {
		return 1
	}
	return float64(score) / float64(divisor)
}
