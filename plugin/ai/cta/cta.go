// Package cta enforces the business policy on final answers: no literal
// prices, a value-framing sentence on price questions and a call to action.
package cta

import (
	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/store"
)

// Action is what a call to action asks the user to do.
type Action string

const (
	ActionContact Action = "contact"
	ActionDemo    Action = "demo"
	ActionQuote   Action = "quote"
)

// CTA is the structured call to action attached to an answer.
type CTA struct {
	Action  Action            `json:"action"`
	Label   string            `json:"label"`
	Payload map[string]string `json:"payload,omitempty"`
}

// actionFor is exhaustive over router.Intents.
func actionFor(intent router.Intent) Action {
	switch intent {
	case router.IntentPricing:
		return ActionQuote
	case router.IntentDemo, router.IntentServices:
		return ActionDemo
	case router.IntentContact, router.IntentTechnical, router.IntentAbout, router.IntentGeneral:
		return ActionContact
	default:
		return ActionContact
	}
}

// labels holds the CTA sentences per action and language. They carry no amounts.
var labels = map[Action]map[store.Language][]string{
	ActionQuote: {
		store.LanguageEnglish: {
			"Ask us for a free, tailored quote on WhatsApp.",
			"Tell us about your project and get a free quote within 24 hours.",
		},
		store.LanguageFrench: {
			"Demandez-nous un devis gratuit et personnalisé sur WhatsApp.",
			"Parlez-nous de votre projet et recevez un devis gratuit sous 24 heures.",
		},
	},
	ActionDemo: {
		store.LanguageEnglish: {
			"Book a free demo and see it working for your business.",
			"Want to see it live? Ask for a free demo.",
		},
		store.LanguageFrench: {
			"Réservez une démo gratuite et voyez le résultat pour votre activité.",
			"Envie de le voir en action ? Demandez une démo gratuite.",
		},
	},
	ActionContact: {
		store.LanguageEnglish: {
			"Contact us on WhatsApp, we reply quickly.",
			"Write to us and a team member will get back to you today.",
		},
		store.LanguageFrench: {
			"Contactez-nous sur WhatsApp, nous répondons rapidement.",
			"Écrivez-nous et un membre de l'équipe vous répond dans la journée.",
		},
	},
}

// valueFraming replaces any price talk on price questions.
var valueFraming = map[store.Language]string{
	store.LanguageEnglish: "Every project is priced to fit your goals, so the best next step is a short conversation about your needs.",
	store.LanguageFrench:  "Chaque projet est chiffré selon vos objectifs : le mieux est d'échanger rapidement sur vos besoins.",
}

// suggestions are follow-up questions offered with an answer.
var suggestions = map[router.Intent]map[store.Language][]string{
	router.IntentPricing: {
		store.LanguageEnglish: {"What is included in a website project?", "Can I get a demo?", "How do I contact you?"},
		store.LanguageFrench:  {"Que comprend un projet de site web ?", "Puis-je avoir une démo ?", "Comment vous contacter ?"},
	},
	router.IntentContact: {
		store.LanguageEnglish: {"What services do you offer?", "Can I get a demo?", "How do quotes work?"},
		store.LanguageFrench:  {"Quels services proposez-vous ?", "Puis-je avoir une démo ?", "Comment fonctionnent les devis ?"},
	},
	router.IntentDemo: {
		store.LanguageEnglish: {"What services do you offer?", "How do quotes work?", "How do I contact you?"},
		store.LanguageFrench:  {"Quels services proposez-vous ?", "Comment fonctionnent les devis ?", "Comment vous contacter ?"},
	},
	router.IntentServices: {
		store.LanguageEnglish: {"Can I get a demo?", "How do quotes work?", "Do you build chatbots?"},
		store.LanguageFrench:  {"Puis-je avoir une démo ?", "Comment fonctionnent les devis ?", "Créez-vous des chatbots ?"},
	},
	router.IntentTechnical: {
		store.LanguageEnglish: {"Do you handle hosting?", "Do you offer maintenance?", "How do I contact you?"},
		store.LanguageFrench:  {"Gérez-vous l'hébergement ?", "Proposez-vous la maintenance ?", "Comment vous contacter ?"},
	},
	router.IntentAbout: {
		store.LanguageEnglish: {"What services do you offer?", "Where are you based?", "How do I contact you?"},
		store.LanguageFrench:  {"Quels services proposez-vous ?", "Où êtes-vous situés ?", "Comment vous contacter ?"},
	},
	router.IntentGeneral: {
		store.LanguageEnglish: {"What services do you offer?", "Can I get a demo?", "How do I contact you?"},
		store.LanguageFrench:  {"Quels services proposez-vous ?", "Puis-je avoir une démo ?", "Comment vous contacter ?"},
	},
}

// MaxSuggestions caps the follow-up list.
const MaxSuggestions = 3

// Suggestions returns the follow-up questions for intent in lang.
func Suggestions(intent router.Intent, lang store.Language) []string {
	list := suggestions[intent][lang]
	if len(list) == 0 {
		list = suggestions[router.IntentGeneral][lang]
	}
	if len(list) > MaxSuggestions {
		list = list[:MaxSuggestions]
	}
	return append([]string(nil), list...)
}

// ValueFraming returns the value-framing sentence for lang.
func ValueFraming(lang store.Language) string {
	if s, ok := valueFraming[lang]; ok {
		return s
	}
	return valueFraming[store.LanguageFrench]
}
