// Package router classifies questions into a closed set of business intents.
package router

import (
	"github.com/omadigital23/assistant/store"
)

// Intent represents the type of user intent.
type Intent string

const (
	IntentGeneral   Intent = "general"
	IntentPricing   Intent = "pricing"
	IntentContact   Intent = "contact"
	IntentDemo      Intent = "demo"
	IntentServices  Intent = "services"
	IntentTechnical Intent = "technical"
	IntentAbout     Intent = "about"
)

// Intents lists every intent. IntentGeneral is the default and owns no triggers.
var Intents = []Intent{
	IntentGeneral,
	IntentPricing,
	IntentContact,
	IntentDemo,
	IntentServices,
	IntentTechnical,
	IntentAbout,
}

// Category maps an intent to the knowledge category it biases toward.
// IntentGeneral has no category.
func (i Intent) Category() (store.Category, bool) {
	switch i {
	case IntentPricing:
		return store.CategoryPricing, true
	case IntentContact:
		return store.CategoryContact, true
	case IntentDemo:
		return store.CategoryDemo, true
	case IntentServices:
		return store.CategoryServices, true
	case IntentTechnical:
		return store.CategoryTechnical, true
	case IntentAbout:
		return store.CategoryAbout, true
	case IntentGeneral:
		return "", false
	}
	return "", false
}

// IntentForCategory is the inverse of Intent.Category.
func IntentForCategory(c store.Category) Intent {
	for _, intent := range Intents {
		if cat, ok := intent.Category(); ok && cat == c {
			return intent
		}
	}
	return IntentGeneral
}

// Classification is the outcome of classifying one query.
type Classification struct {
	Intent Intent
	// Confidence is the normalized weight of the winning intent; zero for IntentGeneral.
	Confidence float64
	// PriceQuery is set whenever a price trigger matched, even if another intent won.
	PriceQuery bool
	// Scores holds the raw matched weight per intent.
	Scores map[Intent]int
}
