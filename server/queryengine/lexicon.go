package queryengine

import (
	"github.com/omadigital23/assistant/store"
)

// Words are stored accent-stripped and lowercase, the form the normalizer compares against.

var stopWords = map[store.Language][]string{
	store.LanguageFrench: {
		"le", "la", "les", "un", "une", "des", "du", "de", "et", "ou", "en", "au", "aux",
		"je", "tu", "il", "elle", "nous", "vous", "ils", "elles", "on", "me", "te", "se",
		"mon", "ton", "son", "mes", "tes", "ses", "notre", "votre", "nos", "vos", "leur", "leurs",
		"ce", "cet", "cette", "ces", "qui", "que", "quoi", "quel", "quelle", "quels", "quelles",
		"est", "sont", "etre", "avoir", "avez", "ont", "fait", "faire", "peux", "pouvez", "peut",
		"pour", "par", "avec", "sans", "sur", "sous", "dans", "chez", "entre", "vers",
		"pas", "plus", "tres", "bien", "aussi", "comment", "combien", "pourquoi", "quand",
		"est-ce", "alors", "donc", "mais", "car", "voudrais", "veux", "bonjour", "merci", "svp",
	},
	store.LanguageEnglish: {
		"the", "a", "an", "and", "or", "of", "to", "in", "on", "at", "for", "with", "by", "from",
		"i", "you", "he", "she", "we", "they", "it", "me", "my", "your", "our", "their", "its",
		"this", "that", "these", "those", "what", "which", "who", "whom", "whose",
		"is", "are", "was", "were", "be", "been", "do", "does", "did", "have", "has", "had",
		"can", "could", "would", "should", "will", "shall", "may", "might", "about",
		"how", "much", "many", "why", "when", "where", "there", "here", "not", "any", "some",
		"please", "hello", "thanks", "thank", "want", "need", "like", "get", "tell",
	},
}

// synonymGroups are sets of interchangeable business terms per language.
var synonymGroups = map[store.Language][][]string{
	store.LanguageFrench: {
		{"offre", "service", "forfait", "formule", "prestation"},
		{"prix", "tarif", "cout", "devis", "budget"},
		{"site", "web", "internet"},
		{"contact", "joindre", "appeler", "telephone", "whatsapp"},
		{"demo", "demonstration", "essai"},
		{"application", "app", "mobile"},
		{"chatbot", "assistant", "robot"},
		{"entreprise", "societe", "agence"},
	},
	store.LanguageEnglish: {
		{"offer", "service", "plan", "package"},
		{"price", "cost", "rate", "pricing", "quote", "budget"},
		{"website", "site", "web"},
		{"contact", "reach", "call", "phone", "whatsapp"},
		{"demo", "demonstration", "trial"},
		{"application", "app", "mobile"},
		{"chatbot", "bot", "assistant"},
		{"company", "agency", "business"},
	},
}

type lexicon struct {
	stop     map[string]bool
	synonyms map[string][]string
}

func buildLexicon(lang store.Language) lexicon {
	lex := lexicon{
		stop:     make(map[string]bool, len(stopWords[lang])),
		synonyms: make(map[string][]string),
	}
	for _, w := range stopWords[lang] {
		lex.stop[w] = true
	}
	for _, group := range synonymGroups[lang] {
		for _, w := range group {
			for _, other := range group {
				if other != w {
					lex.synonyms[w] = append(lex.synonyms[w], other)
				}
			}
		}
	}
	return lex
}
