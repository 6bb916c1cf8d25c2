package answer

import (
	"fmt"
	"strings"

	"github.com/omadigital23/assistant/plugin/ai"
	"github.com/omadigital23/assistant/plugin/ai/rag"
	"github.com/omadigital23/assistant/store"
)

const (
	// groundingBudget bounds the facts section of a grounded prompt, in characters.
	groundingBudget = 3000
	// minFactLength is the smallest share a single fact gets.
	minFactLength = 200
)

var languageNames = map[store.Language]string{
	store.LanguageFrench:  "French",
	store.LanguageEnglish: "English",
}

// baseRules apply to every prompt.
func (c *Controller) baseRules(lang store.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the customer assistant of %s, a digital services agency.\n", c.config.BusinessName)
	b.WriteString("Answer briefly, in a warm and professional tone.\n")
	b.WriteString("Never state a price, an amount or a currency; invite the user to ask for a quote instead.\n")
	if name, ok := languageNames[lang]; ok {
		fmt.Fprintf(&b, "Answer in %s.\n", name)
	} else {
		b.WriteString("Answer in the language of the question, French or English.\n")
	}
	b.WriteString(ai.LanguageTagInstruction())
	return b.String()
}

// groundedMessages asks the model to phrase an answer from items only.
func (c *Controller) groundedMessages(question string, items []rag.RankedItem, lang store.Language) []ai.Message {
	var b strings.Builder
	b.WriteString(c.baseRules(lang))
	b.WriteString("\nUse only the facts below. If they do not answer the question, say so and suggest contacting the team. Do not add any other fact.\n\nFacts:\n")
	share := max(minFactLength, groundingBudget/max(1, len(items)))
	for i, item := range items {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, item.Entry.Title, clip(strings.TrimSpace(item.Entry.Content), share))
	}
	return []ai.Message{ai.SystemPrompt(b.String()), ai.UserMessage(question)}
}

// fallbackMessages asks the model without grounding context.
func (c *Controller) fallbackMessages(question string, lang store.Language) []ai.Message {
	var b strings.Builder
	b.WriteString(c.baseRules(lang))
	b.WriteString("\nNo documentation matched this question. Give a short general answer about the agency's services and suggest contacting the team for details.\n")
	return []ai.Message{ai.SystemPrompt(b.String()), ai.UserMessage(question)}
}

var apologies = map[store.Language]string{
	store.LanguageFrench:  "Désolé, je ne peux pas répondre à cette question pour le moment.",
	store.LanguageEnglish: "Sorry, I can't answer this question right now.",
}

var contactFormats = map[store.Language]string{
	store.LanguageFrench:  "Notre équipe vous répondra directement : %s.",
	store.LanguageEnglish: "Our team will answer you directly: %s.",
}

var contactDefaults = map[store.Language]string{
	store.LanguageFrench:  "Notre équipe se fera un plaisir de vous répondre directement.",
	store.LanguageEnglish: "Our team will be happy to answer you directly.",
}

var rephrase = map[store.Language]string{
	store.LanguageFrench:  "Pouvez-vous préciser votre question ?",
	store.LanguageEnglish: "Could you tell me a bit more about what you are looking for?",
}

// apology is the static answer when nothing was retrieved and the model failed.
func (c *Controller) apology(lang store.Language) string {
	contact := contactDefaults[lang]
	if c.config.ContactLine != "" {
		contact = fmt.Sprintf(contactFormats[lang], c.config.ContactLine)
	}
	return apologies[lang] + " " + contact
}

// compose builds a retrieval-only answer from the best items: the top one,
// then up to max-1 more scoring at least half of it.
func compose(items []rag.RankedItem, max int) (string, []string) {
	if len(items) == 0 {
		return "", []string{}
	}
	if max <= 0 {
		max = 1
	}
	floor := items[0].Score / 2
	parts := make([]string, 0, max)
	ids := make([]string, 0, max)
	for _, item := range items {
		if len(parts) == max {
			break
		}
		if len(parts) > 0 && item.Score < floor {
			break
		}
		content := strings.TrimSpace(item.Entry.Content)
		if content == "" {
			content = strings.TrimSpace(item.Entry.Title)
		}
		parts = append(parts, content)
		ids = append(ids, item.Entry.ID)
	}
	return strings.Join(parts, "\n\n"), ids
}

// clip cuts s to n characters, marking the cut.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}
