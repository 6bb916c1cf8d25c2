package cta

import (
	"strings"
	"sync/atomic"

	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/store"
)

// arrow prefixes the CTA line appended to an answer.
const arrow = "→ "

// Draft is the part of an answer the policy rewrites.
type Draft struct {
	Text string
	CTA  *CTA
}

// Processor applies the answer policy. It is safe for concurrent use.
type Processor struct {
	// targets maps an action to a link or handle carried in the CTA payload.
	targets map[Action]string
	next    atomic.Uint64
}

// NewProcessor creates a processor; targets may be nil.
func NewProcessor(targets map[Action]string) *Processor {
	return &Processor{targets: targets}
}

// Apply enforces the policy on d for the classified question:
//   - on price questions, a value-framing sentence is appended;
//   - a CTA for the intent is attached, and appended as a line unless the
//     text already holds a list or arrow marker;
//   - currency amounts are stripped before and after, so the result never holds one.
//
// Retrieved facts are not rewritten beyond the currency pass.
func (p *Processor) Apply(d Draft, cls router.Classification, lang store.Language) Draft {
	if _, ok := store.ParseLanguage(string(lang)); !ok {
		lang = store.LanguageFrench
	}
	out := Draft{Text: StripCurrency(strings.TrimSpace(d.Text))}

	if cls.PriceQuery {
		if framing := ValueFraming(lang); !strings.Contains(out.Text, framing) {
			out.Text = joinSentences(out.Text, framing)
		}
	}

	action := actionFor(cls.Intent)
	if cls.PriceQuery {
		action = ActionQuote
	}
	label := p.pick(action, lang)
	out.CTA = &CTA{
		Action:  action,
		Label:   label,
		Payload: p.payload(action, cls.Intent, lang),
	}
	if !HasCTAMarker(out.Text) {
		out.Text = out.Text + "\n\n" + arrow + label
	}

	out.Text = strings.TrimSpace(StripCurrency(out.Text))
	return out
}

// pick rotates through the labels of action.
func (p *Processor) pick(action Action, lang store.Language) string {
	options := labels[action][lang]
	if len(options) == 0 {
		options = labels[ActionContact][store.LanguageFrench]
	}
	n := p.next.Add(1) - 1
	return options[n%uint64(len(options))]
}

func (p *Processor) payload(action Action, intent router.Intent, lang store.Language) map[string]string {
	payload := map[string]string{
		"intent":   string(intent),
		"language": string(lang),
	}
	if target, ok := p.targets[action]; ok && target != "" {
		payload["target"] = target
	}
	return payload
}

func joinSentences(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
