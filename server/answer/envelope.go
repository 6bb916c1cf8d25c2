// Package answer decides, per question, whether retrieved evidence is enough
// or a generative completion is needed, and owns the answer contract.
package answer

import (
	"github.com/omadigital23/assistant/plugin/ai/cta"
	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/store"
)

// Source tells where an answer came from.
type Source string

const (
	// SourceRetrievalOnly is composed from retrieved entries without a model call.
	SourceRetrievalOnly Source = "retrieval-only"
	// SourceRetrievalAugmented is phrased by the model from retrieved entries.
	SourceRetrievalAugmented Source = "retrieval-augmented"
	// SourceGenerativeFallback is a model answer without grounding context.
	SourceGenerativeFallback Source = "generative-only-fallback"
)

// AnswerEnvelope is the final output for one question.
//
// Source retrieval-only implies Confidence >= HighThreshold and a non-empty
// Documents list; generative-only-fallback implies an empty Documents list.
type AnswerEnvelope struct {
	Answer     string         `json:"answer"`
	Source     Source         `json:"source"`
	Confidence float64        `json:"confidence"`
	Language   store.Language `json:"language"`
	// Documents lists the IDs of the entries the answer rests on, in rank order.
	Documents   []string      `json:"documents"`
	CTA         *cta.CTA      `json:"cta,omitempty"`
	Suggestions []string      `json:"suggestions"`
	Intent      router.Intent `json:"intent"`
	// Degraded is set when the store or the model failed and a weaker path answered.
	Degraded  bool   `json:"degraded"`
	CacheHit  bool   `json:"cache_hit"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id"`
}

// Options are the caller's per-question options.
type Options struct {
	// Language is optional; empty or unsupported means every supported language.
	Language string
	// Limit bounds the entries considered and cited. Zero uses the default.
	Limit int
}
