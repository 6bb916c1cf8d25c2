package rag

import (
	"sort"
	"strings"

	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/server/queryengine"
	"github.com/omadigital23/assistant/store"
)

// RankerConfig holds the weights of the additive scoring signals.
type RankerConfig struct {
	TitleWeight          float64 // per query keyword found as a title word
	TitleMatchCap        int
	ContentWeight        float64 // per keyword occurrence in the content
	ContentOccurrenceCap int
	KeywordWeight        float64 // per entry keyword the query carries
	KeywordMatchCap      int
	CategoryWeight       float64 // intent category equals entry category
	LanguageWeight       float64 // entry language equals the requested one
	LanguagePenalty      float64 // declared language differs
	MergeWeight          float64 // share of the candidate merge score
	// ScoreScale maps a score onto [0,1]: confidence = min(1, score/ScoreScale).
	ScoreScale float64
}

// DefaultRankerConfig returns the production weights.
func DefaultRankerConfig() *RankerConfig {
	return &RankerConfig{
		TitleWeight:          3.0,
		TitleMatchCap:        2,
		ContentWeight:        1.0,
		ContentOccurrenceCap: 3,
		KeywordWeight:        2.5,
		KeywordMatchCap:      2,
		CategoryWeight:       2.0,
		LanguageWeight:       1.0,
		LanguagePenalty:      1.0,
		MergeWeight:          0.5,
		ScoreScale:           10,
	}
}

// RankedItem is one scored entry.
type RankedItem struct {
	Entry      *store.KnowledgeEntry
	Score      float64
	Confidence float64
	Strategies []StrategyKind
}

// RankedResult is the ordered, truncated output of a search. It is shared
// through the cache and must not be mutated; Truncate returns a copy.
type RankedResult struct {
	Items []RankedItem
	// Degraded is set when the store was unreachable and the local inventory answered.
	Degraded bool
	// CacheHit is set on results served from the cache.
	CacheHit bool
	// FailedStrategies lists the strategies that errored on this request.
	FailedStrategies []StrategyKind
}

// Empty reports whether nothing was found.
func (r *RankedResult) Empty() bool {
	return len(r.Items) == 0
}

// Top returns the best item.
func (r *RankedResult) Top() (RankedItem, bool) {
	if len(r.Items) == 0 {
		return RankedItem{}, false
	}
	return r.Items[0], true
}

// TopConfidence is the confidence of the best item, 0 when empty.
func (r *RankedResult) TopConfidence() float64 {
	top, ok := r.Top()
	if !ok {
		return 0
	}
	return top.Confidence
}

// DocumentIDs lists entry IDs in rank order.
func (r *RankedResult) DocumentIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.Entry.ID)
	}
	return ids
}

// Truncate returns a copy holding at most limit items.
func (r *RankedResult) Truncate(limit int) *RankedResult {
	out := *r
	if limit > 0 && len(r.Items) > limit {
		out.Items = r.Items[:limit:limit]
	}
	return &out
}

// Ranker scores and orders a candidate set. It is stateless and deterministic.
type Ranker struct {
	config *RankerConfig
}

// NewRanker creates a ranker; nil uses DefaultRankerConfig.
func NewRanker(config *RankerConfig) *Ranker {
	if config == nil {
		config = DefaultRankerConfig()
	}
	return &Ranker{config: config}
}

// Rank scores every candidate, drops non-positive scores, sorts by score
// keeping insertion order on ties, and truncates to limit (0 keeps all).
func (r *Ranker) Rank(set *CandidateSet, q *queryengine.NormalizedQuery, intent router.Intent, limit int) *RankedResult {
	result := &RankedResult{Items: []RankedItem{}}
	if set == nil {
		return result
	}

	for _, c := range set.Items() {
		score := r.Score(c, q, intent)
		if score <= 0 {
			continue
		}
		result.Items = append(result.Items, RankedItem{
			Entry:      c.Entry,
			Score:      score,
			Confidence: r.Confidence(score),
			Strategies: c.Strategies,
		})
	}

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Score > result.Items[j].Score
	})
	if limit > 0 && len(result.Items) > limit {
		result.Items = result.Items[:limit]
	}
	return result
}

// Confidence maps a score onto [0,1].
func (r *Ranker) Confidence(score float64) float64 {
	if score <= 0 || r.config.ScoreScale <= 0 {
		return 0
	}
	return min(1, score/r.config.ScoreScale)
}

// Score sums the signals of one candidate.
func (r *Ranker) Score(c *Candidate, q *queryengine.NormalizedQuery, intent router.Intent) float64 {
	cfg := r.config
	entry := c.Entry
	score := cfg.MergeWeight * c.Score

	titleWords := make(map[string]bool)
	for _, w := range queryengine.Tokenize(entry.Title) {
		titleWords[w] = true
	}
	entryKeywords := make(map[string]bool, len(entry.Keywords))
	for _, kw := range entry.Keywords {
		entryKeywords[strings.ToLower(queryengine.StripAccents(strings.TrimSpace(kw)))] = true
	}
	content := strings.ToLower(queryengine.StripAccents(entry.Content))

	titleHits, keywordHits, occurrences := 0, 0, 0
	for _, kw := range q.Keywords {
		if titleWords[kw] {
			titleHits++
		}
		if entryKeywords[kw] {
			keywordHits++
		}
		occurrences += strings.Count(content, kw)
	}
	score += cfg.TitleWeight * float64(min(titleHits, cfg.TitleMatchCap))
	score += cfg.ContentWeight * float64(min(occurrences, cfg.ContentOccurrenceCap))
	score += cfg.KeywordWeight * float64(min(keywordHits, cfg.KeywordMatchCap))

	if category, ok := intent.Category(); ok && category == entry.Category {
		score += cfg.CategoryWeight
	}

	switch {
	case q.Language != "" && entry.Language == q.Language:
		score += cfg.LanguageWeight
	case q.Language != "":
		score -= cfg.LanguagePenalty
	case entry.Language == q.DetectedLanguage:
		score += cfg.LanguageWeight / 2
	}
	return score
}
