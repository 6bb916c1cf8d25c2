// Package rag retrieves, merges and ranks knowledge entries for a question.
package rag

import (
	"context"
	"strings"

	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/server/queryengine"
	"github.com/omadigital23/assistant/store"
)

// StrategyKind identifies a retrieval strategy.
type StrategyKind string

const (
	StrategyFullText  StrategyKind = "fulltext"
	StrategyKeyword   StrategyKind = "keyword"
	StrategyCategory  StrategyKind = "category"
	StrategyInventory StrategyKind = "inventory"
)

// StrategyConfig holds the merge weight and the tie-break prior of a strategy.
type StrategyConfig struct {
	// Weight is the contribution of a first-ranked hit; lower ranks decay.
	Weight float64
	// Prior orders strategies when merging: higher merges first.
	Prior int
}

var strategyConfigs = map[StrategyKind]StrategyConfig{
	StrategyFullText:  {Weight: 1.5, Prior: 3},
	StrategyKeyword:   {Weight: 1.0, Prior: 2},
	StrategyCategory:  {Weight: 0.5, Prior: 1},
	StrategyInventory: {Weight: 0.5, Prior: 0},
}

// GetStrategyConfig returns the configuration for a strategy.
func GetStrategyConfig(kind StrategyKind) StrategyConfig {
	return strategyConfigs[kind]
}

// rankDecay reduces the contribution of lower-ranked hits within one strategy.
const rankDecay = 0.1

// Contribution is the merge score of the hit at position rank (0-based).
func (k StrategyKind) Contribution(rank int) float64 {
	return GetStrategyConfig(k).Weight / (1 + rankDecay*float64(rank))
}

// Searcher is the document store query interface. *store.Store implements it.
type Searcher interface {
	SearchFullText(ctx context.Context, search *store.FullTextSearch) ([]*store.KnowledgeEntry, error)
	SearchKeywords(ctx context.Context, search *store.KeywordSearch) ([]*store.KnowledgeEntry, error)
	SearchCategory(ctx context.Context, search *store.CategorySearch) ([]*store.KnowledgeEntry, error)
}

// Request is what every strategy receives.
type Request struct {
	Query          *queryengine.NormalizedQuery
	Classification router.Classification
	Limit          int
}

// languageFilter is nil when the caller did not declare a language.
func (r *Request) languageFilter() *store.Language {
	if r.Query.Language == "" {
		return nil
	}
	lang := r.Query.Language
	return &lang
}

// Strategy is one independent way of finding candidates.
type Strategy interface {
	Kind() StrategyKind
	Search(ctx context.Context, req *Request) ([]*store.KnowledgeEntry, error)
}

// DefaultStrategies returns the three store-backed strategies in prior order.
func DefaultStrategies(searcher Searcher) []Strategy {
	return []Strategy{
		&fullTextStrategy{searcher: searcher},
		&keywordStrategy{searcher: searcher},
		&categoryStrategy{searcher: searcher},
	}
}

type fullTextStrategy struct {
	searcher Searcher
}

func (*fullTextStrategy) Kind() StrategyKind { return StrategyFullText }

func (s *fullTextStrategy) Search(ctx context.Context, req *Request) ([]*store.KnowledgeEntry, error) {
	return s.searcher.SearchFullText(ctx, &store.FullTextSearch{
		Text:     strings.Join(req.Query.Keywords, " "),
		Language: req.languageFilter(),
		Limit:    req.Limit,
	})
}

type keywordStrategy struct {
	searcher Searcher
}

func (*keywordStrategy) Kind() StrategyKind { return StrategyKeyword }

func (s *keywordStrategy) Search(ctx context.Context, req *Request) ([]*store.KnowledgeEntry, error) {
	return s.searcher.SearchKeywords(ctx, &store.KeywordSearch{
		Keywords: req.Query.Keywords,
		Language: req.languageFilter(),
		Limit:    req.Limit,
	})
}

type categoryStrategy struct {
	searcher Searcher
}

func (*categoryStrategy) Kind() StrategyKind { return StrategyCategory }

// Search lists the category the question points at. No category, no call.
func (s *categoryStrategy) Search(ctx context.Context, req *Request) ([]*store.KnowledgeEntry, error) {
	category, ok := CategoryFor(req.Query, req.Classification)
	if !ok {
		return nil, nil
	}
	return s.searcher.SearchCategory(ctx, &store.CategorySearch{
		Category: category,
		Language: req.languageFilter(),
		Limit:    req.Limit,
	})
}

// categoryKeywords maps accent-stripped keywords to the category they suggest.
var categoryKeywords = map[string]store.Category{
	"prix": store.CategoryPricing, "tarif": store.CategoryPricing, "price": store.CategoryPricing,
	"cost": store.CategoryPricing, "devis": store.CategoryPricing, "quote": store.CategoryPricing,
	"contact": store.CategoryContact, "whatsapp": store.CategoryContact, "phone": store.CategoryContact,
	"telephone": store.CategoryContact, "email": store.CategoryContact, "adresse": store.CategoryContact,
	"demo": store.CategoryDemo, "essai": store.CategoryDemo, "trial": store.CategoryDemo,
	"website": store.CategoryServices, "site": store.CategoryServices, "chatbot": store.CategoryServices,
	"marketing": store.CategoryServices, "application": store.CategoryServices, "service": store.CategoryServices,
	"offre": store.CategoryServices, "offer": store.CategoryServices,
	"hosting": store.CategoryTechnical, "hebergement": store.CategoryTechnical, "api": store.CategoryTechnical,
	"securite": store.CategoryTechnical, "security": store.CategoryTechnical, "maintenance": store.CategoryTechnical,
	"company": store.CategoryAbout, "entreprise": store.CategoryAbout, "team": store.CategoryAbout,
	"equipe": store.CategoryAbout, "agence": store.CategoryAbout, "agency": store.CategoryAbout,
}

// CategoryFor picks the category to search: the intent's own category first,
// else the first keyword that names one.
func CategoryFor(q *queryengine.NormalizedQuery, cls router.Classification) (store.Category, bool) {
	if category, ok := cls.Intent.Category(); ok {
		return category, true
	}
	for _, kw := range q.Keywords {
		if category, ok := categoryKeywords[kw]; ok {
			return category, true
		}
	}
	return "", false
}
