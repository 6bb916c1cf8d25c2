package rag

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadigital23/assistant/plugin/ai/cache"
	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/server/queryengine"
	"github.com/omadigital23/assistant/store"
)

type fakeSearcher struct {
	fullText, keyword, category          []*store.KnowledgeEntry
	fullTextErr, keywordErr, categoryErr error

	calls atomic.Int32

	mu         sync.Mutex
	categories []store.Category
}

func (f *fakeSearcher) SearchFullText(_ context.Context, _ *store.FullTextSearch) ([]*store.KnowledgeEntry, error) {
	f.calls.Add(1)
	return f.fullText, f.fullTextErr
}

func (f *fakeSearcher) SearchKeywords(_ context.Context, _ *store.KeywordSearch) ([]*store.KnowledgeEntry, error) {
	f.calls.Add(1)
	return f.keyword, f.keywordErr
}

func (f *fakeSearcher) SearchCategory(_ context.Context, search *store.CategorySearch) ([]*store.KnowledgeEntry, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.categories = append(f.categories, search.Category)
	f.mu.Unlock()
	return f.category, f.categoryErr
}

var servicesEntry = &store.KnowledgeEntry{
	ID:       "services-en",
	Title:    "Our services",
	Content:  "We build websites, chatbots and digital marketing campaigns for small businesses.",
	Category: store.CategoryServices,
	Language: store.LanguageEnglish,
	Keywords: []string{"services", "website", "chatbot"},
	Active:   true,
}

var pricingEntry = &store.KnowledgeEntry{
	ID:       "pricing-en",
	Title:    "Pricing",
	Content:  "Every project gets a tailored quote after a short call.",
	Category: store.CategoryPricing,
	Language: store.LanguageEnglish,
	Keywords: []string{"price", "quote"},
	Active:   true,
}

var aboutFrench = &store.KnowledgeEntry{
	ID:       "about-fr",
	Title:    "Qui sommes-nous",
	Content:  "Une agence digitale basée à Dakar.",
	Category: store.CategoryAbout,
	Language: store.LanguageFrench,
	Keywords: []string{"agence", "entreprise"},
	Active:   true,
}

func query(text string, lang store.Language) (*queryengine.NormalizedQuery, router.Classification) {
	q := queryengine.NewNormalizer(nil, store.LanguageFrench).Normalize(text, lang)
	return q, router.NewRuleMatcher(nil).Match(q)
}

func entry(id string) *store.KnowledgeEntry {
	return &store.KnowledgeEntry{ID: id, Title: "Title " + id, Language: store.LanguageEnglish, Category: store.CategoryServices, Active: true}
}

func TestCandidateSet_NoDuplicates(t *testing.T) {
	set := NewCandidateSet()
	set.Add(SearchStrategyResult{Strategy: StrategyFullText, Entries: []*store.KnowledgeEntry{entry("a"), entry("b")}})
	set.Add(SearchStrategyResult{Strategy: StrategyKeyword, Entries: []*store.KnowledgeEntry{entry("b"), entry("c")}})
	set.Add(SearchStrategyResult{Strategy: StrategyKeyword, Entries: []*store.KnowledgeEntry{entry("b")}})

	require.Equal(t, 3, set.Len())
	ids := []string{}
	for _, c := range set.Items() {
		ids = append(ids, c.Entry.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	b, ok := set.Get("b")
	require.True(t, ok)
	assert.Equal(t, []StrategyKind{StrategyFullText, StrategyKeyword}, b.Strategies)
	assert.GreaterOrEqual(t, b.Score, StrategyFullText.Contribution(1))
	assert.GreaterOrEqual(t, b.Score, StrategyKeyword.Contribution(0))
	assert.InDelta(t, StrategyFullText.Contribution(1)+2*StrategyKeyword.Contribution(0), b.Score, 1e-9)
}

func TestCandidateSet_IgnoresFailedResults(t *testing.T) {
	set := NewCandidateSet()
	set.Add(SearchStrategyResult{Strategy: StrategyFullText, Entries: []*store.KnowledgeEntry{entry("a")}, Err: errors.New("boom")})
	set.Add(SearchStrategyResult{Strategy: StrategyKeyword, Entries: []*store.KnowledgeEntry{nil, {ID: ""}}})
	assert.Zero(t, set.Len())
}

func TestStrategyContributionOrder(t *testing.T) {
	assert.Greater(t, StrategyFullText.Contribution(0), StrategyKeyword.Contribution(0))
	assert.Greater(t, StrategyKeyword.Contribution(0), StrategyCategory.Contribution(0))
	assert.Greater(t, StrategyFullText.Contribution(0), StrategyFullText.Contribution(3))
}

func TestRanker_ScoresSignals(t *testing.T) {
	q, cls := query("What are your services?", store.LanguageEnglish)
	require.Equal(t, router.IntentServices, cls.Intent)

	set := NewCandidateSet()
	set.Add(SearchStrategyResult{Strategy: StrategyFullText, Entries: []*store.KnowledgeEntry{servicesEntry}})
	set.Add(SearchStrategyResult{Strategy: StrategyKeyword, Entries: []*store.KnowledgeEntry{servicesEntry}})
	set.Add(SearchStrategyResult{Strategy: StrategyCategory, Entries: []*store.KnowledgeEntry{servicesEntry}})

	r := NewRanker(nil)
	ranked := r.Rank(set, q, cls.Intent, 5)
	require.Len(t, ranked.Items, 1)
	// merge 0.5*(1.5+1.0+0.5) + title 3 + keyword 2.5 + category 2 + language 1
	assert.InDelta(t, 10.0, ranked.Items[0].Score, 1e-9)
	assert.Equal(t, 1.0, ranked.TopConfidence())
	assert.Equal(t, []string{"services-en"}, ranked.DocumentIDs())
}

func TestRanker_Deterministic(t *testing.T) {
	q, cls := query("website price quote", store.LanguageEnglish)
	set := NewCandidateSet()
	set.Add(SearchStrategyResult{Strategy: StrategyFullText, Entries: []*store.KnowledgeEntry{servicesEntry, pricingEntry}})
	set.Add(SearchStrategyResult{Strategy: StrategyKeyword, Entries: []*store.KnowledgeEntry{pricingEntry, servicesEntry}})

	r := NewRanker(nil)
	first := r.Rank(set, q, cls.Intent, 5)
	require.NotEmpty(t, first.Items)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, r.Rank(set, q, cls.Intent, 5))
	}
}

func TestRanker_TiesKeepInsertionOrder(t *testing.T) {
	q, _ := query("chatbot", store.LanguageEnglish)
	set := NewCandidateSet()
	for _, id := range []string{"z", "m", "a"} {
		e := entry(id)
		e.Title = "Chatbot"
		set.Add(SearchStrategyResult{Strategy: StrategyKeyword, Entries: []*store.KnowledgeEntry{e}})
	}

	ranked := NewRanker(nil).Rank(set, q, router.IntentGeneral, 0)
	assert.Equal(t, []string{"z", "m", "a"}, ranked.DocumentIDs())
	assert.Equal(t, ranked.Items[0].Score, ranked.Items[2].Score)
}

func TestRanker_DropsNonPositiveAndTruncates(t *testing.T) {
	q, _ := query("chatbot", store.LanguageEnglish)
	set := NewCandidateSet()
	set.Add(SearchStrategyResult{Strategy: StrategyCategory, Entries: []*store.KnowledgeEntry{aboutFrench}})
	for _, id := range []string{"a", "b", "c"} {
		e := entry(id)
		e.Content = "chatbot"
		set.Add(SearchStrategyResult{Strategy: StrategyKeyword, Entries: []*store.KnowledgeEntry{e}})
	}

	ranked := NewRanker(nil).Rank(set, q, router.IntentGeneral, 2)
	assert.Equal(t, []string{"a", "b"}, ranked.DocumentIDs(), "the French entry scores below zero for an English request")
}

func TestRanker_CategoryBonus(t *testing.T) {
	q, _ := query("quote", store.LanguageEnglish)
	set := NewCandidateSet()
	set.Add(SearchStrategyResult{Strategy: StrategyKeyword, Entries: []*store.KnowledgeEntry{pricingEntry}})
	r := NewRanker(nil)

	general := r.Rank(set, q, router.IntentGeneral, 1).Items[0].Score
	pricing := r.Rank(set, q, router.IntentPricing, 1).Items[0].Score
	assert.InDelta(t, 2.0, pricing-general, 1e-9)
}

func TestCategoryFor(t *testing.T) {
	q, cls := query("Quel est le prix ?", store.LanguageFrench)
	category, ok := CategoryFor(q, cls)
	assert.True(t, ok)
	assert.Equal(t, store.CategoryPricing, category)

	q, _ = query("hebergement", store.LanguageFrench)
	category, ok = CategoryFor(q, router.Classification{Intent: router.IntentGeneral})
	assert.True(t, ok)
	assert.Equal(t, store.CategoryTechnical, category)

	q, _ = query("bonjour lundi", store.LanguageFrench)
	_, ok = CategoryFor(q, router.Classification{Intent: router.IntentGeneral})
	assert.False(t, ok)
}

func TestOrchestrator_ServicesQuestion(t *testing.T) {
	searcher := &fakeSearcher{
		fullText: []*store.KnowledgeEntry{servicesEntry},
		keyword:  []*store.KnowledgeEntry{servicesEntry},
		category: []*store.KnowledgeEntry{servicesEntry},
	}
	o := NewOrchestrator(searcher)
	q, cls := query("What are your services?", store.LanguageEnglish)

	result := o.Search(context.Background(), q, cls, Options{Limit: 5})

	assert.Equal(t, int32(3), searcher.calls.Load())
	assert.Equal(t, []store.Category{store.CategoryServices}, searcher.categories)
	assert.Equal(t, []string{"services-en"}, result.DocumentIDs())
	assert.GreaterOrEqual(t, result.TopConfidence(), 0.7)
	assert.False(t, result.Degraded)
	assert.Empty(t, result.FailedStrategies)
}

func TestOrchestrator_CacheHitSkipsStore(t *testing.T) {
	searcher := &fakeSearcher{keyword: []*store.KnowledgeEntry{servicesEntry, pricingEntry}}
	c := cache.NewLRUCache[*RankedResult](cache.DefaultCapacity, time.Minute)
	o := NewOrchestrator(searcher, WithCache(c))
	q, cls := query("website price", store.LanguageEnglish)

	first := o.Search(context.Background(), q, cls, Options{Limit: 5})
	require.Equal(t, int32(3), searcher.calls.Load())
	assert.False(t, first.CacheHit)

	second := o.Search(context.Background(), q, cls, Options{Limit: 1})
	assert.Equal(t, int32(3), searcher.calls.Load(), "no store call on a cache hit")
	assert.True(t, second.CacheHit)
	assert.Len(t, second.Items, 1)
	assert.Equal(t, first.Items[0].Entry.ID, second.Items[0].Entry.ID)
}

func TestOrchestrator_StrategyFailureIsIsolated(t *testing.T) {
	searcher := &fakeSearcher{
		fullTextErr: errors.New("connection reset"),
		keyword:     []*store.KnowledgeEntry{servicesEntry},
	}
	c := cache.NewLRUCache[*RankedResult](cache.DefaultCapacity, time.Minute)
	o := NewOrchestrator(searcher, WithCache(c))
	q, cls := query("What are your services?", store.LanguageEnglish)

	result := o.Search(context.Background(), q, cls, Options{})
	assert.Equal(t, []string{"services-en"}, result.DocumentIDs())
	assert.Equal(t, []StrategyKind{StrategyFullText}, result.FailedStrategies)
	assert.False(t, result.Degraded)
	assert.Zero(t, c.Size(), "partial results are not cached")
}

func TestOrchestrator_MissingIndexIsEmpty(t *testing.T) {
	searcher := &fakeSearcher{
		fullTextErr: errors.Wrap(store.ErrIndexMissing, "no such module: fts5"),
		keyword:     []*store.KnowledgeEntry{servicesEntry},
	}
	o := NewOrchestrator(searcher)
	q, cls := query("What are your services?", store.LanguageEnglish)

	result := o.Search(context.Background(), q, cls, Options{})
	assert.Empty(t, result.FailedStrategies)
	assert.Equal(t, []string{"services-en"}, result.DocumentIDs())
}

func TestOrchestrator_AllStrategiesFailUsesInventory(t *testing.T) {
	down := errors.New("dial tcp: connection refused")
	searcher := &fakeSearcher{fullTextErr: down, keywordErr: down, categoryErr: down}
	inv := NewInventory()
	inactive := *pricingEntry
	inactive.ID, inactive.Active = "old-pricing", false
	inv.Replace([]*store.KnowledgeEntry{servicesEntry, pricingEntry, &inactive, aboutFrench})
	require.Equal(t, 3, inv.Len())
	o := NewOrchestrator(searcher, WithInventory(inv))
	q, cls := query("How much does a website cost?", store.LanguageEnglish)

	result := o.Search(context.Background(), q, cls, Options{})
	assert.True(t, result.Degraded)
	assert.Len(t, result.FailedStrategies, 3)
	assert.NotEmpty(t, result.Items)
	for _, item := range result.Items {
		assert.Equal(t, store.LanguageEnglish, item.Entry.Language)
		assert.NotEqual(t, "old-pricing", item.Entry.ID)
	}

	empty := NewOrchestrator(searcher).Search(context.Background(), q, cls, Options{})
	assert.True(t, empty.Degraded)
	assert.Empty(t, empty.Items)
}

func TestOrchestrator_EmptyQuerySkipsStore(t *testing.T) {
	searcher := &fakeSearcher{}
	o := NewOrchestrator(searcher)
	q, cls := query("  ?! ", store.LanguageEnglish)

	result := o.Search(context.Background(), q, cls, Options{})
	assert.Empty(t, result.Items)
	assert.Zero(t, searcher.calls.Load())
}

type barrierStrategy struct {
	kind    StrategyKind
	started *sync.WaitGroup
	all     <-chan struct{}
}

func (b *barrierStrategy) Kind() StrategyKind { return b.kind }

func (b *barrierStrategy) Search(ctx context.Context, _ *Request) ([]*store.KnowledgeEntry, error) {
	b.started.Done()
	select {
	case <-b.all:
		return []*store.KnowledgeEntry{entry(string(b.kind))}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestOrchestrator_StrategiesRunConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(3)
	all := make(chan struct{})
	go func() {
		started.Wait()
		close(all)
	}()

	o := NewOrchestrator(nil,
		WithTimeout(2*time.Second),
		WithStrategies(
			&barrierStrategy{kind: StrategyCategory, started: &started, all: all},
			&barrierStrategy{kind: StrategyKeyword, started: &started, all: all},
			&barrierStrategy{kind: StrategyFullText, started: &started, all: all},
		),
	)
	q, _ := query("website", store.LanguageEnglish)

	set, results := o.Retrieve(context.Background(), &Request{Query: q, Limit: 5})
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	ids := []string{}
	for _, c := range set.Items() {
		ids = append(ids, c.Entry.ID)
	}
	assert.Equal(t, []string{"fulltext", "keyword", "category"}, ids, "merge follows strategy priority")
}

func TestInventory_Match(t *testing.T) {
	inv := NewInventory()
	assert.True(t, inv.UpdatedAt().IsZero())
	inv.Replace([]*store.KnowledgeEntry{aboutFrench, servicesEntry})
	assert.False(t, inv.UpdatedAt().IsZero())

	q, _ := query("agence basee", "")
	got := inv.Match(q, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "about-fr", got[0].ID)

	q, _ = query("agence", store.LanguageEnglish)
	assert.Empty(t, inv.Match(q, 5))
}

func TestRankedResult_Truncate(t *testing.T) {
	r := &RankedResult{Items: []RankedItem{{Entry: entry("a")}, {Entry: entry("b")}, {Entry: entry("c")}}}
	short := r.Truncate(2)
	assert.Len(t, short.Items, 2)
	assert.Len(t, r.Items, 3)
	assert.Len(t, r.Truncate(0).Items, 3)
}
