package rag

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omadigital23/assistant/plugin/ai/cache"
	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/server/queryengine"
	"github.com/omadigital23/assistant/store"
)

const (
	// DefaultLimit is the number of results returned when the caller sets none.
	DefaultLimit = 5
	// MaxCachedResults is how many ranked results are fetched and cached per query;
	// callers get a prefix of it.
	MaxCachedResults = 20
	// DefaultRetrievalTimeout bounds the fan-out.
	DefaultRetrievalTimeout = 3 * time.Second
)

// Options are the per-request search options.
type Options struct {
	Limit int
}

// Orchestrator fans a query out to every strategy, merges and ranks the
// results, and memoizes them.
type Orchestrator struct {
	strategies []Strategy
	ranker     *Ranker
	cache      cache.Cache[*RankedResult]
	inventory  *Inventory
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCache enables the result cache.
func WithCache(c cache.Cache[*RankedResult]) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithInventory sets the snapshot used when every strategy fails.
func WithInventory(inv *Inventory) Option {
	return func(o *Orchestrator) { o.inventory = inv }
}

// WithRanker replaces the default ranker.
func WithRanker(r *Ranker) Option {
	return func(o *Orchestrator) { o.ranker = r }
}

// WithStrategies replaces the store-backed strategies.
func WithStrategies(strategies ...Strategy) Option {
	return func(o *Orchestrator) { o.strategies = strategies }
}

// WithTimeout bounds a single fan-out.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an orchestrator over the three default strategies.
func NewOrchestrator(searcher Searcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		strategies: DefaultStrategies(searcher),
		ranker:     NewRanker(nil),
		timeout:    DefaultRetrievalTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Search returns the ranked results for q. It never fails: failed strategies
// contribute nothing, and when all of them fail the local inventory answers
// and the result is marked Degraded.
func (o *Orchestrator) Search(ctx context.Context, q *queryengine.NormalizedQuery, cls router.Classification, opts Options) *RankedResult {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if q == nil || q.Empty() {
		return &RankedResult{Items: []RankedItem{}}
	}

	key := cache.KeyFor(q.Text, string(q.Language))
	if o.cache != nil {
		if cached, ok := o.cache.Get(key); ok {
			out := cached.Truncate(limit)
			out.CacheHit = true
			o.logger.DebugContext(ctx, "retrieval cache hit", slog.String("key", key), slog.Int("results", len(out.Items)))
			return out
		}
	}

	req := &Request{Query: q, Classification: cls, Limit: MaxCachedResults}
	set, results := o.Retrieve(ctx, req)

	failed := failedStrategies(results)
	if len(results) > 0 && len(failed) == len(results) {
		o.logger.WarnContext(ctx, "all retrieval strategies failed, using local inventory",
			slog.Int("inventory_size", o.inventorySize()),
		)
		return o.degraded(q, cls, limit, failed)
	}

	ranked := o.ranker.Rank(set, q, cls.Intent, MaxCachedResults)
	if o.cache != nil && len(failed) == 0 {
		o.cache.Put(key, ranked)
	}

	out := ranked.Truncate(limit)
	out.FailedStrategies = failed
	o.logger.DebugContext(ctx, "retrieval completed",
		slog.Int("candidates", set.Len()),
		slog.Int("results", len(out.Items)),
		slog.Float64("top_confidence", out.TopConfidence()),
	)
	return out
}

// Retrieve runs every strategy concurrently, waits for all of them to settle
// and merges their results in prior order. A missing index counts as an
// empty result; any other error is logged and recorded on the result.
func (o *Orchestrator) Retrieve(ctx context.Context, req *Request) (*CandidateSet, []SearchStrategyResult) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	results := make([]SearchStrategyResult, len(o.strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, strategy := range o.strategies {
		g.Go(func() error {
			start := time.Now()
			entries, err := strategy.Search(gctx, req)
			if err != nil && store.IsIndexMissing(err) {
				o.logger.DebugContext(gctx, "retrieval index missing",
					slog.String("strategy", string(strategy.Kind())),
					slog.String("error", err.Error()),
				)
				entries, err = nil, nil
			}
			if err != nil {
				o.logger.WarnContext(gctx, "retrieval strategy failed",
					slog.String("strategy", string(strategy.Kind())),
					slog.String("error", err.Error()),
				)
				entries = nil
			}
			results[i] = SearchStrategyResult{
				Strategy: strategy.Kind(),
				Entries:  entries,
				Latency:  time.Since(start),
				Err:      err,
			}
			// Failures stay local so siblings are not canceled.
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]SearchStrategyResult, len(results))
	copy(merged, results)
	sort.SliceStable(merged, func(i, j int) bool {
		return GetStrategyConfig(merged[i].Strategy).Prior > GetStrategyConfig(merged[j].Strategy).Prior
	})
	set := NewCandidateSet()
	for _, r := range merged {
		set.Add(r)
	}
	return set, results
}

func (o *Orchestrator) degraded(q *queryengine.NormalizedQuery, cls router.Classification, limit int, failed []StrategyKind) *RankedResult {
	result := &RankedResult{Items: []RankedItem{}}
	if o.inventory != nil {
		set := NewCandidateSet()
		set.Add(SearchStrategyResult{
			Strategy: StrategyInventory,
			Entries:  o.inventory.Match(q, MaxCachedResults),
		})
		result = o.ranker.Rank(set, q, cls.Intent, limit)
	}
	result.Degraded = true
	result.FailedStrategies = failed
	return result
}

func (o *Orchestrator) inventorySize() int {
	if o.inventory == nil {
		return 0
	}
	return o.inventory.Len()
}

func failedStrategies(results []SearchStrategyResult) []StrategyKind {
	var failed []StrategyKind
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Strategy)
		}
	}
	return failed
}
