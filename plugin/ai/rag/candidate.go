package rag

import (
	"time"

	"github.com/omadigital23/assistant/store"
)

// SearchStrategyResult is the output of one strategy run.
type SearchStrategyResult struct {
	Strategy StrategyKind
	Entries  []*store.KnowledgeEntry
	Latency  time.Duration
	// Err is set when the strategy failed; Entries is then empty.
	Err error
}

// Candidate is one deduplicated entry with its accumulated merge score.
type Candidate struct {
	Entry *store.KnowledgeEntry
	Score float64
	// Strategies lists every strategy that returned the entry, first hit first.
	Strategies []StrategyKind
}

// CandidateSet is the union of strategy results keyed by entry ID.
// Insertion order is kept; it is the ranker's tie-break.
type CandidateSet struct {
	items []*Candidate
	index map[string]*Candidate
}

// NewCandidateSet creates an empty set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{index: make(map[string]*Candidate)}
}

// Add merges one strategy result. A known entry accumulates the strategy's
// contribution; scores never decrease.
func (s *CandidateSet) Add(result SearchStrategyResult) {
	if result.Err != nil {
		return
	}
	for rank, entry := range result.Entries {
		if entry == nil || entry.ID == "" {
			continue
		}
		contribution := result.Strategy.Contribution(rank)
		if c, ok := s.index[entry.ID]; ok {
			c.Score += contribution
			if !c.foundBy(result.Strategy) {
				c.Strategies = append(c.Strategies, result.Strategy)
			}
			continue
		}
		c := &Candidate{
			Entry:      entry,
			Score:      contribution,
			Strategies: []StrategyKind{result.Strategy},
		}
		s.items = append(s.items, c)
		s.index[entry.ID] = c
	}
}

func (c *Candidate) foundBy(kind StrategyKind) bool {
	for _, k := range c.Strategies {
		if k == kind {
			return true
		}
	}
	return false
}

// Len returns the number of distinct entries.
func (s *CandidateSet) Len() int {
	return len(s.items)
}

// Items returns the candidates in insertion order.
func (s *CandidateSet) Items() []*Candidate {
	return s.items
}

// Get returns the candidate for an entry ID.
func (s *CandidateSet) Get(id string) (*Candidate, bool) {
	c, ok := s.index[id]
	return c, ok
}
