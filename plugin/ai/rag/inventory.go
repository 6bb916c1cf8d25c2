package rag

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/omadigital23/assistant/server/queryengine"
	"github.com/omadigital23/assistant/store"
)

// Inventory is a local snapshot of active entries, searched by substring when
// the store is unreachable. Replace swaps the whole snapshot atomically.
type Inventory struct {
	snapshot  atomic.Pointer[[]inventoryEntry]
	updatedAt atomic.Int64
}

type inventoryEntry struct {
	entry *store.KnowledgeEntry
	// haystack is the accent-stripped, lowercase title, content and keywords.
	haystack string
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	inv := &Inventory{}
	inv.snapshot.Store(&[]inventoryEntry{})
	return inv
}

// Replace installs a new snapshot. Inactive entries are skipped.
func (i *Inventory) Replace(entries []*store.KnowledgeEntry) {
	snapshot := make([]inventoryEntry, 0, len(entries))
	for _, e := range entries {
		if e == nil || !e.Active {
			continue
		}
		text := e.Title + " " + e.Content + " " + strings.Join(e.Keywords, " ")
		snapshot = append(snapshot, inventoryEntry{
			entry:    e,
			haystack: strings.ToLower(queryengine.StripAccents(text)),
		})
	}
	i.snapshot.Store(&snapshot)
	i.updatedAt.Store(time.Now().Unix())
}

// Len returns the number of entries in the snapshot.
func (i *Inventory) Len() int {
	return len(*i.snapshot.Load())
}

// UpdatedAt is the time of the last Replace, zero if never loaded.
func (i *Inventory) UpdatedAt() time.Time {
	ts := i.updatedAt.Load()
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// Match returns entries containing at least one query keyword, most hits
// first, snapshot order on ties.
func (i *Inventory) Match(q *queryengine.NormalizedQuery, limit int) []*store.KnowledgeEntry {
	type hit struct {
		entry *store.KnowledgeEntry
		count int
	}
	var hits []hit
	for _, e := range *i.snapshot.Load() {
		if q.Language != "" && e.entry.Language != q.Language {
			continue
		}
		count := 0
		for _, kw := range q.Keywords {
			if strings.Contains(e.haystack, kw) {
				count++
			}
		}
		if count > 0 {
			hits = append(hits, hit{entry: e.entry, count: count})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].count > hits[b].count
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	entries := make([]*store.KnowledgeEntry, 0, len(hits))
	for _, h := range hits {
		entries = append(entries, h.entry)
	}
	return entries
}
