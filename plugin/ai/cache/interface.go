// Package cache memoizes ranked retrieval results per (query, language).
package cache

// Cache is the contract the retrieval orchestrator depends on.
type Cache[V any] interface {
	// Get returns the value for key. Expired entries are reported as misses.
	Get(key string) (V, bool)

	// Put stores value under key, evicting the oldest entry when full.
	Put(key string, value V)
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}
