package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates answer metrics. It is created once per
// process and injected where needed.
type Metrics struct {
	mu sync.Mutex

	answersTotal    atomic.Int64
	answersDegraded atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
	completions     atomic.Int64
	completionFails atomic.Int64
	attempts        atomic.Int64
	logsDropped     atomic.Int64

	sourceMetrics map[string]*SourceMetrics

	// durations keeps the most recent answer durations.
	durations    []time.Duration
	maxDurations int
}

// SourceMetrics represents metrics for one answer source.
type SourceMetrics struct {
	count         atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		sourceMetrics: make(map[string]*SourceMetrics),
		durations:     make([]time.Duration, 0, maxDurations),
		maxDurations:  maxDurations,
	}
}

// RecordAnswer records one finished answer.
func (m *Metrics) RecordAnswer(source string, degraded bool, duration time.Duration) {
	m.answersTotal.Add(1)
	if degraded {
		m.answersDegraded.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)

	sm, ok := m.sourceMetrics[source]
	if !ok {
		sm = &SourceMetrics{}
		m.sourceMetrics[source] = sm
	}
	sm.count.Add(1)
	sm.totalDuration.Add(duration.Milliseconds())
}

// RecordCache records a retrieval cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if hit {
		m.cacheHits.Add(1)
		return
	}
	m.cacheMisses.Add(1)
}

// RecordCompletion records a generative call and the provider calls it made.
func (m *Metrics) RecordCompletion(attempts int, failed bool) {
	m.completions.Add(1)
	m.attempts.Add(int64(attempts))
	if failed {
		m.completionFails.Add(1)
	}
}

// RecordLogDropped records a conversation log that could not be queued.
func (m *Metrics) RecordLogDropped() {
	m.logsDropped.Add(1)
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.answersTotal, &m.answersDegraded, &m.cacheHits, &m.cacheMisses,
		&m.completions, &m.completionFails, &m.attempts, &m.logsDropped,
	} {
		c.Store(0)
	}
	m.mu.Lock()
	m.sourceMetrics = make(map[string]*SourceMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources := make(map[string]*SourceMetricsSnapshot, len(m.sourceMetrics))
	for source, sm := range m.sourceMetrics {
		count := sm.count.Load()
		snap := &SourceMetricsSnapshot{Count: count}
		if count > 0 {
			snap.AverageDurationMs = sm.totalDuration.Load() / count
		}
		sources[source] = snap
	}

	return &MetricsSnapshot{
		AnswersTotal:       m.answersTotal.Load(),
		AnswersDegraded:    m.answersDegraded.Load(),
		CacheHits:          m.cacheHits.Load(),
		CacheMisses:        m.cacheMisses.Load(),
		Completions:        m.completions.Load(),
		CompletionFailures: m.completionFails.Load(),
		CompletionAttempts: m.attempts.Load(),
		LogsDropped:        m.logsDropped.Load(),
		Sources:            sources,
		P95DurationMs:      percentile(m.durations, 0.95).Milliseconds(),
	}
}

// percentile returns the p-th duration of samples, 0 when empty.
func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	AnswersTotal       int64                             `json:"answers_total"`
	AnswersDegraded    int64                             `json:"answers_degraded"`
	CacheHits          int64                             `json:"cache_hits"`
	CacheMisses        int64                             `json:"cache_misses"`
	Completions        int64                             `json:"completions"`
	CompletionFailures int64                             `json:"completion_failures"`
	CompletionAttempts int64                             `json:"completion_attempts"`
	LogsDropped        int64                             `json:"logs_dropped"`
	Sources            map[string]*SourceMetricsSnapshot `json:"sources"`
	P95DurationMs      int64                             `json:"p95_duration_ms"`
}

// SourceMetricsSnapshot represents metrics for one answer source.
type SourceMetricsSnapshot struct {
	Count             int64 `json:"count"`
	AverageDurationMs int64 `json:"average_duration_ms"`
}
