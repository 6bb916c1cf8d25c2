package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity        int           // Maximum number of entries (default: 100)
	TTL             time.Duration // Entry lifetime (default: 5 minutes)
	CleanupInterval time.Duration // Interval for expired entry sweep (default: 1 minute)
	Clock           Clock         // Defaults to time.Now
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:        DefaultCapacity,
		TTL:             DefaultTTL,
		CleanupInterval: time.Minute,
	}
}

// Service owns an LRUCache and sweeps expired entries in the background.
// It is created once per process and injected where needed.
type Service[V any] struct {
	lru *LRUCache[V]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cleanupInterval time.Duration
}

var _ Cache[int] = (*Service[int])(nil)

// NewService creates a new cache service and starts its sweep loop.
func NewService[V any](cfg ServiceConfig) *Service[V] {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	var opts []LRUOption
	if cfg.Clock != nil {
		opts = append(opts, WithClock(cfg.Clock))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service[V]{
		lru:             NewLRUCache[V](cfg.Capacity, cfg.TTL, opts...),
		ctx:             ctx,
		cancel:          cancel,
		cleanupInterval: cfg.CleanupInterval,
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Close stops the sweep loop.
func (s *Service[V]) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service[V]) Get(key string) (V, bool) {
	return s.lru.Get(key)
}

func (s *Service[V]) Put(key string, value V) {
	s.lru.Put(key, value)
}

func (s *Service[V]) Delete(key string) bool {
	return s.lru.Delete(key)
}

func (s *Service[V]) Size() int {
	return s.lru.Size()
}

func (s *Service[V]) Clear() {
	s.lru.Clear()
}

func (s *Service[V]) Stats() Stats {
	return s.lru.Stats()
}

// Sweep removes expired entries now.
func (s *Service[V]) Sweep() int {
	return s.lru.CleanupExpired()
}

// cleanupLoop periodically removes expired entries.
func (s *Service[V]) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.lru.CleanupExpired(); n > 0 {
				slog.Debug("cache sweep", slog.Int("removed", n))
			}
		}
	}
}
