// Package ratelimit keeps per-key token buckets for request throttling.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Store holds one limiter per key. Buckets idle for longer than the idle TTL
// are dropped by Sweep.
type Store struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

// NewStore creates a store that allows perSecond requests per key with the
// given burst.
func NewStore(perSecond float64, burst int, idleTTL time.Duration) *Store {
	if burst < 1 {
		burst = 1
	}
	return &Store{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: idleTTL,
	}
}

// Allow reports whether a request for key may proceed at now.
func (s *Store) Allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Sweep removes buckets not seen since now-idleTTL and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, b := range s.buckets {
		if now.Sub(b.lastSeen) > s.idleTTL {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// Reset drops every bucket.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = make(map[string]*bucket)
}

// Len returns the number of tracked keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
