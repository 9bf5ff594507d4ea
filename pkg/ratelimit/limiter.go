package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LimiterStore hands out one rate.Limiter per key (chat id, user id, ...).
type LimiterStore struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	r        rate.Limit
	burst    int
}

func NewLimiterStore(r rate.Limit, burst int) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*limiterEntry),
		r:        r,
		burst:    burst,
	}
}

func (s *LimiterStore) GetLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.limiters[key]; exists {
		entry.lastAccess = time.Now()
		return entry.limiter
	}
	limiter := rate.NewLimiter(s.r, s.burst)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

// Evict removes limiters idle for longer than maxIdle and returns how many were dropped.
func (s *LimiterStore) Evict(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	evicted := 0
	for key, entry := range s.limiters {
		if now.Sub(entry.lastAccess) > maxIdle {
			delete(s.limiters, key)
			evicted++
		}
	}
	return evicted
}

func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
