package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter is a fixed-window budget of tokens per minute, used for LLM token quotas.
type TokenLimiter struct {
	sync.Mutex
	capacity     int
	remaining    int
	refillPeriod time.Duration
	lastRefill   time.Time
	pollInterval time.Duration
}

func NewTokenLimiter(tokensPerMinute int) *TokenLimiter {
	return &TokenLimiter{
		capacity:     tokensPerMinute,
		remaining:    tokensPerMinute,
		refillPeriod: time.Minute,
		lastRefill:   time.Now(),
		pollInterval: 100 * time.Millisecond,
	}
}

// Wait blocks until tokens are available or ctx is done. A request larger than
// the whole capacity is clamped to it so it can eventually proceed.
func (l *TokenLimiter) Wait(ctx context.Context, tokens int) error {
	if tokens > l.capacity {
		tokens = l.capacity
	}
	for {
		l.refill()

		l.Lock()
		if l.remaining >= tokens {
			l.remaining -= tokens
			l.Unlock()
			return nil
		}
		l.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}

func (l *TokenLimiter) refill() {
	l.Lock()
	defer l.Unlock()

	now := time.Now()
	if now.Sub(l.lastRefill) >= l.refillPeriod {
		l.remaining = l.capacity
		l.lastRefill = now
	}
}

func (l *TokenLimiter) GetRemaining() int {
	l.Lock()
	defer l.Unlock()
	return l.remaining
}
