package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestTokenLimiter_Wait(t *testing.T) {
	l := NewTokenLimiter(100)
	l.pollInterval = time.Millisecond

	assert.NoError(t, l.Wait(context.Background(), 60))
	assert.Equal(t, 40, l.GetRemaining())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, 50), context.DeadlineExceeded)
	assert.Equal(t, 40, l.GetRemaining())
}

func TestTokenLimiter_ClampsOversizedRequest(t *testing.T) {
	l := NewTokenLimiter(10)
	assert.NoError(t, l.Wait(context.Background(), 500))
	assert.Equal(t, 0, l.GetRemaining())
}

func TestLimiterStore(t *testing.T) {
	s := NewLimiterStore(rate.Limit(1), 1)

	a := s.GetLimiter("chat:1")
	assert.Same(t, a, s.GetLimiter("chat:1"))
	assert.NotSame(t, a, s.GetLimiter("chat:2"))
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, 0, s.Evict(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, s.Evict(time.Millisecond))
	assert.Equal(t, 0, s.Len())
}
