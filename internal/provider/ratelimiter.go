package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket guarding outbound calls to the calendar feed.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillEach time.Duration
	lastRefill time.Time
}

// NewRateLimiter allows maxTokens calls, refilling one token per refillEach.
func NewRateLimiter(maxTokens int, refillEach time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillEach: refillEach,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.tryTake() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.refillEach):
		}
	}
}

func (r *RateLimiter) tryTake() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if refilled := int(now.Sub(r.lastRefill) / r.refillEach); refilled > 0 {
		r.tokens += refilled
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = r.lastRefill.Add(time.Duration(refilled) * r.refillEach)
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}
