// Package ratelimit provides per-client admission control for the PaperSynth
// backend. The default backend is an in-process token bucket per client key;
// a Redis-backed variant exists for multi-replica deployments.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements the token bucket algorithm for a single client.
// Tokens refill continuously at rate per second and are clamped to
// [0, capacity]. It is safe for concurrent use.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	rate       float64 // tokens added per second
	lastRefill time.Time
}

// NewTokenBucket creates a bucket holding the given number of tokens out of
// capacity. Rate is tokens per second.
func NewTokenBucket(capacity, tokens, rate float64, now time.Time) *TokenBucket {
	if tokens > capacity {
		tokens = capacity
	}
	if tokens < 0 {
		tokens = 0
	}
	return &TokenBucket{
		capacity:   capacity,
		tokens:     tokens,
		rate:       rate,
		lastRefill: now,
	}
}

// Admit refills the bucket for the elapsed time and consumes one token.
// Returns false when no whole token is available.
func (tb *TokenBucket) Admit(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)

	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}
	return false
}

// refill adds tokens for the time elapsed since the last touch.
// Must be called with the lock held.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed < 0 {
		// Clock went backwards; treat as no elapsed time.
		elapsed = 0
	}
	tb.lastRefill = now

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
}

// Available returns the current token count after refilling.
func (tb *TokenBucket) Available(now time.Time) float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	return tb.tokens
}
