package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter bounds how often a key (IP, API key id) may act.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucketLimiter implements token bucket rate limiting with one
// bucket per key. Idle buckets are dropped periodically.
type TokenBucketLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucketLimiter creates a limiter holding maxTokens per key,
// refilling one token every refillRate.
func NewTokenBucketLimiter(maxTokens int, refillRate time.Duration) *TokenBucketLimiter {
	limiter := &TokenBucketLimiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
	}
	go limiter.cleanup()
	return limiter
}

// Allow consumes one token for the key, reporting whether one was
// available.
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: l.maxTokens, lastRefill: time.Now()}
		l.buckets[key] = b
	}

	now := time.Now()
	refill := int(now.Sub(b.lastRefill) / l.refillRate)
	if refill > 0 {
		b.tokens = min(b.tokens+refill, l.maxTokens)
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

func (l *TokenBucketLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for key, b := range l.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// NewIPRateLimiter creates a per-client-address limiter.
func NewIPRateLimiter(requestsPerMinute int) *TokenBucketLimiter {
	return NewTokenBucketLimiter(requestsPerMinute, time.Minute/time.Duration(requestsPerMinute))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
