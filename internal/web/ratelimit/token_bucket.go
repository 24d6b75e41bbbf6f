package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket implements an in-memory token bucket rate limiter
type TokenBucket struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	capacity   int
	refillRate time.Duration
	now        func() time.Time
	cleanup    *time.Ticker
	done       chan struct{}
}

// bucket represents a single token bucket for a key
type bucket struct {
	tokens     int
	lastRefill time.Time
}

// TokenBucketConfig holds configuration for the token bucket rate limiter
type TokenBucketConfig struct {
	// Capacity is the maximum number of tokens in the bucket
	Capacity int
	// RefillRate is the time it takes to refill an empty bucket
	RefillRate time.Duration
	// CleanupInterval is how often idle buckets are dropped (0 = never)
	CleanupInterval time.Duration
}

// DefaultTokenBucketConfig allows 120 tool calls per minute
func DefaultTokenBucketConfig() TokenBucketConfig {
	return TokenBucketConfig{
		Capacity:        120,
		RefillRate:      time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewTokenBucket creates a token bucket rate limiter
func NewTokenBucket(config TokenBucketConfig) *TokenBucket {
	tb := &TokenBucket{
		buckets:    make(map[string]*bucket),
		capacity:   config.Capacity,
		refillRate: config.RefillRate,
		now:        time.Now,
		done:       make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		tb.cleanup = time.NewTicker(config.CleanupInterval)
		go tb.cleanupLoop()
	}

	return tb
}

// Allow takes a token from key's bucket
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Info, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()

	b, exists := tb.buckets[key]
	if !exists {
		b = &bucket{tokens: tb.capacity, lastRefill: now}
		tb.buckets[key] = b
	}

	// capacity tokens per refillRate
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		tokensToAdd := int(float64(tb.capacity) * elapsed.Seconds() / tb.refillRate.Seconds())
		if tokensToAdd > 0 {
			b.tokens = min(tb.capacity, b.tokens+tokensToAdd)
			b.lastRefill = now
		}
	}

	info := &Info{Limit: tb.capacity, ResetAt: b.lastRefill.Add(tb.refillRate)}
	if b.tokens > 0 {
		b.tokens--
		info.Allowed = true
	}
	info.Remaining = b.tokens
	return info, nil
}

func (tb *TokenBucket) cleanupLoop() {
	for {
		select {
		case <-tb.cleanup.C:
			tb.cleanupOldBuckets()
		case <-tb.done:
			return
		}
	}
}

// cleanupOldBuckets removes buckets that haven't been refilled in 2x refill rate
func (tb *TokenBucket) cleanupOldBuckets() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	threshold := 2 * tb.refillRate

	for key, b := range tb.buckets {
		if now.Sub(b.lastRefill) > threshold {
			delete(tb.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine
func (tb *TokenBucket) Close() error {
	close(tb.done)
	if tb.cleanup != nil {
		tb.cleanup.Stop()
	}
	return nil
}
