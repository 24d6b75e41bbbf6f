package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBucket(capacity int, now *time.Time) *TokenBucket {
	tb := NewTokenBucket(TokenBucketConfig{Capacity: capacity, RefillRate: time.Minute})
	tb.now = func() time.Time { return *now }
	return tb
}

func TestTokenBucket_ExhaustsAndRefills(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tb := newBucket(3, &now)
	defer tb.Close()

	for want := 2; want >= 0; want-- {
		info, err := tb.Allow(ctx, "agent")
		require.NoError(t, err)
		assert.True(t, info.Allowed)
		assert.Equal(t, want, info.Remaining)
		assert.Equal(t, 3, info.Limit)
	}

	info, err := tb.Allow(ctx, "agent")
	require.NoError(t, err)
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, now.Add(time.Minute), info.ResetAt)

	// a third of the refill period returns one token
	now = now.Add(20 * time.Second)
	info, err = tb.Allow(ctx, "agent")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)

	now = now.Add(time.Hour)
	info, err = tb.Allow(ctx, "agent")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
	assert.Equal(t, 2, info.Remaining, "refill is capped at capacity")
}

func TestTokenBucket_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	tb := newBucket(1, &now)
	defer tb.Close()

	info, _ := tb.Allow(ctx, "a")
	assert.True(t, info.Allowed)
	info, _ = tb.Allow(ctx, "a")
	assert.False(t, info.Allowed)
	info, _ = tb.Allow(ctx, "b")
	assert.True(t, info.Allowed)
}

func TestTokenBucket_CleanupDropsIdleBuckets(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	tb := newBucket(1, &now)
	defer tb.Close()

	_, _ = tb.Allow(ctx, "idle")
	now = now.Add(3 * time.Minute)
	_, _ = tb.Allow(ctx, "busy")

	tb.cleanupOldBuckets()
	tb.mu.Lock()
	defer tb.mu.Unlock()
	assert.NotContains(t, tb.buckets, "idle")
	assert.Contains(t, tb.buckets, "busy")
}
