// Package ratelimit limits how often a client may call tools.
package ratelimit

import (
	"context"
	"time"
)

// RateLimiter decides whether a request keyed by key may proceed
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*Info, error)
}

// Info contains the limit state after a request was counted
type Info struct {
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Remaining is the number of requests remaining in the current window
	Remaining int
	// ResetAt is when the bucket is full again
	ResetAt time.Time
	// Allowed indicates whether the request should be allowed
	Allowed bool
}
