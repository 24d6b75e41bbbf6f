package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/web/ratelimit"
	"github.com/creatorbridge/creatorbridge/internal/web/response"
)

// RateLimitConfig holds configuration for rate limiting middleware
type RateLimitConfig struct {
	// Limiter is the rate limiter implementation to use
	Limiter ratelimit.RateLimiter
	// KeyFunc extracts the rate limit key from the request
	KeyFunc func(*http.Request) string
	// Logger receives limiter failures
	Logger *zap.Logger
}

// RateLimit limits requests per authenticated client, or per remote address
// for anonymous requests
func RateLimit(limiter ratelimit.RateLimiter, logger *zap.Logger) Middleware {
	return RateLimitWithConfig(RateLimitConfig{Limiter: limiter, KeyFunc: ClientKeyFunc, Logger: logger})
}

// RateLimitWithConfig creates a rate limiting middleware with custom
// configuration. A failing limiter lets requests through.
func RateLimitWithConfig(config RateLimitConfig) Middleware {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientKeyFunc
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := config.Limiter.Allow(r.Context(), config.KeyFunc(r))
			if err != nil {
				config.Logger.Warn("rate limiter failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if !info.Allowed {
				retryAfter := max(int64(time.Until(info.ResetAt).Seconds()), 0)
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				response.RenderError(w, http.StatusTooManyRequests,
					fmt.Errorf("rate limit of %d calls exceeded", info.Limit))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKeyFunc keys requests by authenticated client, falling back to the
// remote IP
func ClientKeyFunc(r *http.Request) string {
	if client := GetClient(r.Context()); client != "" {
		return "client:" + client
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
