package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/creatorbridge/creatorbridge/internal/web/ratelimit"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (*ratelimit.Info, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return nil, s.err
	}
	return &ratelimit.Info{Limit: 10, Remaining: 3, ResetAt: time.Now().Add(30 * time.Second), Allowed: s.allowed}, nil
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *stubLimiter
		wantStatus int
		wantHeader bool
	}{
		{name: "allowed", limiter: &stubLimiter{allowed: true}, wantStatus: http.StatusOK, wantHeader: true},
		{name: "exceeded", limiter: &stubLimiter{}, wantStatus: http.StatusTooManyRequests, wantHeader: true},
		{name: "limiter error fails open", limiter: &stubLimiter{err: errors.New("down")}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RateLimit(tt.limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/tools/x", nil)
			req.RemoteAddr = "10.0.0.7:51234"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, []string{"ip:10.0.0.7"}, tt.limiter.keys)
			if tt.wantHeader {
				assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
				assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Remaining"))
			}
			if tt.wantStatus == http.StatusTooManyRequests {
				assert.NotEmpty(t, rec.Header().Get("Retry-After"))
				assert.Contains(t, rec.Body.String(), "rate_limited")
			}
		})
	}
}

func TestClientKeyFunc(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.2:9000"
	assert.Equal(t, "ip:192.168.1.2", ClientKeyFunc(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "ip:pipe", ClientKeyFunc(req))

	req = req.WithContext(context.WithValue(req.Context(), clientKey, "agent-1"))
	assert.Equal(t, "client:agent-1", ClientKeyFunc(req))
}
