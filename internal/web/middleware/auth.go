package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/creatorbridge/creatorbridge/internal/web/auth"
	"github.com/creatorbridge/creatorbridge/internal/web/response"
)

const clientKey ContextKey = "client"

// AuthConfig holds configuration for authentication middleware
type AuthConfig struct {
	// Tokens validates bearer tokens
	Tokens *auth.TokenService
	// SkipPaths is a list of paths to skip authentication
	SkipPaths []string
	// QueryParam, when set, is also read for the token. Editors connecting
	// over websocket cannot always set headers.
	QueryParam string
}

// Auth creates an authentication middleware with the given token service
func Auth(tokens *auth.TokenService) Middleware {
	return AuthWithConfig(AuthConfig{Tokens: tokens})
}

// AuthWithConfig creates an authentication middleware with custom configuration
func AuthWithConfig(config AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(config.SkipPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok && config.QueryParam != "" {
				token = r.URL.Query().Get(config.QueryParam)
				ok = token != ""
			}
			if !ok {
				response.RenderUnauthorized(w, "authorization required")
				return
			}

			claims, err := config.Tokens.ValidateToken(token)
			if err != nil {
				response.RenderUnauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), clientKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// GetClient returns the authenticated client id, or "" when the request was
// not authenticated.
func GetClient(ctx context.Context) string {
	if client, ok := ctx.Value(clientKey).(string); ok {
		return client
	}
	return ""
}
