// Package middleware holds the HTTP middleware of the tool server.
package middleware

import "net/http"

// Middleware wraps an http.Handler
type Middleware func(http.Handler) http.Handler
