// Package router mounts the tool server's HTTP surface on chi.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/journal"
	"github.com/creatorbridge/creatorbridge/internal/tools"
	"github.com/creatorbridge/creatorbridge/internal/web/auth"
	"github.com/creatorbridge/creatorbridge/internal/web/middleware"
	"github.com/creatorbridge/creatorbridge/internal/web/profiling"
	"github.com/creatorbridge/creatorbridge/internal/web/ratelimit"
	"github.com/creatorbridge/creatorbridge/internal/web/response"
)

const (
	maxBodyBytes = 4 << 20
	healthPath   = "/healthz"
	tokenParam   = "token"
)

// History lists journaled mutations.
type History interface {
	List(ctx context.Context, f journal.Filter) ([]journal.Entry, error)
}

// Config holds the handlers and services the router mounts.
type Config struct {
	Tools *tools.Service
	// Editor serves the editor websocket. Nil when the editor is simulated.
	Editor http.Handler
	// History serves /history. Nil disables the route.
	History History
	// Tokens enables bearer authentication when set
	Tokens *auth.TokenService
	// RateLimit, when set, limits tool calls per client
	RateLimit ratelimit.RateLimiter
	// Profiling mounts pprof under /debug/pprof
	Profiling bool
	Logger    *zap.Logger
	// ShowDetails adds request details to routing errors
	ShowDetails bool
}

// RouteInfo provides metadata about a route for introspection
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// Router manages HTTP routing using chi framework
type Router struct {
	mux    chi.Router
	tools  *tools.Service
	logger *zap.Logger
}

// NewRouter builds the route tree
func NewRouter(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{mux: chi.NewRouter(), tools: cfg.Tools, logger: logger}

	errs := NewErrorHandler(cfg.ShowDetails)
	r.mux.NotFound(errs.NotFoundHandler())
	r.mux.MethodNotAllowed(errs.MethodNotAllowedHandler())

	r.mux.Use(
		middleware.RequestID(),
		middleware.LoggingWithConfig(middleware.LoggingConfig{Logger: logger, SkipPaths: []string{healthPath}}),
		middleware.Recovery(logger),
	)
	r.mux.Get(healthPath, func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.mux.Group(func(g chi.Router) {
		if cfg.Tokens != nil {
			g.Use(middleware.AuthWithConfig(middleware.AuthConfig{Tokens: cfg.Tokens, QueryParam: tokenParam}))
		}
		g.Get("/utcp", r.manual)
		g.Group(func(t chi.Router) {
			if cfg.RateLimit != nil {
				t.Use(middleware.RateLimit(cfg.RateLimit, logger))
			}
			t.Get("/tools/{name}", r.callTool)
			t.Post("/tools/{name}", r.callTool)
		})
		if cfg.Editor != nil {
			g.Get("/editor", cfg.Editor.ServeHTTP)
		}
		if cfg.History != nil {
			g.Get("/history", historyHandler(cfg.History))
		}
		if cfg.Profiling {
			profiling.Register(g, profiling.DefaultConfig())
		}
	})
	return r
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Routes returns the registered routes for introspection
func (r *Router) Routes() []RouteInfo {
	var routes []RouteInfo
	_ = chi.Walk(r.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, RouteInfo{Method: method, Pattern: route})
		return nil
	})
	return routes
}

func (r *Router) manual(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, r.tools.Manual("http://"+req.Host))
}

func (r *Router) callTool(w http.ResponseWriter, req *http.Request) {
	params := NewParamExtractor(req)
	name := params.PathParam("name")

	tool, ok := r.tools.Lookup(name)
	if !ok {
		RenderToolError(w, fmt.Errorf("%w: %s", tools.ErrUnknownTool, name))
		return
	}
	if req.Method != tool.Method() {
		response.RenderMethodNotAllowed(w)
		return
	}

	var (
		args json.RawMessage
		err  error
	)
	if req.Method == http.MethodGet {
		args, err = params.QueryArgs()
	} else {
		args, err = io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	}
	if err != nil {
		response.RenderBadRequest(w, err.Error())
		return
	}

	result, err := r.tools.Call(req.Context(), name, args)
	if err != nil {
		r.logger.Warn("tool call failed",
			zap.String("tool", name),
			zap.String("request_id", middleware.GetRequestID(req.Context())),
			zap.Error(err),
		)
		RenderToolError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func historyHandler(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		params := NewParamExtractor(req)
		limit, err := params.QueryParamInt("limit", 50)
		if err != nil {
			response.RenderBadRequest(w, err.Error())
			return
		}
		entries, err := h.List(req.Context(), journal.Filter{
			Instance: params.QueryParam("instance"),
			Limit:    limit,
		})
		if err != nil {
			RenderToolError(w, err)
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{"entries": entries})
	}
}
