// Package tools exposes the inspector operations as named tools and
// describes them in a UTCP manual.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

const (
	UTCPVersion   = "1.0.1"
	ManualVersion = "1.0.0"
)

// ErrUnknownTool is returned when no tool has the requested name
var ErrUnknownTool = errors.New("unknown tool")

// ArgumentError reports tool arguments that are missing or malformed.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid arguments: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Inspector is the engine surface the tools call.
type Inspector interface {
	Get(ctx context.Context, id string) (*propgraph.Node, error)
	Set(ctx context.Context, id string, paths []string, values []any) error
	Definition(ctx context.Context, id string) (string, error)
	SettingsDefinition(ctx context.Context, kind string) (string, error)
}

// Schema is a JSON schema fragment.
type Schema map[string]any

// CallTemplate tells a UTCP client how to call a tool over HTTP.
type CallTemplate struct {
	CallTemplateType  string `json:"call_template_type"`
	HTTPMethod        string `json:"http_method"`
	RequestBodyFormat string `json:"request_body_format"`
	URL               string `json:"url"`
	ContentType       string `json:"content_type"`
}

// Tool describes one callable tool.
type Tool struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Inputs       Schema       `json:"inputs"`
	Outputs      Schema       `json:"outputs"`
	Tags         []string     `json:"tags"`
	CallTemplate CallTemplate `json:"tool_call_template"`
}

// Manual lists every tool the server offers.
type Manual struct {
	UTCPVersion   string `json:"utcp_version"`
	ManualVersion string `json:"manual_version"`
	Tools         []Tool `json:"tools"`
}

// Handler runs a tool with decoded arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type entry struct {
	tool    Tool
	handler Handler
}

// Config holds the collaborators of a Service.
type Config struct {
	Inspector Inspector
	Logger    *zap.Logger
}

// Service dispatches tool calls by name.
type Service struct {
	inspector Inspector
	logger    *zap.Logger
	tools     map[string]*entry
}

// New creates a Service with the inspector tools registered.
func New(cfg Config) *Service {
	s := &Service{
		inspector: cfg.Inspector,
		logger:    cfg.Logger,
		tools:     make(map[string]*entry),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.registerInspectorTools()
	return s
}

func (s *Service) register(tool Tool, method string, handler Handler) {
	tool.CallTemplate = CallTemplate{
		CallTemplateType:  "http",
		HTTPMethod:        method,
		RequestBodyFormat: "json",
		URL:               "/tools/" + tool.Name,
		ContentType:       "application/json",
	}
	s.tools[tool.Name] = &entry{tool: tool, handler: handler}
}

// Lookup returns the tool registered under name.
func (s *Service) Lookup(name string) (Tool, bool) {
	e, ok := s.tools[name]
	if !ok {
		return Tool{}, false
	}
	return e.tool, true
}

// Names returns the registered tool names, sorted.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manual returns the tool manual with call URLs rooted at baseURL.
func (s *Service) Manual(baseURL string) Manual {
	m := Manual{UTCPVersion: UTCPVersion, ManualVersion: ManualVersion}
	for _, name := range s.Names() {
		tool := s.tools[name].tool
		tool.CallTemplate.URL = baseURL + tool.CallTemplate.URL
		m.Tools = append(m.Tools, tool)
	}
	return m
}

// Call runs the named tool.
func (s *Service) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	e, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	result, err := e.handler(ctx, args)
	if err != nil {
		s.logger.Debug("tool failed", zap.String("tool", name), zap.Error(err))
		return nil, err
	}
	return result, nil
}

// decode unmarshals args into out. UseNumber is not set: numbers arrive as
// float64, which the value normalizer expects.
func decode(tool string, args json.RawMessage, out any) error {
	if err := json.Unmarshal(args, out); err != nil {
		return &ArgumentError{Tool: tool, Err: err}
	}
	return nil
}

// Method returns the HTTP method a tool is served on.
func (t Tool) Method() string {
	if t.CallTemplate.HTTPMethod == "" {
		return http.MethodPost
	}
	return t.CallTemplate.HTTPMethod
}
