package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ParamExtractor provides utilities for extracting and converting parameters
type ParamExtractor struct {
	req *http.Request
}

// NewParamExtractor creates a new parameter extractor for the given request
func NewParamExtractor(req *http.Request) *ParamExtractor {
	return &ParamExtractor{req: req}
}

// PathParam extracts a path parameter by name
func (p *ParamExtractor) PathParam(name string) string {
	return chi.URLParam(p.req, name)
}

// QueryParam extracts a query parameter by name
func (p *ParamExtractor) QueryParam(name string) string {
	return p.req.URL.Query().Get(name)
}

// QueryParamInt extracts a query parameter as int with a default value
func (p *ParamExtractor) QueryParamInt(name string, defaultValue int) (int, error) {
	value := p.req.URL.Query().Get(name)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for parameter %s: %w", name, err)
	}
	return n, nil
}

// QueryArgs converts the query string to a JSON object. Bracketed and dotted
// keys nest: reference[id]=x and reference.id=x both give
// {"reference":{"id":"x"}}. Repeated keys and keys ending in [] give arrays.
// The literal __null__ decodes as null.
func (p *ParamExtractor) QueryArgs() (json.RawMessage, error) {
	return queryArgs(p.req.URL.Query())
}

func queryArgs(q url.Values) (json.RawMessage, error) {
	root := map[string]any{}
	for key, values := range q {
		list := strings.HasSuffix(key, "[]")
		path := splitKey(strings.TrimSuffix(key, "[]"))
		if len(path) == 0 {
			continue
		}

		var v any
		if list || len(values) > 1 {
			items := make([]any, len(values))
			for i, s := range values {
				items[i] = queryValue(s)
			}
			v = items
		} else {
			v = queryValue(values[0])
		}

		if err := insert(root, path, v); err != nil {
			return nil, fmt.Errorf("query parameter %q: %w", key, err)
		}
	}
	return json.Marshal(root)
}

func queryValue(s string) any {
	if s == "__null__" {
		return nil
	}
	return s
}

// splitKey turns a[b][c] or a.b.c into [a b c].
func splitKey(key string) []string {
	key = strings.NewReplacer("][", ".", "[", ".", "]", "").Replace(key)
	var parts []string
	for _, part := range strings.Split(key, ".") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func insert(root map[string]any, path []string, v any) error {
	cur := root
	for _, part := range path[:len(path)-1] {
		next, ok := cur[part]
		if !ok {
			child := map[string]any{}
			cur[part] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%s is both a value and an object", part)
		}
		cur = child
	}
	last := path[len(path)-1]
	if _, ok := cur[last].(map[string]any); ok {
		return fmt.Errorf("%s is both a value and an object", last)
	}
	cur[last] = v
	return nil
}
