// Package dumppath reads and writes dotted paths inside decoded JSON
// documents (map[string]any and []any trees) such as asset meta user data or
// material dumps.
package dumppath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

type options struct {
	createMissing bool
	wrapperAware  bool
}

// Option configures Get and Set.
type Option func(*options)

// CreateMissing makes Set create intermediate objects that do not exist yet.
func CreateMissing() Option {
	return func(o *options) { o.createMissing = true }
}

// WrapperAware makes lookups fall through {"value": ...} wrappers when a key
// is not found directly, and makes Set assign into the wrapper's value when
// the final key holds a wrapper. The final key must already exist.
func WrapperAware() Option {
	return func(o *options) { o.wrapperAware = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Split breaks a dotted path into segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get returns the value stored at path.
func Get(root any, path string, opts ...Option) (any, bool) {
	o := buildOptions(opts)
	cur := root
	for _, seg := range Split(path) {
		next, ok := child(cur, seg, o)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// GetString returns the string stored at path, or "".
func GetString(root any, path string) string {
	v, _ := Get(root, path)
	s, _ := v.(string)
	return s
}

func child(cur any, seg string, o options) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		if v, ok := c[seg]; ok {
			return v, true
		}
		if o.wrapperAware {
			if inner, ok := c["value"]; ok && isContainer(inner) {
				return child(inner, seg, o)
			}
		}
	case []any:
		idx, err := strconv.Atoi(seg)
		if err == nil && idx >= 0 && idx < len(c) {
			return c[idx], true
		}
	}
	return nil, false
}

// Set assigns value at path inside root. Slices may grow by one element when
// the index equals their length. root must be a map or slice; it is modified
// in place.
func Set(root any, path string, value any, opts ...Option) error {
	segs := Split(path)
	if len(segs) == 0 {
		return fmt.Errorf("empty path: %w", propgraph.ErrNotFound)
	}
	updated, err := set(root, segs, value, buildOptions(opts))
	if err != nil {
		return fmt.Errorf("set %q: %w", path, err)
	}
	if _, ok := root.([]any); ok {
		if s, ok := updated.([]any); !ok || len(s) != len(root.([]any)) {
			return fmt.Errorf("set %q: cannot grow a top-level array: %w", path, propgraph.ErrIndexOutOfBounds)
		}
	}
	return nil
}

func set(cur any, segs []string, value any, o options) (any, error) {
	key, rest := segs[0], segs[1:]

	switch c := cur.(type) {
	case map[string]any:
		existing, ok := c[key]
		if !ok && o.wrapperAware {
			inner, has := c["value"]
			if !has || !isContainer(inner) {
				return c, fmt.Errorf("%q: %w", key, propgraph.ErrNotFound)
			}
			updated, err := set(inner, segs, value, o)
			if err != nil {
				return c, err
			}
			c["value"] = updated
			return c, nil
		}

		if len(rest) == 0 {
			if w, isWrapper := existing.(map[string]any); o.wrapperAware && isWrapper && hasKey(w, "value") {
				w["value"] = value
			} else {
				c[key] = value
			}
			return c, nil
		}

		if !ok || existing == nil {
			if !o.createMissing {
				return c, fmt.Errorf("%q: %w", key, propgraph.ErrNotFound)
			}
			existing = map[string]any{}
		}
		updated, err := set(existing, rest, value, o)
		if err != nil {
			return c, err
		}
		c[key] = updated
		return c, nil

	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return c, fmt.Errorf("%q: %w", key, propgraph.ErrInvalidSegment)
		}
		switch {
		case idx > len(c):
			return c, fmt.Errorf("%q: %w", key, propgraph.ErrIndexOutOfBounds)
		case idx == len(c):
			if len(rest) == 0 {
				return append(c, value), nil
			}
			if !o.createMissing {
				return c, fmt.Errorf("%q: %w", key, propgraph.ErrIndexOutOfBounds)
			}
			updated, err := set(map[string]any{}, rest, value, o)
			if err != nil {
				return c, err
			}
			return append(c, updated), nil
		}
		if len(rest) == 0 {
			if w, isWrapper := c[idx].(map[string]any); o.wrapperAware && isWrapper && hasKey(w, "value") {
				w["value"] = value
			} else {
				c[idx] = value
			}
			return c, nil
		}
		updated, err := set(c[idx], rest, value, o)
		if err != nil {
			return c, err
		}
		c[idx] = updated
		return c, nil
	}

	return cur, fmt.Errorf("%q: %w", key, propgraph.ErrInvalidSegment)
}

// Merge copies every key of src into dst.
func Merge(dst map[string]any, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}
