// Package apply coerces caller-supplied values to a property's declared type
// and commits them to the owning collaborator.
package apply

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/creatorbridge/creatorbridge/internal/propgraph"
)

// Normalize coerces a string value for a property whose declared type is not
// a string. It tries, in order, a boolean literal, a finite number, an
// unsigned 0x, 0o or 0b integer literal and a JSON object or array; the first
// that succeeds wins. Any other input is returned unchanged.
func Normalize(raw any, schema *propgraph.Schema) any {
	s, ok := raw.(string)
	if !ok || schema.IsString() {
		return raw
	}

	t := strings.TrimSpace(s)
	switch t {
	case "true":
		return true
	case "false":
		return false
	case "":
		return raw
	}

	if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	if isPrefixedInt(t) {
		if n, err := strconv.ParseUint(t, 0, 64); err == nil {
			return float64(n)
		}
	}

	if (t[0] == '{' || t[0] == '[') && (t[len(t)-1] == '}' || t[len(t)-1] == ']') {
		var v any
		if err := json.Unmarshal([]byte(t), &v); err == nil {
			return v
		}
	}
	return raw
}

func isPrefixedInt(t string) bool {
	if len(t) < 3 || t[0] != '0' || strings.ContainsRune(t, '_') {
		return false
	}
	switch t[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	}
	return false
}
