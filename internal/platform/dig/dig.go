// Package dig provides tolerant accessors for decoded JSON. Upstream payloads
// mix nulls, numbers-as-strings, and missing keys; every accessor here reports
// absence instead of panicking.
package dig

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Get walks nested maps along path. It returns false when any hop is missing
// or not a map.
func Get(v any, path ...string) (any, bool) {
	current := v
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// Map returns the map at path, or an empty map when absent.
func Map(v any, path ...string) map[string]any {
	value, ok := Get(v, path...)
	if !ok {
		return map[string]any{}
	}
	m, ok := value.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

// Slice returns the slice at path, or nil when absent.
func Slice(v any, path ...string) []any {
	value, ok := Get(v, path...)
	if !ok {
		return nil
	}
	s, ok := value.([]any)
	if !ok {
		return nil
	}
	return s
}

func String(v any, path ...string) (string, bool) {
	value, ok := Get(v, path...)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	return s, true
}

// Float coerces the value at path into a float64. Numeric strings, including
// trailing "%" markers, are accepted.
func Float(v any, path ...string) (float64, bool) {
	value, ok := Get(v, path...)
	if !ok {
		return 0, false
	}

	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(n), "%")
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func Int(v any, path ...string) (int64, bool) {
	f, ok := Float(v, path...)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func Bool(v any, path ...string) (bool, bool) {
	value, ok := Get(v, path...)
	if !ok {
		return false, false
	}
	b, ok := value.(bool)
	if !ok {
		return false, false
	}
	return b, true
}
