package llm

import (
	"fmt"
	"strconv"
	"strings"
)

// String returns obj[key] as a string. Numbers and booleans are formatted;
// missing, null, and composite values yield def.
func String(obj map[string]any, key, def string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

// Float returns obj[key] as a float64, accepting numeric strings.
func Float(obj map[string]any, key string, def float64) float64 {
	switch t := obj[key].(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return def
}

// StringSlice returns obj[key] as a list of strings. Non-string entries are
// formatted, nulls dropped. A bare string becomes a one-element list.
func StringSlice(obj map[string]any, key string) []string {
	out := []string{}
	switch t := obj[key].(type) {
	case []any:
		for _, item := range t {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
	case string:
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
