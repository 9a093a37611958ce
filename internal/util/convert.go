package util

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Int coerces a decoded JSON value to int. Strings are accepted when they
// hold a base-10 integer; anything else reports false.
func Int(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	default:
		return 0, false
	}
}

func IntOr(v any, fallback int) int {
	if i, ok := Int(v); ok {
		return i
	}
	return fallback
}

// String renders scalars as text; nil and non-scalars become "".
func String(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func TrimmedString(v any) string {
	return strings.TrimSpace(String(v))
}

// StringList accepts a JSON array or a comma-separated string. Entries are
// trimmed and blanks dropped. ok is false when v is neither shape.
func StringList(v any) ([]string, bool) {
	var parts []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			parts = append(parts, String(item))
		}
	case []string:
		parts = append(parts, t...)
	case string:
		parts = strings.Split(t, ",")
	default:
		return nil, false
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// StringPtr returns nil for an empty string so it lands as SQL NULL.
func StringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
