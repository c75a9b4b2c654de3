// Package jsonutil coerces loosely typed values decoded from model replies.
// Models regularly return numbers as strings, strings as numbers and single
// values where lists were requested; these helpers absorb that.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// models return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	switch v.(type) {
	case map[string]any, []any:
		return string(raw)
	}
	return String(v)
}

// String renders a decoded scalar as text. Objects and lists are re-encoded as JSON.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// Int reads a number that may arrive as a JSON number or numeric string
// ("85", "85.0", "85/100", "85%"). Returns def when nothing numeric is found.
func Int(v any, def int) int {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return roundInt(f, def)
		}
	case float64:
		return roundInt(val, def)
	case int:
		return val
	case string:
		return parseLeadingNumber(val, def)
	}
	return def
}

func parseLeadingNumber(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '-' || s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return def
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return def
	}
	return roundInt(f, def)
}

// roundInt rounds f to the nearest int, saturating at the int range.
// Float-to-int conversion of out-of-range values is implementation-defined.
func roundInt(f float64, def int) int {
	switch {
	case math.IsNaN(f):
		return def
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(math.Round(f))
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// StringSlice reads a list of strings. A lone scalar becomes a one-element list.
func StringSlice(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := String(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	default:
		if s := String(val); s != "" {
			return []string{s}
		}
		return []string{}
	}
}

// Object reads a nested object, returning an empty map for anything else.
func Object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Objects reads a list of objects, skipping non-object entries.
func Objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
