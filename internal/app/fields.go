package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

/********** defensive field access over decoded JSON documents **********/

// Every accessor takes a document and a key (dot paths walk nested objects)
// and substitutes a default for absent, null or wrong-shaped values.

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstPresent returns the value of the first path that is present and non-null.
func firstPresent(m map[string]any, paths ...string) any {
	for _, p := range paths {
		if v := lookupAny(m, p); v != nil {
			return v
		}
	}
	return nil
}

// optString returns the string at key or "". Numbers and bools render as
// their JSON text.
func optString(m map[string]any, key string) string {
	return asString(lookupAny(m, key))
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// optInt64 returns the integer at key or 0.
func optInt64(m map[string]any, key string) int64 {
	return asInt64(lookupAny(m, key))
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return truncInt64(f)
		}
	case float64:
		return truncInt64(t)
	case int:
		return int64(t)
	case int64:
		return t
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return truncInt64(f)
		}
	}
	return 0
}

func truncInt64(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

func optInt(m map[string]any, key string) int {
	n := optInt64(m, key)
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0
	}
	return int(n)
}

// optFloat: number from float64/json.Number/int or a string like "8,0".
func optFloat(m map[string]any, key string) float64 {
	return asFloat(lookupAny(m, key))
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}

// optBool returns the boolean at key or false. "true"/"false" strings and
// numeric 0/1 are accepted.
func optBool(m map[string]any, key string) bool {
	return asBool(lookupAny(m, key))
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case json.Number, float64, int, int64:
		return asFloat(t) != 0
	}
	return false
}

// optArray returns the array at key; ok is false when the key is absent or
// not an array, and the caller picks the fallback.
func optArray(m map[string]any, key string) ([]any, bool) {
	a, ok := lookupAny(m, key).([]any)
	return a, ok
}

func optObject(m map[string]any, key string) (map[string]any, bool) {
	o, ok := lookupAny(m, key).(map[string]any)
	return o, ok
}

// optList accepts a field that is either a single value or an array of
// values and always returns a slice (nil when absent).
func optList(m map[string]any, key string) []any {
	switch v := lookupAny(m, key).(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

// objects keeps only the object elements of list.
func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, it := range list {
		if o, ok := it.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}

// attr reads an attribute that may be serialized as "@name" or "name".
func attr(m map[string]any, name string) any {
	if v, ok := m["@"+name]; ok && v != nil {
		return v
	}
	return m[name]
}
