//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package confmap provides helpers for the untyped map[string]any
// configuration trees that agent network files parse into.
package confmap

import (
	"strings"
)

// Clone returns a deep copy of m. Nested map[string]any and []any values
// are copied recursively; scalars are shared.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Overlay deep-merges over onto base and returns a new map. Keys present
// in both where both values are maps merge recursively; any other
// collision takes the over value. Neither input is mutated.
func Overlay(base, over map[string]any) map[string]any {
	if base == nil && over == nil {
		return nil
	}
	out := Clone(base)
	if out == nil {
		out = make(map[string]any, len(over))
	}
	for k, v := range over {
		baseMap, baseOK := out[k].(map[string]any)
		overMap, overOK := v.(map[string]any)
		if baseOK && overOK {
			out[k] = Overlay(baseMap, overMap)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// Dig resolves a dot-separated path through nested maps.
// The second return reports whether every component was present.
func Dig(m map[string]any, path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur any = m
	for _, part := range parts {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = asMap[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Truthy reports whether a parsed config value counts as enabled.
// nil, false, zero numbers, empty strings and empty containers are falsy;
// everything else is truthy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// StripQuotes removes every double-quote character from s. Manifest keys
// sometimes arrive quoted depending on how the file was authored.
func StripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

// GetString returns m[key] when it is a string, else the fallback.
func GetString(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return fallback
}

// GetMap returns m[key] when it is a map, else nil.
func GetMap(m map[string]any, key string) map[string]any {
	sub, _ := m[key].(map[string]any)
	return sub
}

// GetSlice returns m[key] when it is a list, else nil.
func GetSlice(m map[string]any, key string) []any {
	s, _ := m[key].([]any)
	return s
}

// GetBool returns m[key] when it is a bool, else the fallback.
func GetBool(m map[string]any, key string, fallback bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return fallback
}

// GetFloat returns m[key] coerced to float64 when numeric, else the
// fallback. JSON decoding yields float64 but HOCON decoders may produce
// ints, so both are accepted.
func GetFloat(m map[string]any, key string, fallback float64) (float64, bool) {
	switch t := m[key].(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return fallback, false
	}
}

// GetInt returns m[key] coerced to int when numeric, else the fallback.
func GetInt(m map[string]any, key string, fallback int) (int, bool) {
	switch t := m[key].(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return fallback, false
	}
}

// StringSlice converts a []any of strings into a []string, skipping
// non-string members.
func StringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
