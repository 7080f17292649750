//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package codec decodes configuration files into untyped maps keyed by
// file extension. JSON and YAML decoders are built in; other formats
// (HOCON among them) plug in through Register.
package codec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-agentnet-go/errs"
)

// DecodeFunc turns raw file bytes into an untyped map.
type DecodeFunc func(data []byte) (map[string]any, error)

var (
	decoderMu sync.RWMutex
	decoders  = map[string]DecodeFunc{
		".json": decodeJSON,
		".yaml": decodeYAML,
		".yml":  decodeYAML,
	}
)

// Register installs a decoder for a file extension (with leading dot).
// Registering an extension twice replaces the earlier decoder.
func Register(ext string, fn DecodeFunc) {
	decoderMu.Lock()
	defer decoderMu.Unlock()
	decoders[strings.ToLower(ext)] = fn
}

// Supported reports whether files with the extension can be decoded.
func Supported(ext string) bool {
	decoderMu.RLock()
	defer decoderMu.RUnlock()
	_, ok := decoders[strings.ToLower(ext)]
	return ok
}

// Extensions returns the registered extensions, sorted.
func Extensions() []string {
	decoderMu.RLock()
	defer decoderMu.RUnlock()
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Decode decodes data using the decoder registered for ext.
func Decode(ext string, data []byte) (map[string]any, error) {
	decoderMu.RLock()
	fn, ok := decoders[strings.ToLower(ext)]
	decoderMu.RUnlock()
	if !ok {
		return nil, errs.Config("no decoder registered for %q files", ext)
	}
	out, err := fn(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, err, "decode %s", ext)
	}
	return out, nil
}

// DecodeFile reads and decodes a file, picking the decoder from the
// file's extension.
func DecodeFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, err, "read %s", path)
	}
	out, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, err, "decode %s", path)
	}
	return out, nil
}

func decodeJSON(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return normalizeMap(out), nil
}

// normalizeMap rewrites nested map[any]any values produced by some YAML
// shapes into map[string]any so downstream lookups see one map type.
func normalizeMap(in map[string]any) map[string]any {
	for k, v := range in {
		in[k] = normalizeValue(v)
	}
	return in
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			key, ok := k.(string)
			if !ok {
				continue
			}
			out[key] = normalizeValue(val)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalizeValue(item)
		}
		return t
	default:
		return v
	}
}
