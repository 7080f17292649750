//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package confmap

// ApplyReplacements expands commondefs.replacement_values references in a
// parsed agent network config. Any string value anywhere in the tree that
// names an entry of the replacement table is substituted with a deep copy
// of that entry. The commondefs block itself is left in place. A new tree
// is returned; the input is not mutated.
func ApplyReplacements(config map[string]any) map[string]any {
	if config == nil {
		return nil
	}
	common := GetMap(config, "commondefs")
	replacements := GetMap(common, "replacement_values")
	if len(replacements) == 0 {
		return Clone(config)
	}
	out := make(map[string]any, len(config))
	for k, v := range config {
		if k == "commondefs" {
			out[k] = cloneValue(v)
			continue
		}
		out[k] = replaceValue(v, replacements)
	}
	return out
}

func replaceValue(v any, replacements map[string]any) any {
	switch t := v.(type) {
	case string:
		if sub, ok := replacements[t]; ok {
			return cloneValue(sub)
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = replaceValue(e, replacements)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = replaceValue(e, replacements)
		}
		return out
	default:
		return v
	}
}
