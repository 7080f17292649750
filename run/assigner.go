//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package run

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AssignArguments renders the arguments of a call as human-readable
// prompt clauses, one per argument: "The name is 'John Doe'.",
// "The scores are 85, 92, 78.". Rules:
//
//   - arguments are rendered in sorted key order
//   - nil values are omitted
//   - when the schema declares properties, undeclared arguments are
//     omitted
//   - arrays use "are" and join their flattened elements with ", "
//   - objects render as `"key": value` pairs, outer braces stripped
//   - values whose declared schema type is "string" are single-quoted,
//     with braces doubled so they survive prompt templating
func AssignArguments(parameters map[string]any, args map[string]any) []string {
	if len(args) == 0 {
		return nil
	}
	var properties map[string]any
	if parameters != nil {
		properties, _ = parameters["properties"].(map[string]any)
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []string
	for _, key := range keys {
		value := args[key]
		if value == nil {
			continue
		}
		var schemaType string
		if properties != nil {
			prop, declared := properties[key].(map[string]any)
			if !declared {
				continue
			}
			schemaType, _ = prop["type"].(string)
		}

		verb := "is"
		var rendered string
		switch v := value.(type) {
		case []any:
			verb = "are"
			rendered = strings.Join(flattenElements(v), ", ")
		case map[string]any:
			rendered = renderObject(v)
		default:
			rendered = fmt.Sprintf("%v", v)
			if schemaType == "string" {
				rendered = "'" + escapeBraces(rendered) + "'"
			}
		}
		clauses = append(clauses, fmt.Sprintf("The %s %s %s.", key, verb, rendered))
	}
	return clauses
}

// flattenElements renders array elements in order, descending into
// nested arrays.
func flattenElements(values []any) []string {
	var out []string
	for _, v := range values {
		if nested, ok := v.([]any); ok {
			out = append(out, flattenElements(nested)...)
			continue
		}
		out = append(out, fmt.Sprintf("%v", v))
	}
	return out
}

// renderObject renders a map as its JSON key/value pairs without the
// outer braces, keys sorted.
func renderObject(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		value, err := json.Marshal(m[k])
		if err != nil {
			value = []byte(fmt.Sprintf("%q", fmt.Sprintf("%v", m[k])))
		}
		parts = append(parts, fmt.Sprintf("%q: %s", k, value))
	}
	return strings.Join(parts, ", ")
}

// escapeBraces doubles braces so string values cannot be mistaken for
// template placeholders.
func escapeBraces(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}
