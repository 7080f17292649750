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
	"trpc.group/trpc-go/trpc-agentnet-go/llm"
)

// timeTakenKey is set from wall-clock measurement, never summed.
const timeTakenKey = "time_taken_in_seconds"

// usageDict renders one model call's usage as a nested token
// dictionary: provider class, then model name, then metrics.
func usageDict(info llm.Info, usage llm.Usage) map[string]any {
	return map[string]any{
		info.Class: map[string]any{
			info.Name: map[string]any{
				"prompt_tokens":       usage.PromptTokens,
				"completion_tokens":   usage.CompletionTokens,
				"total_tokens":        usage.TotalTokens,
				"successful_requests": 1,
			},
		},
	}
}

// MergeDicts deep-merges two token dictionaries without mutating
// either. Numeric leaves add; nested maps recurse; anything else takes
// the second dictionary's value.
func MergeDicts(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		existing, present := out[k]
		if !present {
			out[k] = v
			continue
		}
		em, eok := existing.(map[string]any)
		vm, vok := v.(map[string]any)
		if eok && vok {
			out[k] = MergeDicts(em, vm)
			continue
		}
		if sum, ok := addNumbers(existing, v); ok {
			out[k] = sum
			continue
		}
		out[k] = v
	}
	return out
}

// SumAllTokens flattens a nested token dictionary into per-metric
// totals. Every numeric leaf adds under its metric name except
// time_taken_in_seconds, which is set from the timeTaken parameter.
func SumAllTokens(tokens map[string]any, timeTaken float64) map[string]any {
	totals := map[string]any{}
	sumInto(totals, tokens)
	totals[timeTakenKey] = timeTaken
	return totals
}

func sumInto(totals map[string]any, m map[string]any) {
	for key, value := range m {
		if nested, ok := value.(map[string]any); ok {
			sumInto(totals, nested)
			continue
		}
		if key == timeTakenKey {
			continue
		}
		if sum, ok := addNumbers(totals[key], value); ok {
			totals[key] = sum
		} else if isNumber(value) {
			totals[key] = value
		}
	}
}

// addNumbers adds two numeric values, keeping int when both sides are
// ints. The second return is false when either side is not a number.
func addNumbers(a, b any) (any, bool) {
	ai, aIsInt := a.(int)
	bi, bIsInt := b.(int)
	if aIsInt && bIsInt {
		return ai + bi, true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return nil, false
	}
	return af + bf, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func isNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}
