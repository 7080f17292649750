//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package chat

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	bareFenceRe = regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
)

// ExtractStructure looks for a single JSON object inside text and
// splits it out. It tries, in order: a ```json fenced block, a bare
// ``` fenced block, and the outermost {...} span. The first candidate
// that parses as an object wins; the returned remainder is the
// surrounding prose with the block removed, or "" when the text was
// only JSON. When nothing parses, the structure is nil and the text
// comes back untouched.
func ExtractStructure(text string) (map[string]any, string) {
	if structure, remainder, ok := extractFenced(jsonFenceRe, text); ok {
		return structure, remainder
	}
	if structure, remainder, ok := extractFenced(bareFenceRe, text); ok {
		return structure, remainder
	}
	if structure, remainder, ok := extractBraced(text); ok {
		return structure, remainder
	}
	return nil, text
}

func extractFenced(re *regexp.Regexp, text string) (map[string]any, string, bool) {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, "", false
	}
	structure := parseObject(text[loc[2]:loc[3]])
	if structure == nil {
		return nil, "", false
	}
	return structure, joinRemainder(text[:loc[0]], text[loc[1]:]), true
}

func extractBraced(text string) (map[string]any, string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, "", false
	}
	structure := parseObject(text[start : end+1])
	if structure == nil {
		return nil, "", false
	}
	return structure, joinRemainder(text[:start], text[end+1:]), true
}

func parseObject(candidate string) map[string]any {
	var structure map[string]any
	if err := json.Unmarshal([]byte(candidate), &structure); err != nil {
		return nil
	}
	return structure
}

func joinRemainder(before, after string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{strings.TrimSpace(before), strings.TrimSpace(after)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
