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
	"strings"
)

// roleEntry is one element of the serialized chat list branch agents
// hand back to their callers.
type roleEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatListOutput serializes an answer in the wire form callers parse
// back with toolAnswer.
func chatListOutput(answer string) string {
	out, err := json.Marshal([]roleEntry{{Role: "assistant", Content: answer}})
	if err != nil {
		return answer
	}
	return string(out)
}

// toolAnswer extracts the answer a tool's output carries. Branch
// agents return serialized chat lists; the last entry's content is the
// answer. Plain tool strings pass through unchanged.
func toolAnswer(raw string) string {
	if answer, ok := parseToolChatListString(raw); ok {
		return answer
	}
	return raw
}

// parseToolChatListString decodes a serialized chat list, tolerating
// the quoting layers string-typed chains wrap around it: bracketing
// quotes are stripped and escaped quotes unescaped before decoding.
func parseToolChatListString(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	if !strings.HasPrefix(s, "[") {
		return "", false
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(s), &entries); err != nil {
		if !strings.Contains(s, `\"`) {
			return "", false
		}
		unescaped := strings.ReplaceAll(s, `\"`, `"`)
		if err := json.Unmarshal([]byte(unescaped), &entries); err != nil {
			return "", false
		}
	}
	if len(entries) == 0 {
		return "", false
	}
	last := entries[len(entries)-1]
	content, ok := last["content"].(string)
	if !ok {
		return "", false
	}
	return content, true
}
