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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "chat list takes last content",
			raw:  `[{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}]`,
			want: "hello",
		},
		{
			name: "single entry",
			raw:  `[{"role": "assistant", "content": "done"}]`,
			want: "done",
		},
		{
			name: "double quoted wrapper stripped",
			raw:  `"[{\"role\": \"assistant\", \"content\": \"wrapped\"}]"`,
			want: "wrapped",
		},
		{
			name: "single quoted wrapper stripped",
			raw:  `'[{"role": "assistant", "content": "quoted"}]'`,
			want: "quoted",
		},
		{
			name: "plain string passes through",
			raw:  "just an answer",
			want: "just an answer",
		},
		{
			name: "escaped quotes inside content survive",
			raw:  `[{"role": "assistant", "content": "say \"hi\""}]`,
			want: `say "hi"`,
		},
		{
			name: "malformed list passes through",
			raw:  `[{"role": "assistant"`,
			want: `[{"role": "assistant"`,
		},
		{
			name: "empty list passes through",
			raw:  `[]`,
			want: `[]`,
		},
		{
			name: "non-string content passes through",
			raw:  `[{"role": "assistant", "content": 7}]`,
			want: `[{"role": "assistant", "content": 7}]`,
		},
		{
			name: "empty string",
			raw:  "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toolAnswer(tt.raw))
		})
	}
}

func TestChatListOutputRoundTrips(t *testing.T) {
	out := chatListOutput("final answer")
	assert.Equal(t, `[{"role":"assistant","content":"final answer"}]`, out)

	answer, ok := parseToolChatListString(out)
	assert.True(t, ok)
	assert.Equal(t, "final answer", answer)
}

func TestSanitizeToolName(t *testing.T) {
	assert.Equal(t, "_hr_benefits", sanitizeToolName("/hr/benefits"))
	assert.Equal(t, "https___host_9000_agent", sanitizeToolName("https://host:9000/agent"))
	assert.Equal(t, "plain-name_ok", sanitizeToolName("plain-name_ok"))
}
