//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/llm"
)

func TestNewDefaults(t *testing.T) {
	m := New("claude-3-haiku-20240307", WithAPIKey("test-key"))
	assert.Equal(t, defaultMaxTokens, m.maxTokens)

	info := m.Info()
	assert.Equal(t, "anthropic", info.Class)
	assert.Equal(t, "claude-3-haiku-20240307", info.Name)
}

func TestConvertMessagesSplitsSystem(t *testing.T) {
	conversation, system := convertMessages([]llm.Message{
		llm.SystemMessage("be terse"),
		llm.UserMessage("hello"),
		llm.AssistantMessage("hi"),
	})

	require.Len(t, system, 1)
	assert.Equal(t, "be terse", system[0].Text)
	require.Len(t, conversation, 2)
}

func TestConvertMessagesMergesToolResults(t *testing.T) {
	conversation, _ := convertMessages([]llm.Message{
		llm.UserMessage("go"),
		{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{ID: "call-1", Name: "alpha", Arguments: json.RawMessage(`{}`)},
				{ID: "call-2", Name: "beta", Arguments: json.RawMessage(`{}`)},
			},
		},
		llm.ToolResultMessage("call-1", "alpha", "one"),
		llm.ToolResultMessage("call-2", "beta", "two"),
	})

	// user, assistant, and one merged tool-result user message.
	require.Len(t, conversation, 3)
	merged := conversation[2]
	require.Len(t, merged.Content, 2)
	require.NotNil(t, merged.Content[0].OfToolResult)
	assert.Equal(t, "call-1", merged.Content[0].OfToolResult.ToolUseID)
	require.NotNil(t, merged.Content[1].OfToolResult)
	assert.Equal(t, "call-2", merged.Content[1].OfToolResult.ToolUseID)
}

func TestConvertMessagesSkipsEmpty(t *testing.T) {
	conversation, system := convertMessages([]llm.Message{
		{Role: llm.RoleAssistant},
		{Role: llm.RoleUser},
	})
	assert.Empty(t, conversation)
	assert.Empty(t, system)
}

func TestConvertTools(t *testing.T) {
	tools := convertTools([]llm.ToolDef{
		{
			Name:        "lookup",
			Description: "Look something up.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"q": map[string]any{"type": "string"},
				},
				"required": []any{"q"},
			},
		},
	})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "lookup", tools[0].OfTool.Name)
	assert.Equal(t, []string{"q"}, tools[0].OfTool.InputSchema.Required)
}

func TestDecodeToolArguments(t *testing.T) {
	decoded := decodeToolArguments([]byte(`{"q":"x"}`))
	assert.Equal(t, map[string]any{"q": "x"}, decoded)

	assert.Equal(t, map[string]any{}, decodeToolArguments(nil))
	assert.Equal(t, map[string]any{}, decodeToolArguments([]byte("not json")))
}
