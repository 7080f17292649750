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
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/llm"
	"trpc.group/trpc-go/trpc-agentnet-go/message"
	"trpc.group/trpc-go/trpc-agentnet-go/toolbox"
)

var echoParams = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"text": map[string]any{"type": "string"},
	},
	"required": []any{"text"},
}

// echoToolbox registers a prefix-echo entry under "echo_tool". The
// prefix is a construction argument, the text a call argument.
func echoToolbox() *toolbox.Registry {
	reg := toolbox.NewRegistry()
	reg.RegisterClass("testing.EchoTool", toolbox.Factory{
		ArgNames: []string{"prefix"},
		New: func(args map[string]any) (any, error) {
			prefix, _ := args["prefix"].(string)
			return toolbox.NewTool("echo_tool", "Echoes with a prefix.", echoParams,
				func(_ context.Context, args map[string]any) (string, error) {
					text, _ := args["text"].(string)
					return prefix + text, nil
				}), nil
		},
	})
	reg.SetInfo("echo_tool", &toolbox.Info{
		Class:       "testing.EchoTool",
		Args:        map[string]any{"prefix": "E: "},
		Description: "Echoes with a prefix.",
		Parameters:  echoParams,
	})
	return reg
}

// toolboxConfig declares a coordinator calling one toolbox-backed tool.
// Extra keys overlay the tool spec.
func toolboxConfig(entry string, toolExtra map[string]any) map[string]any {
	tool := map[string]any{
		"name":    "notes",
		"toolbox": entry,
	}
	for k, v := range toolExtra {
		tool[k] = v
	}
	return map[string]any{
		"tools": []any{
			map[string]any{
				"name":         "coordinator",
				"instructions": "You coordinate the work.",
				"tools":        []any{"notes"},
				"llm_config":   map[string]any{"model_name": "coordinator-model"},
			},
			tool,
		},
	}
}

func notesCoordinator(args string) *scriptedModel {
	return &scriptedModel{
		info: llm.Info{Class: "openai", Name: "coordinator-model"},
		steps: []scriptStep{
			{resp: &llm.Response{ToolCalls: []llm.ToolCall{{
				ID: "call-1", Name: "notes", Arguments: []byte(args),
			}}}},
			{resp: &llm.Response{Content: "noted"}},
		},
	}
}

func TestToolboxToolInvokes(t *testing.T) {
	bank := newModelBank()
	coordinator := notesCoordinator(`{"text": "hello"}`)
	bank.add("coordinator-model", coordinator)

	runner := NewRunner(testNetwork(t, toolboxConfig("echo_tool", nil)),
		WithLlmFactory(bank.factory), WithToolbox(echoToolbox()))
	stream, err := runner.StreamingChat(context.Background(), &message.ChatRequest{
		UserMessage: message.NewHuman("note this"),
	})
	require.NoError(t, err)
	final := terminal(t, drain(t, stream))
	assert.Equal(t, "noted", final.Text)

	// The spec has no function block, so the registry entry supplies the
	// description and parameters the model saw.
	first := coordinator.request(0)
	require.Len(t, first.Tools, 1)
	assert.Equal(t, "notes", first.Tools[0].Name)
	assert.Equal(t, "Echoes with a prefix.", first.Tools[0].Description)
	assert.Equal(t, echoParams, first.Tools[0].Parameters)

	second := coordinator.request(1)
	require.Len(t, second.Messages, 4)
	assert.Equal(t, "E: hello", second.Messages[3].Content)
}

func TestToolboxToolSpecArgsOverrideDeclared(t *testing.T) {
	bank := newModelBank()
	coordinator := notesCoordinator(`{"text": "hello"}`)
	bank.add("coordinator-model", coordinator)

	cfg := toolboxConfig("echo_tool", map[string]any{
		"args": map[string]any{"prefix": "S: "},
	})
	runner := NewRunner(testNetwork(t, cfg),
		WithLlmFactory(bank.factory), WithToolbox(echoToolbox()))
	stream, err := runner.StreamingChat(context.Background(), &message.ChatRequest{
		UserMessage: message.NewHuman("note this"),
	})
	require.NoError(t, err)
	drain(t, stream)

	second := coordinator.request(1)
	assert.Equal(t, "S: hello", second.Messages[3].Content)
}

func TestToolboxToolRejectsBadArguments(t *testing.T) {
	bank := newModelBank()
	coordinator := notesCoordinator(`{}`)
	bank.add("coordinator-model", coordinator)

	runner := NewRunner(testNetwork(t, toolboxConfig("echo_tool", nil)),
		WithLlmFactory(bank.factory), WithToolbox(echoToolbox()))
	stream, err := runner.StreamingChat(context.Background(), &message.ChatRequest{
		UserMessage: message.NewHuman("note this"),
	})
	require.NoError(t, err)
	drain(t, stream)

	// The schema requires "text"; the violation comes back as tool
	// output, not as a turn failure.
	second := coordinator.request(1)
	assert.Contains(t, second.Messages[3].Content, "Error:")
}

func TestToolboxToolUnknownEntryBecomesOutput(t *testing.T) {
	bank := newModelBank()
	coordinator := notesCoordinator(`{"text": "hello"}`)
	bank.add("coordinator-model", coordinator)

	runner := NewRunner(testNetwork(t, toolboxConfig("missing_tool", nil)),
		WithLlmFactory(bank.factory), WithToolbox(echoToolbox()))
	stream, err := runner.StreamingChat(context.Background(), &message.ChatRequest{
		UserMessage: message.NewHuman("note this"),
	})
	require.NoError(t, err)
	drain(t, stream)

	second := coordinator.request(1)
	assert.Contains(t, second.Messages[3].Content, "Error:")
	assert.Contains(t, second.Messages[3].Content, "missing_tool")
}

func TestToolboxToolWithoutRegistryFailsTheTurn(t *testing.T) {
	bank := newModelBank()
	coordinator := notesCoordinator(`{"text": "hello"}`)
	bank.add("coordinator-model", coordinator)

	runner := NewRunner(testNetwork(t, toolboxConfig("echo_tool", nil)),
		WithLlmFactory(bank.factory))
	stream, err := runner.StreamingChat(context.Background(), &message.ChatRequest{
		UserMessage: message.NewHuman("note this"),
	})
	require.NoError(t, err)
	final := terminal(t, drain(t, stream))

	// Misconfiguration is not something the model can route around.
	assert.Contains(t, final.Text, "no toolbox registry is configured")
}

func TestToolboxToolkitPicksMatchingTool(t *testing.T) {
	reg := toolbox.NewRegistry()
	reg.RegisterClass("testing.Pair", toolbox.Factory{
		New: func(map[string]any) (any, error) {
			mk := func(name string) toolbox.Tool {
				return toolbox.NewTool(name, "One of a pair.", nil,
					func(context.Context, map[string]any) (string, error) {
						return fmt.Sprintf("ran %s", name), nil
					})
			}
			return toolbox.Kit{mk("other_tool"), mk("pair_tool")}, nil
		},
	})
	reg.SetInfo("pair_tool", &toolbox.Info{Class: "testing.Pair"})

	bank := newModelBank()
	coordinator := notesCoordinator(`{}`)
	bank.add("coordinator-model", coordinator)

	runner := NewRunner(testNetwork(t, toolboxConfig("pair_tool", nil)),
		WithLlmFactory(bank.factory), WithToolbox(reg))
	stream, err := runner.StreamingChat(context.Background(), &message.ChatRequest{
		UserMessage: message.NewHuman("note this"),
	})
	require.NoError(t, err)
	drain(t, stream)

	second := coordinator.request(1)
	assert.Equal(t, "ran pair_tool", second.Messages[3].Content)
}
