//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloWorldConfig() map[string]any {
	return map[string]any{
		"llm_config": map[string]any{
			"model_name": "gpt-4o",
		},
		"tools": []any{
			map[string]any{
				"name": "announcer",
				"function": map[string]any{
					"description": "Announce the caller's word to the world.",
				},
				"instructions": "Relay the given word to your tool and repeat its answer.",
				"tools":        []any{"synonymizer"},
			},
			map[string]any{
				"name": "synonymizer",
				"function": map[string]any{
					"description": "Return a synonym for the given word.",
					"parameters": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"word": map[string]any{"type": "string"},
						},
					},
				},
				"instructions": "Answer with a single synonym of the word you are given.",
				"command":      "Find a synonym.",
			},
		},
	}
}

func TestNewNetwork(t *testing.T) {
	n, err := New("hello_world", helloWorldConfig())
	require.NoError(t, err)

	assert.Equal(t, "hello_world", n.Name())
	assert.Equal(t, []string{"announcer", "synonymizer"}, n.AgentNames())
	assert.Equal(t, "gpt-4o", n.DefaultLlmConfig()["model_name"])

	frontMan, err := n.FrontMan()
	require.NoError(t, err)
	assert.Equal(t, "announcer", frontMan)

	spec, ok := n.Agent("synonymizer")
	require.True(t, ok)
	assert.Equal(t, KindLlmAgent, spec.Kind())
	assert.Equal(t, "Find a synonym.", spec.Command)
	assert.Equal(t, "Return a synonym for the given word.", spec.FunctionDescription())
	require.NotNil(t, spec.FunctionParameters())
}

func TestConnectivityHelloWorld(t *testing.T) {
	n, err := New("hello_world", helloWorldConfig())
	require.NoError(t, err)

	entries := n.Connectivity()
	require.Len(t, entries, 2)

	assert.Equal(t, "announcer", entries[0].Origin)
	assert.Equal(t, "llm_agent", entries[0].DisplayAs)
	assert.Equal(t, []string{"synonymizer"}, entries[0].Tools)

	assert.Equal(t, "synonymizer", entries[1].Origin)
	assert.Equal(t, "llm_agent", entries[1].DisplayAs)
	require.NotNil(t, entries[1].Tools)
	assert.Empty(t, entries[1].Tools)
}

func TestFrontManErrors(t *testing.T) {
	// Nobody references anyone: no front man at all.
	n, err := New("flat", map[string]any{
		"tools": []any{
			map[string]any{"name": "a", "instructions": "x"},
			map[string]any{"name": "b", "instructions": "x"},
		},
	})
	require.NoError(t, err)
	_, err = n.FrontMan()
	assert.Error(t, err)

	// Two independent roots: ambiguous.
	n, err = New("twins", map[string]any{
		"tools": []any{
			map[string]any{"name": "a", "instructions": "x", "tools": []any{"shared"}},
			map[string]any{"name": "b", "instructions": "x", "tools": []any{"shared"}},
			map[string]any{"name": "shared", "instructions": "x"},
		},
	})
	require.NoError(t, err)
	_, err = n.FrontMan()
	assert.Error(t, err)
}

func TestNewAppliesReplacements(t *testing.T) {
	config := map[string]any{
		"commondefs": map[string]any{
			"replacement_values": map[string]any{
				"word_schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"word": map[string]any{"type": "string"},
					},
				},
			},
		},
		"tools": []any{
			map[string]any{
				"name":         "root",
				"instructions": "x",
				"tools":        []any{"leaf"},
			},
			map[string]any{
				"name":         "leaf",
				"instructions": "x",
				"function": map[string]any{
					"parameters": "word_schema",
				},
			},
		},
	}

	n, err := New("subst", config)
	require.NoError(t, err)

	spec, ok := n.Agent("leaf")
	require.True(t, ok)
	params := spec.FunctionParameters()
	require.NotNil(t, params)
	assert.Equal(t, "object", params["type"])
}

func TestDecodeAgentSpecKinds(t *testing.T) {
	coded, err := DecodeAgentSpec(map[string]any{
		"name":  "accountant",
		"class": "accounting.Accountant",
	})
	require.NoError(t, err)
	assert.Equal(t, KindCodedTool, coded.Kind())
	assert.Equal(t, "coded_tool", coded.DisplayAs())

	boxed, err := DecodeAgentSpec(map[string]any{
		"name":    "searcher",
		"toolbox": "website_search",
	})
	require.NoError(t, err)
	assert.Equal(t, KindToolbox, boxed.Kind())
	assert.Equal(t, "langchain_tool", boxed.DisplayAs())

	llm, err := DecodeAgentSpec(map[string]any{
		"name":         "front",
		"instructions": "do things",
		"max_iterations": 5,
		"max_execution_seconds": 30,
	})
	require.NoError(t, err)
	assert.Equal(t, KindLlmAgent, llm.Kind())
	assert.Equal(t, 5, llm.MaxIterations)
	assert.Equal(t, 30.0, llm.MaxExecutionSeconds)
}

func TestHasEmptyInstructions(t *testing.T) {
	blank, err := DecodeAgentSpec(map[string]any{"name": "a", "instructions": ""})
	require.NoError(t, err)
	assert.True(t, blank.HasEmptyInstructions())

	absent, err := DecodeAgentSpec(map[string]any{"name": "b", "class": "x.Y"})
	require.NoError(t, err)
	assert.False(t, absent.HasEmptyInstructions())
}

func TestIsExternalRef(t *testing.T) {
	assert.True(t, IsExternalRef("/other_network"))
	assert.True(t, IsExternalRef("http://host:8080/api/v1/agent"))
	assert.True(t, IsExternalRef("https://host/api/v1/agent"))
	assert.True(t, IsExternalRef("a2a://host:7070"))
	assert.False(t, IsExternalRef("synonymizer"))
	assert.False(t, IsExternalRef("deep.tool-name"))
}
