//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agentnet-go/llm"
)

type fakeRuntime struct {
	gotInput *bedrockruntime.ConverseInput
	output   *bedrockruntime.ConverseOutput
	err      error
}

func (f *fakeRuntime) Converse(_ context.Context, params *bedrockruntime.ConverseInput,
	_ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.gotInput = params
	return f.output, f.err
}

func TestNewRequiresRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	_, err := New("amazon.nova-pro-v1:0")
	assert.Error(t, err)
}

func TestNewWithInjectedRuntime(t *testing.T) {
	m, err := New("amazon.nova-pro-v1:0", WithRuntimeClient(&fakeRuntime{}))
	require.NoError(t, err)

	info := m.Info()
	assert.Equal(t, "bedrock", info.Class)
	assert.Equal(t, "amazon.nova-pro-v1:0", info.Name)
}

func TestGenerate(t *testing.T) {
	fake := &fakeRuntime{
		output: &bedrockruntime.ConverseOutput{
			Output: &brtypes.ConverseOutputMemberMessage{
				Value: brtypes.Message{
					Role: brtypes.ConversationRoleAssistant,
					Content: []brtypes.ContentBlock{
						&brtypes.ContentBlockMemberText{Value: "hello back"},
					},
				},
			},
			StopReason: brtypes.StopReasonEndTurn,
			Usage: &brtypes.TokenUsage{
				InputTokens:  aws.Int32(10),
				OutputTokens: aws.Int32(5),
				TotalTokens:  aws.Int32(15),
			},
		},
	}
	m, err := New("amazon.nova-pro-v1:0",
		WithRuntimeClient(fake), WithTemperature(0.5), WithMaxTokens(128))
	require.NoError(t, err)

	response, err := m.Generate(context.Background(), &llm.Request{
		Messages: []llm.Message{
			llm.SystemMessage("be terse"),
			llm.UserMessage("hello"),
		},
	})
	require.NoError(t, err)

	input := fake.gotInput
	require.NotNil(t, input)
	assert.Equal(t, "amazon.nova-pro-v1:0", aws.ToString(input.ModelId))
	require.Len(t, input.System, 1)
	require.Len(t, input.Messages, 1)
	require.NotNil(t, input.InferenceConfig)
	assert.Equal(t, int32(128), aws.ToInt32(input.InferenceConfig.MaxTokens))

	assert.Equal(t, "hello back", response.Content)
	assert.Equal(t, string(brtypes.StopReasonEndTurn), response.FinishReason)
	assert.Equal(t, 15, response.Usage.TotalTokens)
}

func TestGenerateSurfacesAPIErrorCode(t *testing.T) {
	fake := &fakeRuntime{
		err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "rate exceeded"},
	}
	m, err := New("amazon.nova-pro-v1:0", WithRuntimeClient(fake))
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), &llm.Request{
		Messages: []llm.Message{llm.UserMessage("hello")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bedrock converse: ThrottlingException")

	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestGenerateToolRoundTrip(t *testing.T) {
	fake := &fakeRuntime{
		output: &bedrockruntime.ConverseOutput{
			Output: &brtypes.ConverseOutputMemberMessage{
				Value: brtypes.Message{
					Role: brtypes.ConversationRoleAssistant,
					Content: []brtypes.ContentBlock{
						&brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
							ToolUseId: aws.String("call-1"),
							Name:      aws.String("lookup"),
							Input:     document.NewLazyDocument(map[string]any{"q": "x"}),
						}},
					},
				},
			},
			StopReason: brtypes.StopReasonToolUse,
		},
	}
	m, err := New("anthropic.claude-3-sonnet-20240229-v1:0", WithRuntimeClient(fake))
	require.NoError(t, err)

	response, err := m.Generate(context.Background(), &llm.Request{
		Messages: []llm.Message{llm.UserMessage("find x")},
		Tools: []llm.ToolDef{
			{Name: "lookup", Description: "Look up.", Parameters: map[string]any{"type": "object"}},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, fake.gotInput.ToolConfig)
	require.Len(t, fake.gotInput.ToolConfig.Tools, 1)

	require.Len(t, response.ToolCalls, 1)
	assert.Equal(t, "call-1", response.ToolCalls[0].ID)
	assert.Equal(t, "lookup", response.ToolCalls[0].Name)
	assert.JSONEq(t, `{"q":"x"}`, string(response.ToolCalls[0].Arguments))
}

func TestConvertMessagesMergesToolResults(t *testing.T) {
	conversation, system := convertMessages([]llm.Message{
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

	assert.Empty(t, system)
	require.Len(t, conversation, 3)
	merged := conversation[2]
	assert.Equal(t, brtypes.ConversationRoleUser, merged.Role)
	require.Len(t, merged.Content, 2)
}

func TestTranslateResponseNil(t *testing.T) {
	_, err := translateResponse(nil, "m")
	assert.Error(t, err)
}
