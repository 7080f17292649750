//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package bedrock provides a model implementation backed by the AWS
// Bedrock Converse API.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"

	"trpc.group/trpc-go/trpc-agentnet-go/llm"
)

const className = "bedrock"

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client
// required by the adapter. It matches *bedrockruntime.Client so callers
// can pass either the real client or a mock in tests.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput,
		optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Model implements the llm.Model interface on top of Bedrock Converse.
type Model struct {
	runtime     RuntimeClient
	name        string
	temperature *float64
	maxTokens   int
	httpClient  *http.Client
}

// New creates a Bedrock-powered model. Without an injected runtime
// client it builds one from the region and credential options, falling
// back to AWS_REGION / AWS_DEFAULT_REGION and the standard credential
// environment variables.
func New(name string, opts ...Option) (*Model, error) {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.runtime == nil {
		region := o.region
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		if region == "" {
			region = os.Getenv("AWS_DEFAULT_REGION")
		}
		if region == "" {
			return nil, errors.New("bedrock: region is required when no runtime client is provided")
		}
		clientOpts := bedrockruntime.Options{
			Region:     region,
			HTTPClient: o.httpClient,
		}
		if creds := resolveCredentials(o); creds != nil {
			clientOpts.Credentials = creds
		}
		o.runtime = bedrockruntime.New(clientOpts)
	}

	return &Model{
		runtime:     o.runtime,
		name:        name,
		temperature: o.temperature,
		maxTokens:   o.maxTokens,
		httpClient:  o.httpClient,
	}, nil
}

// resolveCredentials builds a static provider from the options or the
// AWS credential environment variables. Nil keeps the SDK default.
func resolveCredentials(o options) aws.CredentialsProvider {
	accessKeyID := o.accessKeyID
	secretAccessKey := o.secretAccessKey
	sessionToken := o.sessionToken
	if accessKeyID == "" {
		accessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
		secretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		sessionToken = os.Getenv("AWS_SESSION_TOKEN")
	}
	if accessKeyID == "" || secretAccessKey == "" {
		return nil
	}
	creds := aws.Credentials{
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		SessionToken:    sessionToken,
	}
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return creds, nil
	})
}

// Info implements the llm.Model interface.
func (m *Model) Info() llm.Info {
	return llm.Info{
		Class: className,
		Name:  m.name,
	}
}

// Generate implements the llm.Model interface.
func (m *Model) Generate(ctx context.Context, request *llm.Request) (*llm.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}

	conversation, system := convertMessages(request.Messages)
	if len(conversation) == 0 {
		return nil, fmt.Errorf("request must include at least one message")
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(m.name),
		Messages: conversation,
	}
	if len(system) > 0 {
		input.System = system
	}
	if toolConfig := convertTools(request.Tools); toolConfig != nil {
		input.ToolConfig = toolConfig
	}
	if cfg := m.inferenceConfig(); cfg != nil {
		input.InferenceConfig = cfg
	}

	output, err := m.runtime.Converse(ctx, input)
	if err != nil {
		return nil, converseError(err)
	}
	return translateResponse(output, m.name)
}

// converseError surfaces the AWS error code on API failures. The raw
// SDK chain buries codes like ThrottlingException several wraps deep.
func converseError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("bedrock converse: %s: %w", apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("bedrock converse: %w", err)
}

// CloseIdleConnections sheds pooled connections held by the model's
// HTTP client. Used as the model's release policy.
func (m *Model) CloseIdleConnections() {
	if m.httpClient != nil {
		m.httpClient.CloseIdleConnections()
	}
}

func (m *Model) inferenceConfig() *brtypes.InferenceConfiguration {
	var cfg brtypes.InferenceConfiguration
	if m.maxTokens > 0 {
		cfg.MaxTokens = aws.Int32(int32(m.maxTokens))
	}
	if m.temperature != nil {
		cfg.Temperature = aws.Float32(float32(*m.temperature))
	}
	if cfg.MaxTokens == nil && cfg.Temperature == nil {
		return nil
	}
	return &cfg
}

// convertMessages maps our messages onto Bedrock Converse messages.
// System messages split out into system content blocks, and contiguous
// tool results merge into a single user message.
func convertMessages(messages []llm.Message) ([]brtypes.Message, []brtypes.SystemContentBlock) {
	conversation := make([]brtypes.Message, 0, len(messages))
	system := make([]brtypes.SystemContentBlock, 0)
	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			if msg.Content != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: msg.Content})
			}
		case llm.RoleAssistant:
			blocks := make([]brtypes.ContentBlock, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: msg.Content})
			}
			for _, toolCall := range msg.ToolCalls {
				toolUse := brtypes.ToolUseBlock{
					Name:  aws.String(toolCall.Name),
					Input: toDocument(toolCall.Arguments),
				}
				if toolCall.ID != "" {
					toolUse.ToolUseId = aws.String(toolCall.ID)
				}
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{Value: toolUse})
			}
			if len(blocks) == 0 {
				continue
			}
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: blocks,
			})
		case llm.RoleTool:
			// Bedrock expects tool_result blocks in user messages,
			// correlated to a prior tool_use.
			blocks := []brtypes.ContentBlock{toolResultBlock(msg)}
			for i+1 < len(messages) && messages[i+1].Role == llm.RoleTool {
				i++
				blocks = append(blocks, toolResultBlock(messages[i]))
			}
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: blocks,
			})
		default:
			if msg.Content == "" {
				continue
			}
			conversation = append(conversation, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: msg.Content},
				},
			})
		}
	}
	return conversation, system
}

func toolResultBlock(msg llm.Message) brtypes.ContentBlock {
	result := brtypes.ToolResultBlock{
		Content: []brtypes.ToolResultContentBlock{
			&brtypes.ToolResultContentBlockMemberText{Value: msg.Content},
		},
	}
	if msg.ToolCallID != "" {
		result.ToolUseId = aws.String(msg.ToolCallID)
	}
	return &brtypes.ContentBlockMemberToolResult{Value: result}
}

func convertTools(tools []llm.ToolDef) *brtypes.ToolConfiguration {
	if len(tools) == 0 {
		return nil
	}
	toolList := make([]brtypes.Tool, 0, len(tools))
	for _, tool := range tools {
		spec := brtypes.ToolSpecification{
			Name:        aws.String(tool.Name),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(tool.Parameters)},
		}
		if tool.Description != "" {
			spec.Description = aws.String(tool.Description)
		}
		toolList = append(toolList, &brtypes.ToolMemberToolSpec{Value: spec})
	}
	return &brtypes.ToolConfiguration{Tools: toolList}
}

// toDocument parses tool call arguments into a Smithy document,
// defaulting to an empty object on bad input.
func toDocument(raw json.RawMessage) document.Interface {
	var decoded any
	if len(raw) == 0 || json.Unmarshal(raw, &decoded) != nil {
		decoded = map[string]any{}
	}
	return document.NewLazyDocument(decoded)
}

func decodeDocument(doc document.Interface) json.RawMessage {
	if doc == nil {
		return nil
	}
	data, err := doc.MarshalSmithyDocument()
	if err != nil || len(data) == 0 {
		return nil
	}
	return json.RawMessage(data)
}

func translateResponse(output *bedrockruntime.ConverseOutput, modelID string) (*llm.Response, error) {
	if output == nil {
		return nil, errors.New("bedrock: response is nil")
	}
	response := &llm.Response{
		Model:        modelID,
		FinishReason: string(output.StopReason),
	}

	var textBuilder strings.Builder
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			switch v := block.(type) {
			case *brtypes.ContentBlockMemberText:
				textBuilder.WriteString(v.Value)
			case *brtypes.ContentBlockMemberToolUse:
				toolCall := llm.ToolCall{
					Arguments: decodeDocument(v.Value.Input),
				}
				if v.Value.ToolUseId != nil {
					toolCall.ID = *v.Value.ToolUseId
				}
				if v.Value.Name != nil {
					toolCall.Name = *v.Value.Name
				}
				response.ToolCalls = append(response.ToolCalls, toolCall)
			}
		}
	}
	response.Content = textBuilder.String()

	if usage := output.Usage; usage != nil {
		response.Usage = llm.Usage{
			PromptTokens:     int(aws.ToInt32(usage.InputTokens)),
			CompletionTokens: int(aws.ToInt32(usage.OutputTokens)),
			TotalTokens:      int(aws.ToInt32(usage.TotalTokens)),
		}
	}
	return response, nil
}
