//
// Tencent is pleased to support the open source community by making trpc-agentnet-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentnet-go is licensed under the Apache License Version 2.0.
//
//

// Package anthropic provides Anthropic-compatible model implementations.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"trpc.group/trpc-go/trpc-agentnet-go/llm"
)

const className = "anthropic"

// Model implements the llm.Model interface for the Anthropic API.
type Model struct {
	client      anthropic.Client
	name        string
	baseURL     string
	temperature *float64
	maxTokens   int
	httpClient  *http.Client
}

// New creates a new Anthropic model adapter. When no API key option is
// given the SDK falls back to the ANTHROPIC_API_KEY environment variable.
func New(name string, opts ...Option) *Model {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []option.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(o.baseURL))
	}
	if o.timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(o.timeout))
	}
	if o.maxRetries != nil {
		clientOpts = append(clientOpts, option.WithMaxRetries(*o.maxRetries))
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	clientOpts = append(clientOpts, o.anthropicOptions...)

	return &Model{
		client:      anthropic.NewClient(clientOpts...),
		name:        name,
		baseURL:     o.baseURL,
		temperature: o.temperature,
		maxTokens:   o.maxTokens,
		httpClient:  o.httpClient,
	}
}

// Info returns the model information.
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

	conversation, systemPrompts := convertMessages(request.Messages)
	if len(conversation) == 0 {
		return nil, fmt.Errorf("request must include at least one message")
	}

	chatRequest := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.name),
		Messages:  conversation,
		MaxTokens: int64(m.maxTokens),
	}
	if len(request.Tools) > 0 {
		chatRequest.Tools = convertTools(request.Tools)
	}
	if len(systemPrompts) > 0 {
		chatRequest.System = systemPrompts
	}
	if m.temperature != nil {
		chatRequest.Temperature = anthropic.Float(*m.temperature)
	}

	message, err := m.client.Messages.New(ctx, chatRequest)
	if err != nil {
		return nil, fmt.Errorf("anthropic message: %w", err)
	}

	response := &llm.Response{
		Model:        string(message.Model),
		FinishReason: strings.TrimSpace(string(message.StopReason)),
		Usage: llm.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}

	var textBuilder strings.Builder
	for _, content := range message.Content {
		switch block := content.AsAny().(type) {
		case anthropic.TextBlock:
			textBuilder.WriteString(block.Text)
		case anthropic.ToolUseBlock:
			response.ToolCalls = append(response.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: json.RawMessage(block.Input),
			})
		}
	}
	response.Content = textBuilder.String()
	return response, nil
}

// CloseIdleConnections sheds pooled connections held by the model's
// HTTP client. Used as the model's release policy.
func (m *Model) CloseIdleConnections() {
	if m.httpClient != nil {
		m.httpClient.CloseIdleConnections()
	}
}

// convertMessages builds Anthropic message parameters and system prompts.
// Contiguous tool results merge into a single user message so parallel
// tool calls round-trip correctly.
func convertMessages(messages []llm.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	conversation := make([]anthropic.MessageParam, 0, len(messages))
	systemPrompts := make([]anthropic.TextBlockParam, 0)
	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			if msg.Content != "" {
				systemPrompts = append(systemPrompts, anthropic.TextBlockParam{Text: msg.Content})
			}
		case llm.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, toolCall := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(
					toolCall.ID,
					decodeToolArguments(toolCall.Arguments),
					toolCall.Name,
				))
			}
			if len(blocks) == 0 {
				continue
			}
			conversation = append(conversation, anthropic.NewAssistantMessage(blocks...))
		case llm.RoleTool:
			blocks := []anthropic.ContentBlockParamUnion{
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			}
			for i+1 < len(messages) && messages[i+1].Role == llm.RoleTool {
				i++
				blocks = append(blocks, anthropic.NewToolResultBlock(
					messages[i].ToolCallID, messages[i].Content, false))
			}
			conversation = append(conversation, anthropic.NewUserMessage(blocks...))
		default:
			if msg.Content == "" {
				continue
			}
			conversation = append(conversation, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return conversation, systemPrompts
}

// decodeToolArguments parses JSON bytes into any, returning an empty object on failure.
func decodeToolArguments(args []byte) any {
	if len(args) == 0 {
		return map[string]any{}
	}
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return map[string]any{}
	}
	return decoded
}

// convertTools maps our tool declarations to Anthropic tool parameters.
func convertTools(tools []llm.ToolDef) []anthropic.ToolUnionParam {
	var result []anthropic.ToolUnionParam
	for _, tool := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Properties: tool.Parameters["properties"],
		}
		schema.Required = requiredNames(tool.Parameters["required"])
		result = append(result, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: schema,
			},
		})
	}
	return result
}

func requiredNames(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		var names []string
		for _, item := range v {
			if name, ok := item.(string); ok {
				names = append(names, name)
			}
		}
		return names
	}
	return nil
}
